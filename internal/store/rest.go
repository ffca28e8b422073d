package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RESTStore talks to the managed database's HTTP query API. Collections map
// to URL paths; partial updates go out as PATCH with an id equality filter,
// inserts as POST, reads as GET with query-string filters.
type RESTStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewRESTStore(baseURL, apiKey string) *RESTStore {
	return &RESTStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *RESTStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	u := fmt.Sprintf("%s/%s?id=eq.%s", s.baseURL, collection, url.QueryEscape(id))
	if err := s.send(ctx, http.MethodPatch, u, patch, nil); err != nil {
		return &PersistenceError{Op: "update", Collection: collection, Err: err}
	}
	return nil
}

func (s *RESTStore) Insert(ctx context.Context, collection string, record any) error {
	u := s.baseURL + "/" + collection
	if err := s.send(ctx, http.MethodPost, u, record, nil); err != nil {
		return &PersistenceError{Op: "insert", Collection: collection, Err: err}
	}
	return nil
}

func (s *RESTStore) List(ctx context.Context, collection string, filter map[string]string) ([]map[string]any, error) {
	q := url.Values{}
	for k, v := range filter {
		q.Set(k, "eq."+v)
	}
	u := s.baseURL + "/" + collection
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rows []map[string]any
	if err := s.send(ctx, http.MethodGet, u, nil, &rows); err != nil {
		return nil, &PersistenceError{Op: "list", Collection: collection, Err: err}
	}
	return rows, nil
}

func (s *RESTStore) send(ctx context.Context, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status %d: %s", method, u, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
