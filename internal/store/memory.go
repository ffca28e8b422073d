package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemStore keeps collections in process memory. It backs local development
// (no STORE_URL configured) and tests; semantics match RESTStore: patches
// replace top-level fields, unknown ids fail with a PersistenceError.
type MemStore struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
}

func NewMemStore() *MemStore {
	return &MemStore{collections: make(map[string][]map[string]any)}
}

func (s *MemStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.collections[collection] {
		if fmt.Sprint(rec["id"]) != id {
			continue
		}
		for k, v := range patch {
			rec[k] = normalize(v)
		}
		return nil
	}
	return &PersistenceError{Op: "update", Collection: collection, Err: fmt.Errorf("id %q not found", id)}
}

func (s *MemStore) Insert(ctx context.Context, collection string, record any) error {
	rec, err := toRecord(record)
	if err != nil {
		return &PersistenceError{Op: "insert", Collection: collection, Err: err}
	}
	if id, ok := rec["id"]; !ok || id == "" {
		rec["id"] = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], rec)
	return nil
}

func (s *MemStore) List(ctx context.Context, collection string, filter map[string]string) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []map[string]any
	for _, rec := range s.collections[collection] {
		if matches(rec, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matches(rec map[string]any, filter map[string]string) bool {
	for k, v := range filter {
		if fmt.Sprint(rec[k]) != v {
			return false
		}
	}
	return true
}

// toRecord flattens any insertable value into the map shape List returns,
// through the same JSON encoding the wire store would use.
func toRecord(record any) (map[string]any, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	var rec map[string]any
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}
