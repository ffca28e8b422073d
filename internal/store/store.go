// Package store abstracts the managed database the rewards backend writes
// to. The store is reachable only over the network; callers get no
// transactional control across calls, and nothing in here retries.
package store

import "context"

const (
	CollectionTaskSubmissions = "task_submissions"
	CollectionWalletHistory   = "wallet_history"
	CollectionWithdrawals     = "withdrawal_requests"
)

// Store is injected as an explicit dependency everywhere it is used so tests
// can substitute an in-memory implementation and assert call order and count.
type Store interface {
	// Update applies a partial-field patch to the record with the given id.
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	// Insert adds a whole new record; the store assigns the identity.
	Insert(ctx context.Context, collection string, record any) error
	// List returns records matching every filter key by string equality.
	List(ctx context.Context, collection string, filter map[string]string) ([]map[string]any, error)
}
