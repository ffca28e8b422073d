package settlement

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

type storeCall struct {
	op         string
	collection string
	id         string
	patch      map[string]any
	record     any
}

// recordingStore captures every call so tests can assert order and count.
type recordingStore struct {
	calls     []storeCall
	updateErr error
	insertErr error
}

func (s *recordingStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	s.calls = append(s.calls, storeCall{op: "update", collection: collection, id: id, patch: patch})
	return s.updateErr
}

func (s *recordingStore) Insert(ctx context.Context, collection string, record any) error {
	s.calls = append(s.calls, storeCall{op: "insert", collection: collection, record: record})
	return s.insertErr
}

func (s *recordingStore) List(ctx context.Context, collection string, filter map[string]string) ([]map[string]any, error) {
	return nil, nil
}

func (s *recordingStore) inserts() []storeCall {
	var out []storeCall
	for _, c := range s.calls {
		if c.op == "insert" {
			out = append(out, c)
		}
	}
	return out
}

func pendingSubmission() modal.TaskSubmission {
	return modal.TaskSubmission{
		ID:       "t1",
		UserID:   "u1",
		TaskType: "confirm_email",
		Reward:   decimal.NewFromInt(50),
		Status:   modal.SubmissionPending,
	}
}

func TestApproveCreditsReward(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	err := c.Settle(context.Background(), pendingSubmission(), modal.SubmissionApproved, "looks good")
	require.NoError(t, err)

	require.Len(t, st.calls, 2)

	up := st.calls[0]
	require.Equal(t, "update", up.op)
	require.Equal(t, store.CollectionTaskSubmissions, up.collection)
	require.Equal(t, "t1", up.id)
	require.Equal(t, modal.SubmissionApproved, up.patch["status"])
	payload := up.patch["payload"].(map[string]any)
	meta := payload["metadata"].(map[string]any)
	require.Equal(t, "looks good", meta["approval_note"])

	ins := st.calls[1]
	require.Equal(t, "insert", ins.op)
	require.Equal(t, store.CollectionWalletHistory, ins.collection)
	entry := ins.record.(modal.LedgerEntry)
	require.Equal(t, "u1", entry.UserID)
	require.True(t, entry.Amount.Equal(decimal.NewFromInt(50)))
	require.Equal(t, modal.LedgerTaskReward, entry.Type)
	require.Equal(t, modal.LedgerCompleted, entry.Status)
	require.Equal(t, "Reward for task: confirm_email", entry.Description)
}

func TestRejectSkipsLedger(t *testing.T) {
	for _, reason := range []string{"invalid proof", ""} {
		st := &recordingStore{}
		c := NewCoordinator(st)

		err := c.Settle(context.Background(), pendingSubmission(), modal.SubmissionRejected, reason)
		require.NoError(t, err)

		require.Len(t, st.calls, 1)
		require.Equal(t, "update", st.calls[0].op)
		require.Equal(t, modal.SubmissionRejected, st.calls[0].patch["status"])
		require.Empty(t, st.inserts())

		if reason != "" {
			payload := st.calls[0].patch["payload"].(map[string]any)
			meta := payload["metadata"].(map[string]any)
			require.Equal(t, reason, meta["rejection_reason"])
		}
	}
}

func TestApproveZeroRewardSkipsLedger(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	sub := pendingSubmission()
	sub.Reward = decimal.Zero

	err := c.Settle(context.Background(), sub, modal.SubmissionApproved, "")
	require.NoError(t, err)

	require.Len(t, st.calls, 1)
	require.Equal(t, "update", st.calls[0].op)
	require.Empty(t, st.inserts())
}

func TestReviewNoteMergeKeepsExistingMetadata(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	sub := pendingSubmission()
	sub.Payload = map[string]any{
		"proof_url": "https://example.com/p",
		"metadata":  map[string]any{"a": 1},
	}

	err := c.Settle(context.Background(), sub, modal.SubmissionRejected, "bad link")
	require.NoError(t, err)

	payload := st.calls[0].patch["payload"].(map[string]any)
	require.Equal(t, "https://example.com/p", payload["proof_url"])
	meta := payload["metadata"].(map[string]any)
	require.Equal(t, 1, meta["a"])
	require.Equal(t, "bad link", meta["rejection_reason"])

	// The submission's own payload must not have been mutated.
	require.Equal(t, map[string]any{"a": 1}, sub.Payload["metadata"])
}

func TestStatusUpdateFailureAbortsFlow(t *testing.T) {
	st := &recordingStore{
		updateErr: &store.PersistenceError{Op: "update", Collection: store.CollectionTaskSubmissions, Err: errors.New("connection reset")},
	}
	c := NewCoordinator(st)

	err := c.Settle(context.Background(), pendingSubmission(), modal.SubmissionApproved, "")
	require.Error(t, err)

	var pe *store.PersistenceError
	require.ErrorAs(t, err, &pe)
	require.Empty(t, st.inserts())
}

// A failed credit still leaves the status write committed: the submission
// independently re-reads as Approved while the wallet has no entry. The
// caller only sees the propagated error.
func TestCreditFailureLeavesStatusCommitted(t *testing.T) {
	mem := store.NewMemStore()
	ctx := context.Background()
	require.NoError(t, mem.Insert(ctx, store.CollectionTaskSubmissions, pendingSubmission()))

	st := &failingInsertStore{Store: mem}
	c := NewCoordinator(st)

	err := c.Settle(ctx, pendingSubmission(), modal.SubmissionApproved, "looks good")
	require.Error(t, err)

	rows, lerr := mem.List(ctx, store.CollectionTaskSubmissions, map[string]string{"id": "t1"})
	require.NoError(t, lerr)
	require.Len(t, rows, 1)
	require.Equal(t, string(modal.SubmissionApproved), rows[0]["status"])

	credits, lerr := mem.List(ctx, store.CollectionWalletHistory, nil)
	require.NoError(t, lerr)
	require.Empty(t, credits)
}

func TestCreditReferral(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	err := c.CreditReferral(context.Background(), "u1", decimal.NewFromInt(10), "u2")
	require.NoError(t, err)

	require.Len(t, st.calls, 1)
	ins := st.calls[0]
	require.Equal(t, "insert", ins.op)
	require.Equal(t, store.CollectionWalletHistory, ins.collection)
	entry := ins.record.(modal.LedgerEntry)
	require.Equal(t, "u1", entry.UserID)
	require.True(t, entry.Amount.Equal(decimal.NewFromInt(10)))
	require.Equal(t, modal.LedgerReferralBonus, entry.Type)
	require.Equal(t, modal.LedgerCompleted, entry.Status)
	require.Equal(t, "Referral bonus for inviting u2", entry.Description)
}

func TestCreditReferralRejectsNonPositiveAmount(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		err := c.CreditReferral(context.Background(), "u1", amount, "u2")
		require.Error(t, err)
	}
	require.Empty(t, st.calls)
}

func TestInvalidTargetStatus(t *testing.T) {
	st := &recordingStore{}
	c := NewCoordinator(st)

	err := c.Settle(context.Background(), pendingSubmission(), modal.SubmissionPending, "")
	require.Error(t, err)
	require.Empty(t, st.calls)
}

// failingInsertStore passes updates through to the real store but fails
// every insert, simulating a credit that dies after the status committed.
type failingInsertStore struct {
	store.Store
}

func (s *failingInsertStore) Insert(ctx context.Context, collection string, record any) error {
	return &store.PersistenceError{Op: "insert", Collection: collection, Err: errors.New("gateway timeout")}
}
