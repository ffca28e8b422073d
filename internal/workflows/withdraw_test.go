package workflows_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"cookiemail-rewards/internal/activities"
	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
	"cookiemail-rewards/internal/workflows"
)

func newEnv(t *testing.T, mem *store.MemStore, gateway activities.PayoutGateway) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.ProcessWithdrawal)
	env.RegisterActivity(&activities.Activities{
		Store:            mem,
		Payouts:          gateway,
		AutoApproveLimit: decimal.NewFromInt(100),
	})
	return env
}

func seedWithdrawal(t *testing.T, mem *store.MemStore, id string, amount, balance int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, mem.Insert(ctx, store.CollectionWithdrawals, modal.WithdrawalRequest{
		ID:          id,
		UserID:      "u1",
		Amount:      decimal.NewFromInt(amount),
		Method:      "paypal",
		Status:      modal.WithdrawalRequested,
		RequestedAt: time.Now().UTC(),
	}))
	if balance > 0 {
		require.NoError(t, mem.Insert(ctx, store.CollectionWalletHistory, modal.LedgerEntry{
			UserID:      "u1",
			Amount:      decimal.NewFromInt(balance),
			Type:        modal.LedgerTaskReward,
			Status:      modal.LedgerCompleted,
			Description: "seed",
		}))
	}
}

func withdrawalStatus(t *testing.T, mem *store.MemStore, id string) string {
	t.Helper()
	rows, err := mem.List(context.Background(), store.CollectionWithdrawals, map[string]string{"id": id})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]["status"].(string)
}

func TestAutoApprovedPayout(t *testing.T) {
	mem := store.NewMemStore()
	seedWithdrawal(t, mem, "wd-1", 50, 120)
	env := newEnv(t, mem, activities.StaticGateway{Status: modal.PayoutSent})

	env.ExecuteWorkflow(workflows.ProcessWithdrawal, "wd-1")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())
	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "PAID", result)

	require.Equal(t, string(modal.WithdrawalPaid), withdrawalStatus(t, mem, "wd-1"))

	debits, err := mem.List(context.Background(), store.CollectionWalletHistory, map[string]string{"type": string(modal.LedgerWithdrawal)})
	require.NoError(t, err)
	require.Len(t, debits, 1)
	// Decimal amounts round-trip through the store as JSON strings.
	amt := decimal.RequireFromString(debits[0]["amount"].(string))
	require.True(t, amt.Equal(decimal.NewFromInt(-50)))
}

func TestInsufficientBalanceRejected(t *testing.T) {
	mem := store.NewMemStore()
	seedWithdrawal(t, mem, "wd-2", 500, 10)
	env := newEnv(t, mem, activities.StaticGateway{Status: modal.PayoutSent})

	env.ExecuteWorkflow(workflows.ProcessWithdrawal, "wd-2")

	require.True(t, env.IsWorkflowCompleted())
	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "REJECTED_INSUFFICIENT_BALANCE", result)
	require.Equal(t, string(modal.WithdrawalRejected), withdrawalStatus(t, mem, "wd-2"))
}

func TestLargeWithdrawalApprovedByReviewer(t *testing.T) {
	mem := store.NewMemStore()
	seedWithdrawal(t, mem, "wd-3", 500, 1000)
	env := newEnv(t, mem, activities.StaticGateway{Status: modal.PayoutSent})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(workflows.WithdrawalDecisionSignal, modal.ReviewDecision{
			TaskID:   "review-wd-3",
			Approved: true,
			Notes:    "verified with user",
			Decider:  "ops-agent",
		})
	}, time.Minute)

	env.ExecuteWorkflow(workflows.ProcessWithdrawal, "wd-3")

	require.True(t, env.IsWorkflowCompleted())
	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "PAID_AFTER_REVIEW", result)
	require.Equal(t, string(modal.WithdrawalPaid), withdrawalStatus(t, mem, "wd-3"))
}

func TestLargeWithdrawalRejectedByReviewer(t *testing.T) {
	mem := store.NewMemStore()
	seedWithdrawal(t, mem, "wd-4", 500, 1000)
	env := newEnv(t, mem, activities.StaticGateway{Status: modal.PayoutSent})

	env.RegisterDelayedCallback(func() {
		// A decision for some other task must not unblock this review.
		env.SignalWorkflow(workflows.WithdrawalDecisionSignal, modal.ReviewDecision{
			TaskID:   "review-other",
			Approved: true,
		})
	}, 30*time.Second)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(workflows.WithdrawalDecisionSignal, modal.ReviewDecision{
			TaskID:   "review-wd-4",
			Approved: false,
			Notes:    "account flagged",
			Decider:  "ops-agent",
		})
	}, time.Minute)

	env.ExecuteWorkflow(workflows.ProcessWithdrawal, "wd-4")

	require.True(t, env.IsWorkflowCompleted())
	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "REJECTED_BY_REVIEWER", result)
	require.Equal(t, string(modal.WithdrawalRejected), withdrawalStatus(t, mem, "wd-4"))

	// No debit for a rejected withdrawal.
	debits, err := mem.List(context.Background(), store.CollectionWalletHistory, map[string]string{"type": string(modal.LedgerWithdrawal)})
	require.NoError(t, err)
	require.Empty(t, debits)
}

func TestDecliningGatewayEscalatesThenStaysOpen(t *testing.T) {
	mem := store.NewMemStore()
	seedWithdrawal(t, mem, "wd-5", 50, 120)
	env := newEnv(t, mem, activities.StaticGateway{Status: modal.PayoutFailed})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(workflows.WithdrawalDecisionSignal, modal.ReviewDecision{
			TaskID:   "review-wd-5",
			Approved: true,
			Decider:  "ops-agent",
		})
	}, time.Minute)

	env.ExecuteWorkflow(workflows.ProcessWithdrawal, "wd-5")

	require.True(t, env.IsWorkflowCompleted())
	var result string
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "PENDING_MANUAL_FOLLOWUP", result)
	// Request stays in its original state for ops to pick up.
	require.Equal(t, string(modal.WithdrawalRequested), withdrawalStatus(t, mem, "wd-5"))
}
