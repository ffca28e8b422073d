package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"cookiemail-rewards/internal/modal"
)

const TaskQueue = "COOKIEMAIL_REWARDS_TASK_QUEUE"
const WithdrawalDecisionSignal = "WITHDRAWAL_DECISION_SIGNAL"

// maxPayoutAttempts bounds gateway declines per approval, separate from the
// activity retry policy that covers transient errors.
const maxPayoutAttempts = 3

type withdrawState struct {
	Case          modal.PayoutCase   `json:"payoutCase"`
	PendingReview *modal.ReviewTask  `json:"pendingReview,omitempty"`
	Audit         []modal.AuditEvent `json:"audit,omitempty"`
}

// ProcessWithdrawal drives one withdrawal request from payout case to a
// terminal outcome. Small requests with sufficient balance pay out
// automatically; everything else waits for a reviewer decision signal.
func ProcessWithdrawal(ctx workflow.Context, withdrawalID string) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("withdrawal workflow started", "withdrawalID", withdrawalID)

	state := &withdrawState{
		Audit: make([]modal.AuditEvent, 0),
	}

	appendAudit := func(kind, message string, data map[string]any) {
		state.Audit = append(state.Audit, modal.AuditEvent{
			At:      workflow.Now(ctx),
			Kind:    kind,
			Message: message,
			Data:    data,
		})
	}

	// Queries let the API read case/review/audit without a separate read model.
	_ = workflow.SetQueryHandler(ctx, "payout_case", func() (modal.PayoutCase, error) {
		return state.Case, nil
	})

	_ = workflow.SetQueryHandler(ctx, "pending_review", func() (modal.ReviewTask, error) {
		if state.PendingReview == nil {
			return modal.ReviewTask{}, nil
		}
		return *state.PendingReview, nil
	})

	_ = workflow.SetQueryHandler(ctx, "audit_log", func() ([]modal.AuditEvent, error) {
		return state.Audit, nil
	})

	// Timeout: if an activity doesn't complete in 10s, assume it failed and retry.
	// Retries: up to 3 attempts with exponential backoff before failing the workflow.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var pc modal.PayoutCase
	if err := workflow.ExecuteActivity(ctx, "BuildPayoutCase", withdrawalID).Get(ctx, &pc); err != nil {
		logger.Error("failed to build payout case", "error", err)
		return "", err
	}
	state.Case = pc
	appendAudit("CASE_BUILT", "payout case built", map[string]any{
		"amount":  pc.Amount.String(),
		"balance": pc.WalletBalance.String(),
	})

	if pc.Amount.GreaterThan(pc.WalletBalance) {
		if err := workflow.ExecuteActivity(ctx, "FinalizeWithdrawal", pc, modal.WithdrawalRejected, "insufficient balance").Get(ctx, nil); err != nil {
			return "", err
		}
		appendAudit("REJECTED", "balance below requested amount", nil)
		return "REJECTED_INSUFFICIENT_BALANCE", nil
	}

	if pc.AutoApprovable {
		paid, err := attemptPayout(ctx, state, appendAudit)
		if err != nil {
			return "", err
		}
		if paid {
			return "PAID", nil
		}
		// Gateway kept declining; fall through to human review.
		appendAudit("ESCALATED", "auto-approved payout kept failing, escalating to review", nil)
	}

	task := &modal.ReviewTask{
		ID:           "review-" + withdrawalID,
		WithdrawalID: withdrawalID,
		Title:        "Review withdrawal request",
		Reason:       "Withdrawal needs manual approval before payout.",
		CreatedAt:    workflow.Now(ctx),
	}
	state.PendingReview = task
	appendAudit("REVIEW_CREATED", "withdrawal waiting for reviewer", map[string]any{"taskId": task.ID})
	logger.Info("withdrawal escalated to manual review", "withdrawalID", withdrawalID)

	var decision modal.ReviewDecision
	selector := workflow.NewSelector(ctx)
	sigCh := workflow.GetSignalChannel(ctx, WithdrawalDecisionSignal)

	selector.AddReceive(sigCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, &decision)
	})

	for decision.TaskID != task.ID {
		selector.Select(ctx)
	}
	state.PendingReview = nil
	appendAudit("REVIEW_DECIDED", "reviewer decided", map[string]any{
		"approved": decision.Approved,
		"decider":  decision.Decider,
	})

	if !decision.Approved {
		if err := workflow.ExecuteActivity(ctx, "FinalizeWithdrawal", pc, modal.WithdrawalRejected, decision.Notes).Get(ctx, nil); err != nil {
			return "", err
		}
		return "REJECTED_BY_REVIEWER", nil
	}

	paid, err := attemptPayout(ctx, state, appendAudit)
	if err != nil {
		return "", err
	}
	if paid {
		return "PAID_AFTER_REVIEW", nil
	}

	// Approved but the gateway kept declining. Leave the request open for ops.
	appendAudit("STUCK", "approved payout exhausted attempts", nil)
	return "PENDING_MANUAL_FOLLOWUP", nil
}

// attemptPayout runs the decline-bounded payout loop and finalizes on
// success. Returns false when every attempt was declined.
func attemptPayout(ctx workflow.Context, state *withdrawState, appendAudit func(string, string, map[string]any)) (bool, error) {
	pc := state.Case
	for attempt := 1; attempt <= maxPayoutAttempts; attempt++ {
		var status modal.PayoutStatus
		if err := workflow.ExecuteActivity(ctx, "SendPayout", pc, attempt).Get(ctx, &status); err != nil {
			appendAudit("ERROR", "SendPayout failed", map[string]any{
				"attempt": attempt,
				"error":   err.Error(),
			})
			return false, err
		}
		appendAudit("PAYOUT_ATTEMPTED", "payout attempt finished", map[string]any{
			"attempt": attempt,
			"status":  status,
		})

		if status == modal.PayoutSent {
			if err := workflow.ExecuteActivity(ctx, "FinalizeWithdrawal", pc, modal.WithdrawalPaid, "").Get(ctx, nil); err != nil {
				return false, err
			}
			appendAudit("PAID", "withdrawal paid out", map[string]any{"attempt": attempt})
			return true, nil
		}
	}
	return false, nil
}
