package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

type Activities struct {
	Store            store.Store
	Payouts          PayoutGateway
	AutoApproveLimit decimal.Decimal
}

// BuildPayoutCase loads the withdrawal request and the user's wallet history
// and assembles the evidence a reviewer (or the auto-approval rule) decides
// on. Balance is the sum of all ledger amounts; credits are positive,
// withdrawals negative.
func (a *Activities) BuildPayoutCase(ctx context.Context, withdrawalID string) (modal.PayoutCase, error) {
	rows, err := a.Store.List(ctx, store.CollectionWithdrawals, map[string]string{"id": withdrawalID})
	if err != nil {
		return modal.PayoutCase{}, err
	}
	if len(rows) == 0 {
		return modal.PayoutCase{}, fmt.Errorf("withdrawal %q not found", withdrawalID)
	}

	var req modal.WithdrawalRequest
	if err := decodeRecord(rows[0], &req); err != nil {
		return modal.PayoutCase{}, fmt.Errorf("decode withdrawal %q: %w", withdrawalID, err)
	}

	balance, err := a.walletBalance(ctx, req.UserID)
	if err != nil {
		return modal.PayoutCase{}, err
	}

	pc := modal.PayoutCase{
		WithdrawalID:   req.ID,
		UserID:         req.UserID,
		Amount:         req.Amount,
		Method:         req.Method,
		WalletBalance:  balance,
		AutoApprovable: req.Amount.LessThanOrEqual(a.AutoApproveLimit) && req.Amount.LessThanOrEqual(balance),
		GeneratedAt:    time.Now().UTC(),
	}

	activity.GetLogger(ctx).Info("payout case built",
		"withdrawalID", pc.WithdrawalID, "amount", pc.Amount.String(), "balance", pc.WalletBalance.String(), "auto", pc.AutoApprovable)
	return pc, nil
}

// SendPayout asks the payment gateway to move the money. A FAILED status is
// a decline the workflow's attempt loop handles; a returned error is
// transient and left to the activity retry policy.
func (a *Activities) SendPayout(ctx context.Context, pc modal.PayoutCase, attempt int) (modal.PayoutStatus, error) {
	status, err := a.Payouts.Send(ctx, pc.UserID, pc.Amount, pc.Method)
	if err != nil {
		return "", fmt.Errorf("payout attempt %d for %s: %w", attempt, pc.WithdrawalID, err)
	}
	activity.GetLogger(ctx).Info("payout attempted", "withdrawalID", pc.WithdrawalID, "attempt", attempt, "status", status)
	return status, nil
}

// FinalizeWithdrawal records the terminal outcome: the request's status
// update first, then the ledger debit when it was paid. Same naive two-write
// order as task settlement, with the same partial-failure window.
func (a *Activities) FinalizeWithdrawal(ctx context.Context, pc modal.PayoutCase, outcome modal.WithdrawalStatus, note string) error {
	patch := map[string]any{"status": outcome}
	if note != "" {
		patch["review_note"] = note
	}
	if err := a.Store.Update(ctx, store.CollectionWithdrawals, pc.WithdrawalID, patch); err != nil {
		return err
	}

	if outcome != modal.WithdrawalPaid {
		return nil
	}
	entry := modal.LedgerEntry{
		UserID:      pc.UserID,
		Amount:      pc.Amount.Neg(),
		Type:        modal.LedgerWithdrawal,
		Status:      modal.LedgerCompleted,
		Description: "Withdrawal " + pc.WithdrawalID,
	}
	return a.Store.Insert(ctx, store.CollectionWalletHistory, entry)
}

func (a *Activities) walletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	rows, err := a.Store.List(ctx, store.CollectionWalletHistory, map[string]string{"user_id": userID})
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, row := range rows {
		var entry modal.LedgerEntry
		if err := decodeRecord(row, &entry); err != nil {
			return decimal.Zero, fmt.Errorf("decode ledger entry for %s: %w", userID, err)
		}
		balance = balance.Add(entry.Amount)
	}
	return balance, nil
}

func decodeRecord(row map[string]any, out any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
