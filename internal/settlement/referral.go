package settlement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

// CreditReferral appends the wallet bonus for a successful referral. Same
// append-only insert as task rewards: no idempotency key, so crediting the
// same referral twice writes two entries.
func (c *Coordinator) CreditReferral(ctx context.Context, userID string, amount decimal.Decimal, referredUserID string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("credit referral for %s: amount must be positive, got %s", userID, amount)
	}
	entry := modal.LedgerEntry{
		UserID:      userID,
		Amount:      amount,
		Type:        modal.LedgerReferralBonus,
		Status:      modal.LedgerCompleted,
		Description: "Referral bonus for inviting " + referredUserID,
	}
	return c.store.Insert(ctx, store.CollectionWalletHistory, entry)
}
