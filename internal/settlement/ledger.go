package settlement

import (
	"context"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

// creditReward appends the wallet entry for an approved submission. There is
// no idempotency key; crediting the same submission twice writes two
// entries.
func (c *Coordinator) creditReward(ctx context.Context, sub modal.TaskSubmission) error {
	entry := modal.LedgerEntry{
		UserID:      sub.UserID,
		Amount:      sub.Reward,
		Type:        modal.LedgerTaskReward,
		Status:      modal.LedgerCompleted,
		Description: "Reward for task: " + sub.TaskType,
	}
	return c.store.Insert(ctx, store.CollectionWalletHistory, entry)
}
