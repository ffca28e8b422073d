// Package settlement finalizes a task submission's review outcome and, on
// approval, credits the reward to the submitter's wallet.
package settlement

import (
	"context"
	"fmt"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

type Coordinator struct {
	store store.Store
}

func NewCoordinator(s store.Store) *Coordinator {
	return &Coordinator{store: s}
}

// Settle transitions the submission to the target status and, only when
// approving a positive reward, appends the wallet credit. The status write
// always goes first; the two writes are not atomic, so a failed credit
// leaves the submission Approved with no matching wallet entry. That partial
// state is surfaced to the caller as the credit error, nothing compensates
// for it here.
//
// Settle does not check the submission's current status. Settling an already
// reviewed submission writes again, and a second approval credits a second
// time.
func (c *Coordinator) Settle(ctx context.Context, sub modal.TaskSubmission, target modal.SubmissionStatus, reason string) error {
	if target != modal.SubmissionApproved && target != modal.SubmissionRejected {
		return fmt.Errorf("settle %s: invalid target status %q", sub.ID, target)
	}

	if err := c.updateStatus(ctx, sub, target, reason); err != nil {
		return err
	}

	if target == modal.SubmissionApproved && sub.Reward.IsPositive() {
		if err := c.creditReward(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}
