package settlement

import (
	"context"

	"cookiemail-rewards/internal/modal"
	"cookiemail-rewards/internal/store"
)

// updateStatus sends the single partial update for a review outcome: the new
// status, plus the reviewer's note merged into the submission payload when
// one was given. One record, targeted by primary key.
func (c *Coordinator) updateStatus(ctx context.Context, sub modal.TaskSubmission, target modal.SubmissionStatus, reason string) error {
	patch := map[string]any{"status": target}
	if reason != "" {
		patch["payload"] = payloadWithReviewNote(sub.Payload, target, reason)
	}
	return c.store.Update(ctx, store.CollectionTaskSubmissions, sub.ID, patch)
}

// payloadWithReviewNote copies the payload and merges exactly one key into
// its nested metadata map: rejection_reason when rejecting, approval_note
// when approving. Existing metadata keys survive unless the same key is
// written again.
func payloadWithReviewNote(payload map[string]any, target modal.SubmissionStatus, reason string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}

	meta := make(map[string]any)
	if prev, ok := out["metadata"].(map[string]any); ok {
		for k, v := range prev {
			meta[k] = v
		}
	}

	key := "approval_note"
	if target == modal.SubmissionRejected {
		key = "rejection_reason"
	}
	meta[key] = reason

	out["metadata"] = meta
	return out
}
