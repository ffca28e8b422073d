package modal

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskSubmission is a user's claimed completion of a rewarded task, pending
// administrative review. Payload is whatever the client attached when the
// task was completed; only the nested "metadata" map has documented keys
// (rejection_reason, approval_note).
type TaskSubmission struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	TaskType       string           `json:"task_type"`
	Reward         decimal.Decimal  `json:"reward"`
	Status         SubmissionStatus `json:"status"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	Payload        map[string]any   `json:"payload,omitempty"`
	SubmitterName  *string          `json:"submitter_name,omitempty"`
	SubmitterEmail *string          `json:"submitter_email,omitempty"`
}

type AuditEvent struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
