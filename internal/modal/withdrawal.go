package modal

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalRequest struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Amount      decimal.Decimal  `json:"amount"`
	Method      string           `json:"method"`
	Status      WithdrawalStatus `json:"status"`
	RequestedAt time.Time        `json:"requested_at"`
}

// PayoutCase is the evidence bundle a reviewer (or the auto-approval rule)
// decides a withdrawal on.
type PayoutCase struct {
	WithdrawalID   string          `json:"withdrawalId"`
	UserID         string          `json:"userId"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	WalletBalance  decimal.Decimal `json:"walletBalance"`
	AutoApprovable bool            `json:"autoApprovable"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

type ReviewTask struct {
	ID           string    `json:"id"`
	WithdrawalID string    `json:"withdrawalId"`
	Title        string    `json:"title"`
	Reason       string    `json:"reason"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ReviewDecision struct {
	TaskID    string    `json:"taskId"`
	Approved  bool      `json:"approved"`
	Notes     string    `json:"notes"`
	DecidedAt time.Time `json:"decidedAt"`
	Decider   string    `json:"decider"`
}
