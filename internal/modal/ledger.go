package modal

import "github.com/shopspring/decimal"

// LedgerEntry is one row of a user's wallet history. The ledger is
// append-only; entries are never updated or deleted, and the store assigns
// the identity on insert.
type LedgerEntry struct {
	UserID      string          `json:"user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        LedgerType      `json:"type"`
	Status      LedgerStatus    `json:"status"`
	Description string          `json:"description"`
}
