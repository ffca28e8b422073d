package activities

import (
	"context"

	"github.com/shopspring/decimal"

	"cookiemail-rewards/internal/modal"
)

// PayoutGateway moves real money. In the real system this would call the
// payment provider adapter; the worker wires a stub until that adapter
// lands.
type PayoutGateway interface {
	Send(ctx context.Context, userID string, amount decimal.Decimal, method string) (modal.PayoutStatus, error)
}

// StaticGateway answers every payout with a fixed status.
type StaticGateway struct {
	Status modal.PayoutStatus
}

func (g StaticGateway) Send(ctx context.Context, userID string, amount decimal.Decimal, method string) (modal.PayoutStatus, error) {
	return g.Status, nil
}
