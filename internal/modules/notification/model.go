// README: Notification events emitted by the matching engine; delivery is up to the sinks.
package notification

import (
	"context"
	"time"

	"relay/internal/types"
)

type Type string

const (
	TypeRequestReceived  Type = "REQUEST_RECEIVED"
	TypeRequestAccepted  Type = "REQUEST_ACCEPTED"
	TypeRequestRejected  Type = "REQUEST_REJECTED"
	TypeRequestCancelled Type = "REQUEST_CANCELLED"
	TypePaymentRequired  Type = "PAYMENT_REQUIRED"
)

type Notification struct {
	ID        types.ID       `json:"id"`
	UserID    types.ID       `json:"user_id"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Notifier delivers fire-and-forget events. Callers log failures and move on.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
