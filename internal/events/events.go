// internal/events/events.go
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted after a ledger mutation has been committed.
const (
	TypeTransactionRecorded = "transaction.recorded"
	TypeTransactionRemoved  = "transaction.removed"
	TypeSettingsUpdated     = "settings.updated"
)

// Event is the envelope published to the configured broker.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// NewEvent wraps a payload with a fresh id and timestamp.
func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// JSON encodes the event envelope.
func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers ledger events. Delivery is best effort: the ledger never
// rolls back a committed change because publishing failed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }
