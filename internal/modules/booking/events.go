// README: booking.created events published to Kafka.
package booking

import (
	"context"
	"encoding/json"
	"time"
)

const EventCreated = "booking.created"

// Publisher is satisfied by infra.Producer.
type Publisher interface {
	SendMessage(ctx context.Context, key, value []byte) error
}

type Event struct {
	Type       string    `json:"type"`
	Booking    Booking   `json:"booking"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newCreatedEvent(b Booking, at time.Time) ([]byte, error) {
	return json.Marshal(Event{Type: EventCreated, Booking: b, OccurredAt: at.UTC()})
}
