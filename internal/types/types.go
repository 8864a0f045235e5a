// README: Common value objects shared by the booking and trip modules.
package types

import (
	"github.com/google/uuid"
)

// ID is an opaque identifier for sessions, bookings and catalog trips.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// ParseID reports whether v is a well-formed identifier.
func ParseID(v string) (ID, bool) {
	u, err := uuid.Parse(v)
	if err != nil {
		return "", false
	}
	return ID(u.String()), true
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
