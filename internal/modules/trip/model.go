// README: Trip catalog entries (flights, trains, buses) and search filters.
package trip

import (
	"time"

	"tripchat/internal/types"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOnTime    Status = "on_time"
	StatusDelayed   Status = "delayed"
	StatusCancelled Status = "cancelled"
)

type Trip struct {
	ID             types.ID    `json:"id"`
	Number         string      `json:"number"`
	TransportCode  string      `json:"transport_type"`
	DepartureCity  string      `json:"departure_city"`
	ArrivalCity    string      `json:"arrival_city"`
	DepartureTime  time.Time   `json:"departure_time"`
	ArrivalTime    time.Time   `json:"arrival_time"`
	AvailableSeats int         `json:"available_seats"`
	Price          types.Money `json:"price"`
	Status         Status      `json:"status"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Filter narrows a catalog search. Zero values are ignored; cities match as
// case-insensitive substrings.
type Filter struct {
	DepartureCity string
	ArrivalCity   string
	// DepartureDate selects trips leaving on that calendar day (UTC).
	DepartureDate *time.Time
	MinSeats      int
	// TransportCode is one of train, bus, airplane.
	TransportCode string
}

type CreateCommand struct {
	Number         string
	TransportType  string
	DepartureCity  string
	ArrivalCity    string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	AvailableSeats int
	Price          types.Money
	Status         Status
}
