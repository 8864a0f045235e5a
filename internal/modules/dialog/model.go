// README: Dialog session, routes and the reply returned for each turn.
package dialog

import (
	"encoding/json"
	"time"

	"tripchat/internal/modules/slots"
	"tripchat/internal/modules/trip"
	"tripchat/internal/types"
)

type Session struct {
	ID        types.ID    `json:"id"`
	State     slots.State `json:"slot_state"`
	Active    bool        `json:"is_active"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Route names the handler a turn was dispatched to.
type Route string

const (
	RouteCityConfirmation  Route = "awaiting_city_confirmation"
	RouteCorrecting        Route = "correcting"
	RouteFinalConfirmation Route = "awaiting_final_confirmation"
	RouteAllFilled         Route = "all_filled_transition"
	RouteAskingSlot        Route = "asking_slot"
	RouteFallback          Route = "fallback"
	RouteReset             Route = "reset"
)

type TurnRequest struct {
	SessionID types.ID
	Message   string
}

// Order echoes the five slots of a finalized booking.
type Order struct {
	FromCity      string          `json:"from_city"`
	ToCity        string          `json:"to_city"`
	Date          string          `json:"date"`
	Passengers    int             `json:"passengers"`
	TransportType slots.Transport `json:"transport_type"`
}

func orderFrom(s slots.State) *Order {
	return &Order{
		FromCity:      s.FromCity,
		ToCity:        s.ToCity,
		Date:          s.Date,
		Passengers:    s.Passengers,
		TransportType: s.TransportType,
	}
}

type Reply struct {
	SessionID    types.ID  `json:"session_id"`
	Route        Route     `json:"route"`
	Text         string    `json:"response"`
	Messages     []Message `json:"messages"`
	AllFilled    bool      `json:"all_filled"`
	Finished     bool      `json:"finished,omitempty"`
	Confirmation bool      `json:"confirmation,omitempty"`
	Order        *Order    `json:"order,omitempty"`
	BookingID    types.ID  `json:"booking_id,omitempty"`
}

// Message is one rendered part of a reply: plain text or a list of trips.
type Message interface {
	isMessage()
}

type TextMessage struct {
	Text string
}

type TripListMessage struct {
	Trips []trip.Trip
}

func (TextMessage) isMessage()     {}
func (TripListMessage) isMessage() {}

func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"text", m.Text})
}

func (m TripListMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string      `json:"type"`
		Trips []trip.Trip `json:"trips"`
	}{"trip_list", m.Trips})
}
