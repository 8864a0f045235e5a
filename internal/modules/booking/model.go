// README: Booking record and the validation rules for booking input.
package booking

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

type Booking struct {
	ID            types.ID        `json:"id"`
	FromCity      string          `json:"from_city"`
	ToCity        string          `json:"to_city"`
	Date          string          `json:"date"`
	Passengers    int             `json:"passengers"`
	TransportType slots.Transport `json:"transport_type"`
	TransportCode string          `json:"transport_code"`
	CreatedAt     time.Time       `json:"created_at"`
}

type CreateCommand struct {
	FromCity      string
	ToCity        string
	Date          string
	Passengers    int
	TransportType string
}

const (
	MaxPassengers = 10
	minCityLen    = 2
	maxCityLen    = 50
)

var cityName = regexp.MustCompile(`^[\p{L}\s-]+$`)

// normalize checks the fields every booking must carry, whatever its origin, and
// returns the transport in label form.
func (c CreateCommand) normalize() (slots.Transport, error) {
	if c.FromCity == "" || c.ToCity == "" {
		return "", fmt.Errorf("%w: both cities are required", ErrBadRequest)
	}
	if _, err := time.Parse(slots.DateLayout, c.Date); err != nil {
		return "", fmt.Errorf("%w: date must be DD-MM-YYYY", ErrBadRequest)
	}
	if c.Passengers < 1 {
		return "", fmt.Errorf("%w: passengers must be positive", ErrBadRequest)
	}
	t, ok := slots.TransportFromAny(c.TransportType)
	if !ok {
		return "", fmt.Errorf("%w: transport must be one of поезд, автобус, самолет", ErrBadRequest)
	}
	return t, nil
}

// ValidateInput applies the stricter rules for bookings submitted directly through the API.
func ValidateInput(c CreateCommand) error {
	for _, city := range []string{c.FromCity, c.ToCity} {
		if err := validateCity(city); err != nil {
			return err
		}
	}
	if c.Passengers < 1 || c.Passengers > MaxPassengers {
		return fmt.Errorf("%w: passengers must be between 1 and %d", ErrBadRequest, MaxPassengers)
	}
	_, err := c.normalize()
	return err
}

func validateCity(city string) error {
	if city == "" {
		return fmt.Errorf("%w: city is required", ErrBadRequest)
	}
	if !cityName.MatchString(city) {
		return fmt.Errorf("%w: city may contain only letters, spaces and hyphens", ErrBadRequest)
	}
	if n := utf8.RuneCountInString(city); n < minCityLen || n > maxCityLen {
		return fmt.Errorf("%w: city must be %d to %d characters", ErrBadRequest, minCityLen, maxCityLen)
	}
	return nil
}
