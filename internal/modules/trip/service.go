// README: Trip catalog service; normalizes transport labels and search input.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

var (
	ErrNotFound   = errors.New("trip not found")
	ErrBadRequest = errors.New("bad request")
)

// SearchDateLayout is the format of the departure_date query filter.
const SearchDateLayout = "2006-01-02"

const defaultCurrency = "BYN"

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	Get(ctx context.Context, id types.ID) (*Trip, error)
	Search(ctx context.Context, f Filter) ([]Trip, error)
}

type Service struct {
	store Repository
	now   func() time.Time
}

func NewService(store Repository) *Service {
	return &Service{store: store, now: time.Now}
}

// NormalizeTransport maps a label or code to its catalog code.
func NormalizeTransport(v string) (string, error) {
	t, ok := slots.TransportFromAny(v)
	if !ok {
		return "", fmt.Errorf("%w: unknown transport %q", ErrBadRequest, v)
	}
	return t.Code(), nil
}

// ParseSearchDate parses the YYYY-MM-DD departure_date filter.
func ParseSearchDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := time.Parse(SearchDateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("%w: departure_date must be YYYY-MM-DD", ErrBadRequest)
	}
	return &d, nil
}

func (s *Service) Search(ctx context.Context, f Filter) ([]Trip, error) {
	if f.TransportCode != "" {
		code, err := NormalizeTransport(f.TransportCode)
		if err != nil {
			return nil, err
		}
		f.TransportCode = code
	}
	if f.MinSeats < 0 {
		return nil, fmt.Errorf("%w: min_seats must not be negative", ErrBadRequest)
	}
	f.DepartureCity = strings.TrimSpace(f.DepartureCity)
	f.ArrivalCity = strings.TrimSpace(f.ArrivalCity)
	return s.store.Search(ctx, f)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Trip, error) {
	if cmd.Number == "" || cmd.DepartureCity == "" || cmd.ArrivalCity == "" {
		return nil, fmt.Errorf("%w: number and both cities are required", ErrBadRequest)
	}
	if cmd.DepartureTime.IsZero() || !cmd.ArrivalTime.After(cmd.DepartureTime) {
		return nil, fmt.Errorf("%w: arrival must be after departure", ErrBadRequest)
	}
	if cmd.AvailableSeats < 0 || cmd.Price.Amount < 0 {
		return nil, fmt.Errorf("%w: seats and price must not be negative", ErrBadRequest)
	}
	code, err := NormalizeTransport(cmd.TransportType)
	if err != nil {
		return nil, err
	}
	status := cmd.Status
	if status == "" {
		status = StatusScheduled
	}
	price := cmd.Price
	if price.Currency == "" {
		price.Currency = defaultCurrency
	}
	now := s.now().UTC()
	t := &Trip{
		ID:             types.NewID(),
		Number:         cmd.Number,
		TransportCode:  code,
		DepartureCity:  cmd.DepartureCity,
		ArrivalCity:    cmd.ArrivalCity,
		DepartureTime:  cmd.DepartureTime.UTC(),
		ArrivalTime:    cmd.ArrivalTime.UTC(),
		AvailableSeats: cmd.AvailableSeats,
		Price:          price,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ForBooking finds catalog trips for a confirmed dialog: same route, same day,
// enough seats, same transport. date is DD-MM-YYYY.
func (s *Service) ForBooking(ctx context.Context, from, to, date string, passengers int, transport slots.Transport) ([]Trip, error) {
	day, err := time.Parse(slots.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.Search(ctx, Filter{
		DepartureCity: from,
		ArrivalCity:   to,
		DepartureDate: &day,
		MinSeats:      passengers,
		TransportCode: transport.Code(),
	})
}
