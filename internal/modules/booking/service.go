// README: Booking service; validates, persists and announces bookings.
package booking

import (
	"context"
	"errors"
	"time"

	"tripchat/internal/logger"
	"tripchat/internal/observability"
	"tripchat/internal/types"
)

var (
	ErrNotFound   = errors.New("booking not found")
	ErrBadRequest = errors.New("bad request")
)

// Repository is implemented by Store.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	List(ctx context.Context) ([]Booking, error)
}

// DefaultPublishTimeout bounds one event publish. Bookings are created inside a
// locked dialog turn, which must finish well within the session lock TTL.
const DefaultPublishTimeout = 2 * time.Second

type Service struct {
	store          Repository
	events         Publisher
	log            *logger.Logger
	now            func() time.Time
	publishTimeout time.Duration
}

// NewService wires the booking store. events may be nil when no broker is configured.
func NewService(store Repository, events Publisher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, events: events, log: log, now: time.Now, publishTimeout: DefaultPublishTimeout}
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	transport, err := cmd.normalize()
	if err != nil {
		return nil, err
	}
	b := &Booking{
		ID:            types.NewID(),
		FromCity:      cmd.FromCity,
		ToCity:        cmd.ToCity,
		Date:          cmd.Date,
		Passengers:    cmd.Passengers,
		TransportType: transport,
		TransportCode: transport.Code(),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.Create(ctx, b); err != nil {
		return nil, err
	}
	observability.BookingsCreated.Inc()
	s.publish(ctx, *b)
	return b, nil
}

// publish is best effort; the booking row is the source of truth.
func (s *Service) publish(ctx context.Context, b Booking) {
	if s.events == nil {
		return
	}
	payload, err := newCreatedEvent(b, s.now())
	if err != nil {
		s.log.Error("encode booking event", "booking_id", b.ID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()
	if err := s.events.SendMessage(ctx, []byte(b.ID), payload); err != nil {
		s.log.Warn("publish booking event", "booking_id", b.ID, "error", err)
	}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Booking, error) {
	return s.store.List(ctx)
}
