// README: Dialog service; runs one turn of the slot-filling state machine per message.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/slots"
	"tripchat/internal/modules/trip"
	"tripchat/internal/observability"
	"tripchat/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrMessageRequired = errors.New("message is required")
)

// SessionStore persists sessions. Get only returns active sessions.
type SessionStore interface {
	Get(ctx context.Context, id types.ID) (*Session, error)
	Create(ctx context.Context, state slots.State) (*Session, error)
	Update(ctx context.Context, id types.ID, state slots.State) (*Session, error)
	Deactivate(ctx context.Context, id types.ID) error
}

type BookingSink interface {
	Create(ctx context.Context, cmd booking.CreateCommand) (*booking.Booking, error)
}

type TripFinder interface {
	ForBooking(ctx context.Context, from, to, date string, passengers int, transport slots.Transport) ([]trip.Trip, error)
}

// Locker serializes turns of one session.
type Locker interface {
	Lock(ctx context.Context, id types.ID) (unlock func(), err error)
}

type Deps struct {
	Sessions SessionStore
	Bookings BookingSink
	// Trips and Locker are optional.
	Trips  TripFinder
	Locker Locker
	Parser *slots.Parser
	Log    *logger.Logger
}

type Service struct {
	sessions SessionStore
	bookings BookingSink
	trips    TripFinder
	locker   Locker
	parser   *slots.Parser
	log      *logger.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		sessions: d.Sessions,
		bookings: d.Bookings,
		trips:    d.Trips,
		locker:   d.Locker,
		parser:   d.Parser,
		log:      log,
	}
}

// turn carries the working state of one message. Only book writes before the
// turn completes; saved tracks what the store holds.
type turn struct {
	id    types.ID
	state slots.State
	saved slots.State
	reply Reply
}

func (t *turn) say(route Route, text string) {
	t.reply.Route = route
	t.reply.Text = text
	t.reply.AllFilled = t.state.Complete()
}

func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (*Reply, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}

	if req.SessionID != "" {
		unlock, err := s.lock(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("lock session: %w", err)
		}
		defer unlock()
	}

	sess, err := s.resolveSession(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	t := &turn{id: sess.ID, state: sess.State, saved: sess.State}
	if isReset(message) {
		t.state = slots.State{}
		t.say(RouteReset, s.firstQuestion(t.state))
	} else {
		if !t.state.CorrectionMode {
			u := s.parser.Parse(message, expectedSlot(t.state))
			recordCityOutcome(u)
			t.state = t.state.Apply(u)
		}
		if err := s.dispatch(ctx, t, message); err != nil {
			return nil, err
		}
	}

	if t.state != t.saved {
		if _, err := s.sessions.Update(ctx, sess.ID, t.state); err != nil {
			return nil, fmt.Errorf("update session: %w", err)
		}
	}

	t.reply.SessionID = sess.ID
	t.reply.Messages = append([]Message{TextMessage{Text: t.reply.Text}}, t.reply.Messages...)
	observability.DialogTurns.WithLabelValues(string(t.reply.Route)).Inc()
	s.log.Debug("dialog turn", "session_id", sess.ID, "route", t.reply.Route, "all_filled", t.reply.AllFilled)
	return &t.reply, nil
}

func (s *Service) resolveSession(ctx context.Context, id types.ID) (*Session, error) {
	if _, ok := types.ParseID(string(id)); ok {
		sess, err := s.sessions.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("load session: %w", err)
		}
	}
	sess, err := s.sessions.Create(ctx, slots.State{})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// dispatch routes the current state. Cascading handlers call it again with an
// empty message so no yes/no is evaluated twice.
func (s *Service) dispatch(ctx context.Context, t *turn, message string) error {
	switch RouteFor(t.state) {
	case RouteCityConfirmation:
		return s.confirmCity(ctx, t, message)
	case RouteCorrecting:
		return s.correct(ctx, t, message)
	case RouteFinalConfirmation:
		return s.confirmOrder(ctx, t, message)
	case RouteAllFilled:
		s.summary(t)
		return nil
	case RouteAskingSlot:
		s.askSlot(t)
		return nil
	default:
		t.say(RouteFallback, fallbackText(t.state))
		return nil
	}
}

func (s *Service) confirmCity(ctx context.Context, t *turn, message string) error {
	if t.state.CityCandidateType != slots.FromCity && t.state.CityCandidateType != slots.ToCity {
		t.state.ClearCandidate()
		t.say(RouteCityConfirmation, textCityRequired)
		return nil
	}
	switch slots.ParseAnswer(message) {
	case slots.AnswerYes:
		t.state.CommitCandidate()
		observability.CityResolutions.WithLabelValues("confirmed").Inc()
		return s.dispatch(ctx, t, "")
	case slots.AnswerNo:
		t.state.ClearCandidate()
		observability.CityResolutions.WithLabelValues("rejected").Inc()
		t.say(RouteCityConfirmation, textCityRetry)
	default:
		t.say(RouteCityConfirmation, fmt.Sprintf(textCityQuestion, t.state.CityCandidate))
	}
	return nil
}

// correct owns extraction while correction mode is on: the message is parsed
// without a hint and compared with the slots before the turn.
func (s *Service) correct(ctx context.Context, t *turn, message string) error {
	if message == "" {
		t.say(RouteCorrecting, textWhatToFix)
		return nil
	}

	u := s.parser.Parse(message, "")
	recordCityOutcome(u)
	next := t.state.Apply(u)
	if slotsChanged(t.state, next) || u.CityCandidate != nil {
		next.CorrectionMode = false
		t.state = next
		return s.dispatch(ctx, t, "")
	}

	if target, ok := slots.CorrectionTarget(message); ok {
		t.state.Clear(target)
		t.state.CorrectionMode = false
		t.say(RouteCorrecting, textClarify)
		return nil
	}

	t.say(RouteCorrecting, textCorrectionPrompt)
	return nil
}

// confirmOrder is the only path to a booking. ParseAnswer accepts "yes" and "no"
// next to «да» and «нет», so the gate opens on either yes word.
func (s *Service) confirmOrder(ctx context.Context, t *turn, message string) error {
	switch slots.ParseAnswer(message) {
	case slots.AnswerYes:
		if !t.state.Complete() {
			t.state.ConfirmationStage = false
			s.askSlot(t)
			return nil
		}
		return s.book(ctx, t)
	case slots.AnswerNo:
		t.state.ConfirmationStage = false
		t.state.CorrectionMode = true
		t.say(RouteFinalConfirmation, textWhatToFix)
		t.reply.AllFilled = false
		return nil
	default:
		s.summary(t)
		t.reply.Route = RouteFinalConfirmation
		return nil
	}
}

// book closes the confirmation gate in the store before the booking row is
// written, so a failed turn can be retried without booking twice. A failed
// booking reopens the gate.
func (s *Service) book(ctx context.Context, t *turn) error {
	st := t.state
	closed := st
	closed.ConfirmationStage = false
	if _, err := s.sessions.Update(ctx, t.id, closed); err != nil {
		return fmt.Errorf("close confirmation: %w", err)
	}
	t.saved = closed

	b, err := s.bookings.Create(ctx, booking.CreateCommand{
		FromCity:      st.FromCity,
		ToCity:        st.ToCity,
		Date:          st.Date,
		Passengers:    st.Passengers,
		TransportType: string(st.TransportType),
	})
	if err != nil {
		if _, rerr := s.sessions.Update(context.WithoutCancel(ctx), t.id, st); rerr != nil {
			s.log.Error("reopen confirmation after failed booking", "session_id", t.id, "error", rerr)
		}
		return fmt.Errorf("create booking: %w", err)
	}

	t.state = closed
	t.say(RouteFinalConfirmation, bookedText(st))
	t.reply.Finished = true
	t.reply.Order = orderFrom(st)
	t.reply.BookingID = b.ID

	if s.trips == nil {
		return nil
	}
	found, err := s.trips.ForBooking(ctx, st.FromCity, st.ToCity, st.Date, st.Passengers, st.TransportType)
	if err != nil {
		s.log.Warn("trip lookup after booking", "booking_id", b.ID, "error", err)
		return nil
	}
	if len(found) > 0 {
		t.reply.Messages = append(t.reply.Messages, TripListMessage{Trips: found})
	}
	return nil
}

// summary enters the final confirmation stage and renders all five slots.
func (s *Service) summary(t *turn) {
	t.state.ConfirmationStage = true
	t.say(RouteAllFilled, summaryText(t.state))
	t.reply.Confirmation = true
}

func (s *Service) askSlot(t *turn) {
	n, ok := t.state.Missing()
	if !ok {
		t.say(RouteFallback, fallbackText(t.state))
		return
	}
	t.say(RouteAskingSlot, SlotQuestion(n))
}

func (s *Service) firstQuestion(st slots.State) string {
	if n, ok := st.Missing(); ok {
		return SlotQuestion(n)
	}
	return textStart
}

// expectedSlot is the hint for bare replies. A pending city question takes the
// reply as yes/no, so no slot is expected then.
func expectedSlot(st slots.State) slots.Name {
	if st.HasCandidate() {
		return ""
	}
	n, _ := st.Missing()
	return n
}

func slotsChanged(a, b slots.State) bool {
	for _, n := range slots.Order {
		if a.Value(n) != b.Value(n) {
			return true
		}
	}
	return false
}

func recordCityOutcome(u slots.Update) {
	if u.FromCity != nil || u.ToCity != nil {
		observability.CityResolutions.WithLabelValues("committed").Inc()
	}
	if u.CityCandidate != nil {
		observability.CityResolutions.WithLabelValues("candidate").Inc()
	}
}
