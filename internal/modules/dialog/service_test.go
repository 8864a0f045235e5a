// README: Dialog state machine tests against in-memory collaborators.
package dialog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/gazetteer"
	"tripchat/internal/modules/slots"
	"tripchat/internal/modules/trip"
	"tripchat/internal/types"
)

type memSessions struct {
	mu        sync.Mutex
	rows      map[types.ID]*Session
	updates   int
	failWrite error
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[types.ID]*Session)}
}

func (m *memSessions) Get(_ context.Context, id types.ID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Create(_ context.Context, state slots.State) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{ID: types.NewID(), State: state, Active: true, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.rows[s.ID] = s
	cp := *s
	return &cp, nil
}

func (m *memSessions) Update(_ context.Context, id types.ID, state slots.State) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return nil, m.failWrite
	}
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return nil, ErrSessionNotFound
	}
	s.State = state
	s.UpdatedAt = time.Now()
	m.updates++
	cp := *s
	return &cp, nil
}

func (m *memSessions) Deactivate(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return ErrSessionNotFound
	}
	s.Active = false
	return nil
}

func (m *memSessions) state(t *testing.T, id types.ID) slots.State {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		t.Fatalf("session %s not stored", id)
	}
	return s.State
}

type memBookings struct {
	mu      sync.Mutex
	created []booking.CreateCommand
	err     error
}

func (m *memBookings) Create(_ context.Context, cmd booking.CreateCommand) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.created = append(m.created, cmd)
	return &booking.Booking{ID: types.NewID(), FromCity: cmd.FromCity, ToCity: cmd.ToCity, Date: cmd.Date}, nil
}

type stubTrips struct {
	trips []trip.Trip
	err   error
}

func (s stubTrips) ForBooking(context.Context, string, string, string, int, slots.Transport) ([]trip.Trip, error) {
	return s.trips, s.err
}

var testNow = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

type harness struct {
	svc      *Service
	sessions *memSessions
	bookings *memBookings
	id       types.ID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{sessions: newMemSessions(), bookings: &memBookings{}}
	h.svc = NewService(Deps{
		Sessions: h.sessions,
		Bookings: h.bookings,
		Locker:   NewLocalLocker(),
		Parser:   slots.NewParser(gazetteer.Default(), testNow),
	})
	return h
}

func (h *harness) send(t *testing.T, message string) *Reply {
	t.Helper()
	r, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: message})
	if err != nil {
		t.Fatalf("turn %q: %v", message, err)
	}
	if h.id != "" && r.SessionID != h.id {
		t.Fatalf("turn %q: session changed from %s to %s", message, h.id, r.SessionID)
	}
	h.id = r.SessionID
	return r
}

const fullMessage = "Хочу из Минска в Москву 15.08 на поезде для 2 пассажиров"

func TestScenarioOneTurnFillsEverySlot(t *testing.T) {
	h := newHarness(t)
	r := h.send(t, fullMessage)

	if !r.AllFilled || !r.Confirmation {
		t.Fatalf("reply = %+v, want confirmation summary", r)
	}
	if !strings.HasPrefix(r.Text, "Проверьте, пожалуйста, все данные заказа") {
		t.Fatalf("text = %q", r.Text)
	}
	want := slots.State{
		FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2,
		TransportType: slots.TransportTrain, ConfirmationStage: true,
	}
	if got := h.sessions.state(t, h.id); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
}

func TestScenarioYesCreatesOneBooking(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	r := h.send(t, "да")

	if !r.Finished || r.Order == nil {
		t.Fatalf("reply = %+v, want finished with order", r)
	}
	if len(h.bookings.created) != 1 {
		t.Fatalf("bookings = %d, want 1", len(h.bookings.created))
	}
	want := booking.CreateCommand{FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2, TransportType: "поезд"}
	if h.bookings.created[0] != want {
		t.Fatalf("booking = %+v, want %+v", h.bookings.created[0], want)
	}
	if *r.Order != (Order{FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2, TransportType: slots.TransportTrain}) {
		t.Fatalf("order echo = %+v", r.Order)
	}
	if h.sessions.state(t, h.id).ConfirmationStage {
		t.Fatal("confirmation stage still set after booking")
	}
}

func TestScenarioCorrectionChangesOnlyDate(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)

	r := h.send(t, "нет")
	if !strings.HasPrefix(r.Text, "Что вы хотите исправить?") {
		t.Fatalf("text = %q", r.Text)
	}
	if r.AllFilled {
		t.Fatal("all_filled reported while entering correction")
	}
	if st := h.sessions.state(t, h.id); !st.CorrectionMode || st.ConfirmationStage {
		t.Fatalf("state after нет = %+v", st)
	}

	r = h.send(t, "дата 20.09")
	if !r.Confirmation || !strings.Contains(r.Text, "Дата: 20-09-2026") {
		t.Fatalf("reply = %+v, want summary with new date", r)
	}
	want := slots.State{
		FromCity: "Минск", ToCity: "Москва", Date: "20-09-2026", Passengers: 2,
		TransportType: slots.TransportTrain, ConfirmationStage: true,
	}
	if got := h.sessions.state(t, h.id); got != want {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if len(h.bookings.created) != 0 {
		t.Fatal("correction must not book")
	}
}

func TestScenarioFuzzyCityConfirmation(t *testing.T) {
	h := newHarness(t)
	r := h.send(t, "из Мнск")
	if r.Route != RouteCityConfirmation || r.Text != "Вы имели в виду город Минск? (да/нет)" {
		t.Fatalf("reply = %+v", r)
	}
	st := h.sessions.state(t, h.id)
	if st.CityCandidate != "Минск" || st.CityCandidateType != slots.FromCity || st.FromCity != "" {
		t.Fatalf("state = %+v", st)
	}

	r = h.send(t, "да")
	if r.Text != SlotQuestion(slots.ToCity) {
		t.Fatalf("text = %q, want to_city question", r.Text)
	}
	st = h.sessions.state(t, h.id)
	if st.FromCity != "Минск" || st.HasCandidate() {
		t.Fatalf("state = %+v", st)
	}
}

func TestScenarioResetFromAnyStage(t *testing.T) {
	setups := map[string][]string{
		"fresh":             nil,
		"confirmation":      {fullMessage},
		"correction":        {fullMessage, "нет"},
		"city confirmation": {"из Мнск"},
	}
	for name, msgs := range setups {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			for _, m := range msgs {
				h.send(t, m)
			}
			r := h.send(t, "Начать заново")
			if r.Route != RouteReset || r.Text != SlotQuestion(slots.FromCity) || r.AllFilled {
				t.Fatalf("reply = %+v", r)
			}
			if st := h.sessions.state(t, h.id); st != (slots.State{}) {
				t.Fatalf("state not cleared: %+v", st)
			}
		})
	}
}

func TestSlotBySlotDialog(t *testing.T) {
	h := newHarness(t)
	steps := []struct {
		msg  string
		want string
	}{
		{"привет, хочу поехать в Брест", SlotQuestion(slots.FromCity)},
		{"Минск", SlotQuestion(slots.Date)},
		{"3 мая", SlotQuestion(slots.Passengers)},
		{"4", SlotQuestion(slots.TransportType)},
		{"автобус", ""},
	}
	var r *Reply
	for _, s := range steps {
		r = h.send(t, s.msg)
		if s.want != "" && r.Text != s.want {
			t.Fatalf("after %q: text = %q, want %q", s.msg, r.Text, s.want)
		}
	}
	if !r.Confirmation {
		t.Fatalf("final reply = %+v, want summary", r)
	}
	st := h.sessions.state(t, h.id)
	if st.FromCity != "Минск" || st.ToCity != "Брест" || st.Date != "03-05-2026" || st.Passengers != 4 || st.TransportType != slots.TransportBus {
		t.Fatalf("state = %+v", st)
	}
}

func TestCityRejectedAsksAgain(t *testing.T) {
	h := newHarness(t)
	h.send(t, "из Мнск")
	r := h.send(t, "нет")
	if r.Text != textCityRetry {
		t.Fatalf("text = %q", r.Text)
	}
	if st := h.sessions.state(t, h.id); st.HasCandidate() || st.FromCity != "" {
		t.Fatalf("state = %+v", st)
	}
}

func TestCityConfirmationRepeatsOnOtherReply(t *testing.T) {
	h := newHarness(t)
	h.send(t, "из Мнск")
	r := h.send(t, "может быть")
	if r.Text != "Вы имели в виду город Минск? (да/нет)" {
		t.Fatalf("text = %q", r.Text)
	}
}

func TestCorrectionByFieldName(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	h.send(t, "нет")
	r := h.send(t, "количество пассажиров")
	if r.Text != textClarify {
		t.Fatalf("text = %q", r.Text)
	}
	st := h.sessions.state(t, h.id)
	if st.Passengers != 0 || st.CorrectionMode {
		t.Fatalf("state = %+v", st)
	}
	r = h.send(t, "3")
	if !r.Confirmation || !strings.Contains(r.Text, "Пассажиров: 3") {
		t.Fatalf("reply = %+v", r)
	}
}

func TestCorrectionUnrecognizedKeepsState(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	h.send(t, "нет")
	before := h.sessions.state(t, h.id)
	updates := h.sessions.updates

	r := h.send(t, "ну не знаю")
	if r.Text != textCorrectionPrompt {
		t.Fatalf("text = %q", r.Text)
	}
	if after := h.sessions.state(t, h.id); after != before || h.sessions.updates != updates {
		t.Fatalf("state changed on unrecognized correction: %+v", after)
	}
}

func TestCorrectionWithFuzzyCityConfirmsThenSummarizes(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	h.send(t, "нет")
	r := h.send(t, "в Масква")
	if r.Route != RouteCityConfirmation {
		t.Fatalf("reply = %+v", r)
	}
	r = h.send(t, "да")
	if !r.Confirmation {
		t.Fatalf("reply = %+v, want summary after confirming corrected city", r)
	}
	if len(h.bookings.created) != 0 {
		t.Fatal("confirming a city must not book")
	}
}

func TestNoBookingWithoutExplicitYes(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	for _, msg := range []string{fullMessage, "на самолете", "конечно", "Да, всё верно"} {
		r := h.send(t, msg)
		if r.Finished {
			t.Fatalf("%q finished the dialog", msg)
		}
	}
	if len(h.bookings.created) != 0 {
		t.Fatalf("bookings = %d, want 0", len(h.bookings.created))
	}
	if st := h.sessions.state(t, h.id); st.TransportType != slots.TransportAirplane {
		t.Fatalf("transport = %q, want updated slot with gate still closed", st.TransportType)
	}
}

func TestBookingFailureDiscardsTurn(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	before := h.sessions.state(t, h.id)
	h.bookings.err = errors.New("db down")

	_, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: "да"})
	if err == nil {
		t.Fatal("expected error")
	}
	if after := h.sessions.state(t, h.id); after != before {
		t.Fatalf("state written despite failure: %+v", after)
	}
}

func TestSessionWriteFailurePropagates(t *testing.T) {
	h := newHarness(t)
	h.send(t, "из Минска")
	h.sessions.failWrite = errors.New("db down")
	if _, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: "в Москву"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSessionWriteFailureOnConfirmationBooksOnce(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)

	h.sessions.failWrite = errors.New("db down")
	if _, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: "да"}); err == nil {
		t.Fatal("expected error")
	}
	if len(h.bookings.created) != 0 {
		t.Fatalf("bookings = %d after failed turn, want 0", len(h.bookings.created))
	}

	h.sessions.failWrite = nil
	r := h.send(t, "да")
	if !r.Finished {
		t.Fatalf("retry reply = %+v, want finished", r)
	}
	h.send(t, "да")
	if len(h.bookings.created) != 1 {
		t.Fatalf("bookings = %d, want 1", len(h.bookings.created))
	}
}

func TestBookingFailureReopensConfirmation(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	h.bookings.err = errors.New("db down")
	if _, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: "да"}); err == nil {
		t.Fatal("expected error")
	}
	if !h.sessions.state(t, h.id).ConfirmationStage {
		t.Fatal("confirmation stage not restored after failed booking")
	}

	h.bookings.err = nil
	if r := h.send(t, "да"); !r.Finished {
		t.Fatalf("reply = %+v, want finished", r)
	}
	if len(h.bookings.created) != 1 {
		t.Fatalf("bookings = %d, want 1", len(h.bookings.created))
	}
}

func TestFinalConfirmationAcceptsEnglishYes(t *testing.T) {
	h := newHarness(t)
	h.send(t, fullMessage)
	if r := h.send(t, "yes"); !r.Finished || len(h.bookings.created) != 1 {
		t.Fatalf("reply = %+v, bookings = %d", r, len(h.bookings.created))
	}
}

func TestMessageRequired(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.HandleTurn(context.Background(), TurnRequest{Message: "   "})
	if !errors.Is(err, ErrMessageRequired) {
		t.Fatalf("err = %v, want ErrMessageRequired", err)
	}
	if len(h.sessions.rows) != 0 {
		t.Fatal("session created for an empty message")
	}
}

func TestUnknownOrInactiveSessionStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.send(t, "из Минска")
	old := h.id
	if err := h.svc.DeactivateSession(context.Background(), old); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	for _, id := range []types.ID{old, "not-a-uuid", types.NewID()} {
		r, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: id, Message: "в Москву"})
		if err != nil {
			t.Fatalf("turn: %v", err)
		}
		if r.SessionID == old || r.SessionID == id {
			t.Fatalf("session %s reused", id)
		}
		if st := h.sessions.state(t, r.SessionID); st.FromCity != "" || st.ToCity != "Москва" {
			t.Fatalf("state = %+v", st)
		}
	}
}

func TestTripListAfterBooking(t *testing.T) {
	h := newHarness(t)
	found := []trip.Trip{{ID: types.NewID(), Number: "T-1", TransportCode: "train"}}
	h.svc.trips = stubTrips{trips: found}

	h.send(t, fullMessage)
	r := h.send(t, "да")
	if len(r.Messages) != 2 {
		t.Fatalf("messages = %d, want text and trip list", len(r.Messages))
	}
	if _, ok := r.Messages[0].(TextMessage); !ok {
		t.Fatalf("first message = %T", r.Messages[0])
	}
	list, ok := r.Messages[1].(TripListMessage)
	if !ok || len(list.Trips) != 1 || list.Trips[0].Number != "T-1" {
		t.Fatalf("second message = %#v", r.Messages[1])
	}
}

func TestTripLookupFailureStillBooks(t *testing.T) {
	h := newHarness(t)
	h.svc.trips = stubTrips{err: errors.New("catalog down")}
	h.send(t, fullMessage)
	r := h.send(t, "да")
	if !r.Finished || len(r.Messages) != 1 {
		t.Fatalf("reply = %+v", r)
	}
}

func TestConcurrentTurnsOnOneSessionSerialize(t *testing.T) {
	h := newHarness(t)
	h.send(t, "из Минска")

	msgs := []string{"в Москву", "15.08", "2 пассажира", "на поезде"}
	var wg sync.WaitGroup
	errs := make(chan error, len(msgs))
	start := make(chan struct{})
	for _, m := range msgs {
		wg.Add(1)
		go func(msg string) {
			defer wg.Done()
			<-start
			_, err := h.svc.HandleTurn(context.Background(), TurnRequest{SessionID: h.id, Message: msg})
			errs <- err
		}(m)
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("turn: %v", err)
		}
	}

	st := h.sessions.state(t, h.id)
	if !st.Complete() {
		t.Fatalf("lost update under concurrency: %+v", st)
	}
}
