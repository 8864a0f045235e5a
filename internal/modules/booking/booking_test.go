// README: Booking service tests (validation, persistence, events).
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"tripchat/internal/modules/slots"
	"tripchat/internal/testutil"
	"tripchat/internal/types"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[types.ID]Booking
	err  error
}

func newMemRepo() *memRepo { return &memRepo{rows: make(map[types.ID]Booking)} }

func (m *memRepo) Create(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows[b.ID] = *b
	return nil
}

func (m *memRepo) Get(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (m *memRepo) List(context.Context) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Booking, 0, len(m.rows))
	for _, b := range m.rows {
		out = append(out, b)
	}
	return out, nil
}

type recordingPublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *recordingPublisher) SendMessage(_ context.Context, key, value []byte) error {
	p.keys = append(p.keys, string(key))
	p.values = append(p.values, value)
	return p.err
}

func validCommand() CreateCommand {
	return CreateCommand{FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2, TransportType: "поезд"}
}

func TestCreateStoresLabelAndCode(t *testing.T) {
	repo := newMemRepo()
	pub := &recordingPublisher{}
	svc := NewService(repo, pub, nil)

	b, err := svc.Create(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.TransportType != slots.TransportTrain || b.TransportCode != "train" {
		t.Fatalf("transport = %q/%q, want поезд/train", b.TransportType, b.TransportCode)
	}
	got, err := svc.Get(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date != "15-08-2026" || got.Passengers != 2 {
		t.Fatalf("stored booking mismatch: %+v", got)
	}

	if len(pub.values) != 1 || pub.keys[0] != string(b.ID) {
		t.Fatalf("expected one event keyed by booking id, got %v", pub.keys)
	}
	var ev Event
	if err := json.Unmarshal(pub.values[0], &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != EventCreated || ev.Booking.ID != b.ID {
		t.Fatalf("event = %+v", ev)
	}
}

func TestCreateAcceptsTransportCode(t *testing.T) {
	cmd := validCommand()
	cmd.TransportType = "airplane"
	b, err := NewService(newMemRepo(), nil, nil).Create(context.Background(), cmd)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.TransportType != slots.TransportAirplane {
		t.Fatalf("transport = %q, want самолет", b.TransportType)
	}
}

func TestCreateRejectsMalformed(t *testing.T) {
	cases := map[string]func(*CreateCommand){
		"no from":        func(c *CreateCommand) { c.FromCity = "" },
		"bad date":       func(c *CreateCommand) { c.Date = "2026-08-15" },
		"zero travelers": func(c *CreateCommand) { c.Passengers = 0 },
		"unknown mode":   func(c *CreateCommand) { c.TransportType = "телега" },
	}
	for name, mutate := range cases {
		cmd := validCommand()
		mutate(&cmd)
		repo := newMemRepo()
		_, err := NewService(repo, nil, nil).Create(context.Background(), cmd)
		if !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: err = %v, want ErrBadRequest", name, err)
		}
		if len(repo.rows) != 0 {
			t.Errorf("%s: booking stored despite invalid input", name)
		}
	}
}

func TestCreatePublishFailureKeepsBooking(t *testing.T) {
	repo := newMemRepo()
	pub := &recordingPublisher{err: errors.New("broker down")}
	if _, err := NewService(repo, pub, nil).Create(context.Background(), validCommand()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected booking to be stored, got %d rows", len(repo.rows))
	}
}

type stalledPublisher struct {
	deadline bool
}

func (p *stalledPublisher) SendMessage(ctx context.Context, _, _ []byte) error {
	_, p.deadline = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestCreateBoundsStalledPublish(t *testing.T) {
	repo := newMemRepo()
	pub := &stalledPublisher{}
	svc := NewService(repo, pub, nil)
	svc.publishTimeout = 50 * time.Millisecond

	start := time.Now()
	if _, err := svc.Create(context.Background(), validCommand()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("create took %s with a stalled broker", elapsed)
	}
	if !pub.deadline {
		t.Fatal("publish ran without a deadline")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected booking to be stored, got %d rows", len(repo.rows))
	}
}

func TestCreateStoreFailure(t *testing.T) {
	repo := newMemRepo()
	repo.err = errors.New("db down")
	pub := &recordingPublisher{}
	if _, err := NewService(repo, pub, nil).Create(context.Background(), validCommand()); err == nil {
		t.Fatal("expected store error")
	}
	if len(pub.values) != 0 {
		t.Fatal("event published for a booking that was not stored")
	}
}

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateCommand)
		ok     bool
	}{
		{"valid", func(*CreateCommand) {}, true},
		{"hyphenated city", func(c *CreateCommand) { c.ToCity = "Ростов-на-Дону" }, true},
		{"digits in city", func(c *CreateCommand) { c.FromCity = "Минск1" }, false},
		{"one letter city", func(c *CreateCommand) { c.ToCity = "Я" }, false},
		{"eleven passengers", func(c *CreateCommand) { c.Passengers = 11 }, false},
		{"ten passengers", func(c *CreateCommand) { c.Passengers = 10 }, true},
	}
	for _, tc := range cases {
		cmd := validCommand()
		tc.mutate(&cmd)
		err := ValidateInput(cmd)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrBadRequest) {
			t.Errorf("%s: err = %v, want ErrBadRequest", tc.name, err)
		}
	}
}

func TestStoreRoundTripsDate(t *testing.T) {
	store := NewStore(testutil.Postgres(t, "bookings"))
	ctx := context.Background()

	b := &Booking{
		ID:            types.NewID(),
		FromCity:      "Минск",
		ToCity:        "Москва",
		Date:          "05-09-2026",
		Passengers:    3,
		TransportType: slots.TransportBus,
		TransportCode: "bus",
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Date != b.Date || got.TransportType != slots.TransportBus {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := store.Get(ctx, types.NewID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing booking: err = %v, want ErrNotFound", err)
	}
	list, err := store.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %d rows, err %v", len(list), err)
	}
}
