// README: Terminal chat against the dialog service; uses the configured stores or memory.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"tripchat/internal/config"
	"tripchat/internal/infra"
	"tripchat/internal/logger"
	"tripchat/internal/modules/booking"
	"tripchat/internal/modules/dialog"
	"tripchat/internal/modules/gazetteer"
	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	memory := flag.Bool("memory", false, "keep sessions and bookings in memory")
	flag.Parse()

	ctx := context.Background()
	deps := dialog.Deps{
		Parser: slots.NewParser(gazetteer.Default(), time.Now),
		Locker: dialog.NewLocalLocker(),
		Log:    logger.Nop(),
	}

	if *memory {
		deps.Sessions = newMemSessions()
		deps.Bookings = booking.NewService(&memBookings{}, nil, nil)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatalf("postgres init: %v (use -memory to run without a database)", err)
		}
		defer db.Close()
		deps.Sessions = dialog.NewStore(db)
		deps.Bookings = booking.NewService(booking.NewStore(db), nil, nil)
	}
	svc := dialog.NewService(deps)

	fmt.Println("Опишите поездку. «сброс» начинает заново, Ctrl+D завершает.")
	var sessionID types.ID
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := svc.HandleTurn(ctx, dialog.TurnRequest{SessionID: sessionID, Message: line})
		if err != nil {
			fmt.Printf("ошибка: %v\n", err)
			continue
		}
		sessionID = reply.SessionID
		fmt.Println(reply.Text)
		for _, m := range reply.Messages {
			if list, ok := m.(dialog.TripListMessage); ok {
				for _, t := range list.Trips {
					fmt.Printf("  %s %s → %s %s, мест: %d\n", t.Number, t.DepartureCity, t.ArrivalCity,
						t.DepartureTime.Format("02.01 15:04"), t.AvailableSeats)
				}
			}
		}
		if reply.Finished {
			fmt.Printf("[заявка %s создана]\n", reply.BookingID)
		}
	}
}

type memSessions struct {
	mu   sync.Mutex
	rows map[types.ID]dialog.Session
}

func newMemSessions() *memSessions {
	return &memSessions{rows: make(map[types.ID]dialog.Session)}
}

func (m *memSessions) Get(_ context.Context, id types.ID) (*dialog.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return nil, dialog.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Create(_ context.Context, state slots.State) (*dialog.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	s := dialog.Session{ID: types.NewID(), State: state, Active: true, CreatedAt: now, UpdatedAt: now}
	m.rows[s.ID] = s
	return &s, nil
}

func (m *memSessions) Update(_ context.Context, id types.ID, state slots.State) (*dialog.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return nil, dialog.ErrSessionNotFound
	}
	s.State, s.UpdatedAt = state, time.Now()
	m.rows[id] = s
	return &s, nil
}

func (m *memSessions) Deactivate(_ context.Context, id types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok || !s.Active {
		return dialog.ErrSessionNotFound
	}
	s.Active = false
	m.rows[id] = s
	return nil
}

type memBookings struct {
	rows []booking.Booking
}

func (m *memBookings) Create(_ context.Context, b *booking.Booking) error {
	m.rows = append(m.rows, *b)
	return nil
}

func (m *memBookings) Get(_ context.Context, id types.ID) (*booking.Booking, error) {
	for _, b := range m.rows {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (m *memBookings) List(context.Context) ([]booking.Booking, error) {
	return m.rows, nil
}
