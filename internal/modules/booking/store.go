// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	day, err := time.Parse(slots.DateLayout, b.Date)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, from_city, to_city, travel_date, passengers,
			transport_type, transport_code, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(b.ID),
		b.FromCity,
		b.ToCity,
		day,
		b.Passengers,
		string(b.TransportType),
		b.TransportCode,
		b.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, from_city, to_city, travel_date, passengers,
		       transport_type, transport_code, created_at
		FROM bookings
		WHERE id = $1`, string(id),
	)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// List returns bookings newest first.
func (s *Store) List(ctx context.Context) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, from_city, to_city, travel_date, passengers,
		       transport_type, transport_code, created_at
		FROM bookings
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var day time.Time
	var transport string
	if err := row.Scan(
		&b.ID, &b.FromCity, &b.ToCity, &day, &b.Passengers,
		&transport, &b.TransportCode, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	b.Date = day.Format(slots.DateLayout)
	b.TransportType = slots.Transport(transport)
	return &b, nil
}
