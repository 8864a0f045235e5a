// README: Trip catalog store backed by PostgreSQL.
package trip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tripchat/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const tripColumns = `id, number, transport_code, departure_city, arrival_city,
       departure_time, arrival_time, available_seats, price_amount, price_currency,
       status, created_at, updated_at`

func (s *Store) Create(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (`+tripColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(t.ID), t.Number, t.TransportCode, t.DepartureCity, t.ArrivalCity,
		t.DepartureTime, t.ArrivalTime, t.AvailableSeats, t.Price.Amount, t.Price.Currency,
		string(t.Status), t.CreatedAt, t.UpdatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// Search returns matching trips ordered by departure time.
func (s *Store) Search(ctx context.Context, f Filter) ([]Trip, error) {
	query, args := buildSearch(f)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func buildSearch(f Filter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT ` + tripColumns + ` FROM trips WHERE 1=1`)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DepartureCity != "" {
		b.WriteString(" AND departure_city ILIKE " + arg("%"+f.DepartureCity+"%"))
	}
	if f.ArrivalCity != "" {
		b.WriteString(" AND arrival_city ILIKE " + arg("%"+f.ArrivalCity+"%"))
	}
	if f.DepartureDate != nil {
		day := time.Date(f.DepartureDate.Year(), f.DepartureDate.Month(), f.DepartureDate.Day(), 0, 0, 0, 0, time.UTC)
		b.WriteString(" AND departure_time >= " + arg(day))
		b.WriteString(" AND departure_time < " + arg(day.AddDate(0, 0, 1)))
	}
	if f.MinSeats > 0 {
		b.WriteString(" AND available_seats >= " + arg(f.MinSeats))
	}
	if f.TransportCode != "" {
		b.WriteString(" AND transport_code = " + arg(f.TransportCode))
	}
	b.WriteString(" ORDER BY departure_time ASC")
	return b.String(), args
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var status string
	if err := row.Scan(
		&t.ID, &t.Number, &t.TransportCode, &t.DepartureCity, &t.ArrivalCity,
		&t.DepartureTime, &t.ArrivalTime, &t.AvailableSeats, &t.Price.Amount, &t.Price.Currency,
		&status, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = Status(status)
	return &t, nil
}
