// README: Session store backed by PostgreSQL; slot state is a JSONB document.
package dialog

import (
	"context"
	"encoding/json"
	"errors"

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

func (s *Store) Get(ctx context.Context, id types.ID) (*Session, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, slot_state, is_active, created_at, updated_at
		FROM dialog_sessions
		WHERE id = $1 AND is_active`, string(id),
	)
	return scanSession(row)
}

func (s *Store) Create(ctx context.Context, state slots.State) (*Session, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO dialog_sessions (id, slot_state)
		VALUES ($1, $2)
		RETURNING id, slot_state, is_active, created_at, updated_at`,
		string(types.NewID()), raw,
	)
	return scanSession(row)
}

func (s *Store) Update(ctx context.Context, id types.ID, state slots.State) (*Session, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRow(ctx, `
		UPDATE dialog_sessions
		SET slot_state = $2, updated_at = NOW()
		WHERE id = $1 AND is_active
		RETURNING id, slot_state, is_active, created_at, updated_at`,
		string(id), raw,
	)
	return scanSession(row)
}

func (s *Store) Deactivate(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE dialog_sessions
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active`, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func scanSession(row pgx.Row) (*Session, error) {
	var sess Session
	var raw []byte
	err := row.Scan(&sess.ID, &raw, &sess.Active, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &sess.State); err != nil {
		return nil, err
	}
	return &sess, nil
}
