package dialog

import (
	"context"

	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

// Session administration used by the sessions API. Writes take the session lock
// so they cannot interleave with a running turn.

func (s *Service) CreateSession(ctx context.Context, state slots.State) (*Session, error) {
	return s.sessions.Create(ctx, state)
}

func (s *Service) GetSession(ctx context.Context, id types.ID) (*Session, error) {
	if _, ok := types.ParseID(string(id)); !ok {
		return nil, ErrSessionNotFound
	}
	return s.sessions.Get(ctx, id)
}

func (s *Service) UpdateSession(ctx context.Context, id types.ID, state slots.State) (*Session, error) {
	if _, ok := types.ParseID(string(id)); !ok {
		return nil, ErrSessionNotFound
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.sessions.Update(ctx, id, state)
}

func (s *Service) DeactivateSession(ctx context.Context, id types.ID) error {
	if _, ok := types.ParseID(string(id)); !ok {
		return ErrSessionNotFound
	}
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return s.sessions.Deactivate(ctx, id)
}

func (s *Service) lock(ctx context.Context, id types.ID) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Lock(ctx, id)
}
