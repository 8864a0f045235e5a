// README: Session store backed by Redis; each session is one JSON value with a TTL.
package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tripchat/internal/modules/slots"
	"tripchat/internal/types"
)

const sessionKeyPrefix = "dialog:session:%s"

type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore keeps sessions for ttl after their last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, id types.ID) (*Session, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Active {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *RedisStore) Create(ctx context.Context, state slots.State) (*Session, error) {
	now := s.now().UTC()
	sess := &Session{ID: types.NewID(), State: state, Active: true, CreatedAt: now, UpdatedAt: now}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Update(ctx context.Context, id types.ID, state slots.State) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.State = state
	sess.UpdatedAt = s.now().UTC()
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Deactivate(ctx context.Context, id types.ID) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Active = false
	sess.UpdatedAt = s.now().UTC()
	return s.save(ctx, sess)
}

func (s *RedisStore) load(ctx context.Context, id types.ID) (*Session, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(sess.ID), raw, s.ttl).Err()
}

func sessionKey(id types.ID) string {
	return fmt.Sprintf(sessionKeyPrefix, string(id))
}
