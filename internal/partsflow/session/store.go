package session

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fieldparts_backend/platform/config"
)

// ErrNotFound is returned when no session exists for an id, either because it
// was never created or because its TTL expired.
var ErrNotFound = errors.New("workflow session not found")

// ErrLocked is returned when a submit lock is already held for a session.
var ErrLocked = errors.New("submission already in progress")

// Store persists workflow sessions in Redis as JSON blobs under a sliding
// TTL. Every save re-arms the TTL, so a session only expires after the
// configured idle window.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

// NewStore connects a session store from configuration.
func NewStore(cfg config.SessionConfig) (*Store, error) {
	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.GetRedisTLSInsecure() && opts.TLSConfig != nil {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return NewStoreWithClient(redis.NewClient(opts), cfg), nil
}

// NewStoreWithClient wraps an existing Redis client. Used by tests.
func NewStoreWithClient(client *redis.Client, cfg config.SessionConfig) *Store {
	return &Store{
		client:  client,
		ttl:     cfg.GetWorkflowSessionTTL(),
		lockTTL: cfg.GetSubmitLockTTL(),
	}
}

// Ping reports broker reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Save writes the session and re-arms its TTL.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AcquireSubmitLock takes the single-flight submission lock for a session.
// The lock self-expires so a crashed submitter cannot wedge the workflow.
func (s *Store) AcquireSubmitLock(ctx context.Context, id string) error {
	ok, err := s.client.SetNX(ctx, lockKey(id), "1", s.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("acquire submit lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// ReleaseSubmitLock frees the submission lock after a failed submit so the
// technician can retry without waiting out the lock TTL.
func (s *Store) ReleaseSubmitLock(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, lockKey(id)).Err(); err != nil {
		return fmt.Errorf("release submit lock: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return "partsflow:session:" + id
}

func lockKey(id string) string {
	return "partsflow:submit:" + id
}
