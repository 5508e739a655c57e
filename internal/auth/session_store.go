package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/session"
)

// SessionRepository persists sessions keyed by token digest.
type SessionRepository interface {
	Create(ctx context.Context, s session.Session) error
	FindLive(ctx context.Context, tokenHash string, now time.Time) (session.Session, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type TokenHasher interface {
	HashToken(raw string) string
}

// SessionStore pairs raw credentials with server-side session rows.
// Deleting the row is the only way to revoke a credential before its exp.
type SessionStore struct {
	repo   SessionRepository
	hasher TokenHasher
	now    func() time.Time
}

func NewSessionStore(repo SessionRepository, hasher TokenHasher) *SessionStore {
	return &SessionStore{
		repo:   repo,
		hasher: hasher,
		now:    time.Now,
	}
}

func (s *SessionStore) Create(ctx context.Context, userID, token, ip, userAgent string, ttl time.Duration) (session.Session, error) {
	if ttl <= 0 {
		return session.Session{}, fmt.Errorf("create session: non-positive ttl %s", ttl)
	}

	row := session.New(userID, s.hasher.HashToken(token), ip, userAgent, s.now(), ttl)

	if err := s.repo.Create(ctx, row); err != nil {
		return session.Session{}, fmt.Errorf("create session: %w", err)
	}

	return row, nil
}

// Find returns session.ErrNotFound for absent and expired rows alike.
func (s *SessionStore) Find(ctx context.Context, token string) (session.Session, error) {
	now := s.now().UTC()

	row, err := s.repo.FindLive(ctx, s.hasher.HashToken(token), now)
	if err != nil {
		return session.Session{}, err
	}

	if !row.Live(now) {
		return session.Session{}, session.ErrNotFound
	}

	return row, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) (bool, error) {
	return s.repo.DeleteByTokenHash(ctx, s.hasher.HashToken(token))
}

func (s *SessionStore) DeleteAll(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAllForUser(ctx, userID)
}

// SweepExpired removes rows whose expiry is strictly in the past.
func (s *SessionStore) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	return n, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound)
}
