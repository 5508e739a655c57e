package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/session"
)

type SessionsRepo struct {
	s *Store
}

func (r *SessionsRepo) Create(_ context.Context, row session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[row.ID] = row
	return nil
}

func (r *SessionsRepo) FindLive(_ context.Context, tokenHash string, now time.Time) (session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, row := range r.s.sessions {
		if row.TokenHash == tokenHash && row.Live(now) {
			return row, nil
		}
	}
	return session.Session{}, session.ErrNotFound
}

func (r *SessionsRepo) DeleteByTokenHash(_ context.Context, tokenHash string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	deleted := false
	for id, row := range r.s.sessions {
		if row.TokenHash == tokenHash {
			delete(r.s.sessions, id)
			deleted = true
		}
	}
	return deleted, nil
}

func (r *SessionsRepo) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, row := range r.s.sessions {
		if row.UserID == userID {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *SessionsRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, row := range r.s.sessions {
		if !row.Live(now) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *SessionsRepo) ListForUser(_ context.Context, userID string, limit int) ([]session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]session.Session, 0)
	for _, row := range r.s.sessions {
		if row.UserID == userID {
			out = append(out, row)
		}
	}

	slices.SortFunc(out, func(a, b session.Session) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionsRepo) CountActive(_ context.Context, userID string, now time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, row := range r.s.sessions {
		if row.UserID == userID && row.Live(now) {
			n++
		}
	}
	return n, nil
}
