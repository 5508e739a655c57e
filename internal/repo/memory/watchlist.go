package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/watchlist"
	"github.com/google/uuid"
)

type WatchlistRepo struct {
	s *Store
}

func watchKey(userID, asteroidID string) string {
	return userID + "|" + asteroidID
}

func (r *WatchlistRepo) List(_ context.Context, userID string) ([]watchlist.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.listLocked(userID), nil
}

func (r *WatchlistRepo) listLocked(userID string) []watchlist.Entry {
	out := make([]watchlist.Entry, 0)
	for _, e := range r.s.watchlist {
		if e.UserID == userID {
			out = append(out, e)
		}
	}

	slices.SortFunc(out, func(a, b watchlist.Entry) int {
		if c := b.AddedAt.Compare(a.AddedAt); c != 0 {
			return c
		}
		return strings.Compare(a.AsteroidID, b.AsteroidID)
	})
	return out
}

// Upsert keys on (user, asteroid); re-adding refreshes added_at and notes.
func (r *WatchlistRepo) Upsert(_ context.Context, userID string, req watchlist.AddRequest) (watchlist.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := watchKey(userID, req.AsteroidID)
	now := time.Now().UTC()

	e, ok := r.s.watchlist[key]
	if !ok {
		e = watchlist.Entry{
			ID:           uuid.NewString(),
			UserID:       userID,
			AsteroidID:   req.AsteroidID,
			AsteroidName: req.AsteroidName,
		}
	}
	e.Notes = req.Notes
	e.AddedAt = now

	r.s.watchlist[key] = e
	return e, nil
}

func (r *WatchlistRepo) Remove(_ context.Context, userID, asteroidID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := watchKey(userID, asteroidID)
	_, ok := r.s.watchlist[key]
	delete(r.s.watchlist, key)
	return ok, nil
}

func (r *WatchlistRepo) Count(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return len(r.listLocked(userID)), nil
}

func (r *WatchlistRepo) ListWithNoteCounts(_ context.Context, userID, researcherID string) ([]watchlist.EntryWithNotes, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := r.listLocked(userID)
	out := make([]watchlist.EntryWithNotes, 0, len(entries))

	for _, e := range entries {
		count := 0
		for _, n := range r.s.notes {
			if n.ResearcherID == researcherID && n.AsteroidID == e.AsteroidID {
				count++
			}
		}
		out = append(out, watchlist.EntryWithNotes{Entry: e, NotesCount: count})
	}
	return out, nil
}
