package memory

import (
	"context"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/preferences"
)

type PreferencesRepo struct {
	s *Store
}

// GetOrCreate lazily inserts the defaults on first read.
func (r *PreferencesRepo) GetOrCreate(_ context.Context, userID string) (preferences.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.preferences[userID]
	if !ok {
		p = preferences.Defaults(userID, time.Now().UTC())
		r.s.preferences[userID] = p
	}
	return p, nil
}

func (r *PreferencesRepo) Upsert(_ context.Context, p preferences.Preferences) (preferences.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.preferences[p.UserID] = p
	return p, nil
}
