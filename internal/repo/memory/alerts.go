package memory

import (
	"context"
	"slices"

	"github.com/geocoder89/staroracle/internal/domain/alert"
)

type AlertsRepo struct {
	s *Store
}

func (r *AlertsRepo) Add(_ context.Context, a alert.Alert) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.alerts = append(r.s.alerts, a)
}

func (r *AlertsRepo) List(_ context.Context, userID string, limit int) ([]alert.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]alert.Alert, 0)
	for _, a := range r.s.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}

	slices.SortStableFunc(out, func(a, b alert.Alert) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *AlertsRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, a := range r.s.alerts {
		if a.UserID == userID && !a.IsRead {
			n++
		}
	}
	return n, nil
}
