package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/note"
)

type NotesRepo struct {
	s *Store
}

func (r *NotesRepo) List(_ context.Context, researcherID string, asteroidID *string, limit int) ([]note.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]note.Note, 0)
	for _, n := range r.s.notes {
		if n.ResearcherID != researcherID {
			continue
		}
		if asteroidID != nil && n.AsteroidID != *asteroidID {
			continue
		}
		out = append(out, n)
	}

	slices.SortFunc(out, func(a, b note.Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotesRepo) Create(_ context.Context, n note.Note) (note.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.notes[n.ID] = n
	return n, nil
}

func (r *NotesRepo) Update(_ context.Context, researcherID, id string, req note.SaveRequest) (note.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok || n.ResearcherID != researcherID {
		return note.Note{}, note.ErrNotFound
	}

	n.Title = req.Title
	n.Content = req.Content
	n.RiskOverride = req.RiskOverride
	n.UpdatedAt = time.Now().UTC()
	r.s.notes[id] = n
	return n, nil
}

func (r *NotesRepo) Delete(_ context.Context, researcherID, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok || n.ResearcherID != researcherID {
		return false, nil
	}
	delete(r.s.notes, id)
	return true, nil
}

func (r *NotesRepo) Count(_ context.Context, researcherID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, item := range r.s.notes {
		if item.ResearcherID == researcherID {
			n++
		}
	}
	return n, nil
}
