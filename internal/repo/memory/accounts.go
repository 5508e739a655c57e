package memory

import (
	"context"

	"github.com/geocoder89/staroracle/internal/domain/user"
)

type AccountsRepo struct {
	s *Store
}

// Register writes the user, optional researcher profile and preferences
// under one lock, or nothing at all.
func (r *AccountsRepo) Register(_ context.Context, reg user.Registration) (user.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == reg.User.Email {
			return user.Registration{}, user.ErrEmailTaken
		}
	}

	if reg.Researcher != nil {
		for _, p := range r.s.researchers {
			if p.ResearchID == reg.Researcher.ResearchID {
				return user.Registration{}, user.ErrResearchIDTaken
			}
		}
	}

	r.s.users[reg.User.ID] = reg.User
	if reg.Researcher != nil {
		r.s.researchers[reg.User.ID] = *reg.Researcher
	}
	r.s.preferences[reg.User.ID] = reg.Preferences

	return reg, nil
}
