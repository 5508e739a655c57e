package memory

import (
	"context"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByVerificationToken(_ context.Context, token string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.VerificationToken != nil && *u.VerificationToken == token {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) MarkVerified(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	u.Verified = true
	u.VerificationToken = nil
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *UsersRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

// Delete exists for tests that need a session whose user is gone.
func (r *UsersRepo) Delete(_ context.Context, id string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.users, id)
	delete(r.s.researchers, id)
}

func (r *UsersRepo) GetResearcherByUserID(_ context.Context, userID string) (user.ResearcherProfile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.researchers[userID]
	if !ok {
		return user.ResearcherProfile{}, user.ErrResearcherNotFound
	}
	return p, nil
}

func (r *UsersRepo) GetResearcherLogin(_ context.Context, email string) (user.ResearcherLogin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email != email || u.Role != user.RoleResearcher {
			continue
		}

		p, ok := r.s.researchers[u.ID]
		if !ok {
			break
		}
		return user.ResearcherLogin{User: u, Profile: p}, nil
	}
	return user.ResearcherLogin{}, user.ErrNotFound
}
