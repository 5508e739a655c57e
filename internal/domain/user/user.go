package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleObserver   Role = "observer"
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrResearchIDTaken    = errors.New("research id already registered")
	ErrResearcherNotFound = errors.New("researcher profile not found")
)

type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // never expose hash in JSON
	Role              Role      `json:"role"`
	Verified          bool      `json:"verified"`
	VerificationToken *string   `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ResearcherProfile is the 1:1 extension of a researcher account.
type ResearcherProfile struct {
	ID             string    `json:"researcherId"`
	UserID         string    `json:"userId"`
	ResearchID     string    `json:"researchId"`
	Organization   *string   `json:"organization,omitempty"`
	Specialization *string   `json:"specialization,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ResearcherLogin is a user joined with its researcher profile.
type ResearcherLogin struct {
	User    User
	Profile ResearcherProfile
}

func (r Role) Valid() bool {
	switch r {
	case RoleObserver, RoleResearcher, RoleAdmin:
		return true
	}
	return false
}
