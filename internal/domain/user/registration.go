package user

import (
	"strings"
	"time"

	"github.com/geocoder89/staroracle/internal/domain/preferences"
	"github.com/google/uuid"
)

type RegisterRequest struct {
	Name         string `json:"name" binding:"required,notblank,min=2,max=100"`
	Email        string `json:"email" binding:"required,email,max=255"`
	Password     string `json:"password" binding:"required,min=8,max=72"`
	Role         Role   `json:"role" binding:"required,oneof=observer researcher"`
	ResearchID   string `json:"research_id" binding:"omitempty,max=50"`
	Organization string `json:"organization" binding:"omitempty,max=255"`
}

// Registration is everything the register transaction writes.
type Registration struct {
	User        User
	Researcher  *ResearcherProfile
	Preferences preferences.Preferences
}

// NewRegistration builds the rows for a new account. passwordHash and
// verificationToken are produced by the caller.
func NewRegistration(req RegisterRequest, passwordHash, verificationToken string) Registration {
	now := time.Now().UTC()

	u := User{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      passwordHash,
		Role:              req.Role,
		Verified:          false,
		VerificationToken: &verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	reg := Registration{
		User:        u,
		Preferences: preferences.Defaults(u.ID, now),
	}

	if req.Role == RoleResearcher {
		researchID := strings.TrimSpace(req.ResearchID)
		if researchID == "" {
			researchID = GenerateResearchID()
		}

		var org *string
		if o := strings.TrimSpace(req.Organization); o != "" {
			org = &o
		}

		reg.Researcher = &ResearcherProfile{
			ID:           uuid.NewString(),
			UserID:       u.ID,
			ResearchID:   researchID,
			Organization: org,
			CreatedAt:    now,
		}
	}

	return reg
}

// GenerateResearchID returns an identifier of the form RSR-XXXXXXXX.
func GenerateResearchID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "RSR-" + strings.ToUpper(raw[:8])
}
