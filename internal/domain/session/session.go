package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side record of one issued credential. The raw
// token is never stored, only its keyed digest.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	TokenHash string    `json:"-"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// New starts a session at now that expires ttl later.
func New(userID, tokenHash, ip, userAgent string, now time.Time, ttl time.Duration) Session {
	now = now.UTC()

	return Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		IPAddress: optional(ip),
		UserAgent: optional(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s Session) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
