package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/staroracle/internal/domain/session"
	"github.com/geocoder89/staroracle/internal/domain/user"
)

var ErrUnauthenticated = errors.New("unauthenticated")

const bearerPrefix = "Bearer "

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type SessionFinder interface {
	Find(ctx context.Context, token string) (session.Session, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// Principal is a resolved request identity. User is the live record, not
// the claims snapshot.
type Principal struct {
	User    user.User
	Claims  *Claims
	Token   string
	Session session.Session
}

type Authenticator struct {
	tokens   TokenVerifier
	sessions SessionFinder
	users    UserLoader
}

func NewAuthenticator(tokens TokenVerifier, sessions SessionFinder, users UserLoader) *Authenticator {
	return &Authenticator{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
	}
}

// BearerToken extracts the credential from an Authorization header value.
// The prefix is case-sensitive.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}

	return raw, true
}

// Resolve returns ErrUnauthenticated for every credential problem. Any other
// error is a store failure.
func (a *Authenticator) Resolve(ctx context.Context, authorizationHeader string) (Principal, error) {
	raw, ok := BearerToken(authorizationHeader)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	sess, err := a.sessions.Find(ctx, raw)
	if err != nil {
		if isNotFound(err) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("resolve session: %w", err)
	}

	u, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("resolve user: %w", err)
	}

	return Principal{
		User:    u,
		Claims:  claims,
		Token:   raw,
		Session: sess,
	}, nil
}
