package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/staroracle/internal/actorctx"
	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/gin-gonic/gin"
)

type PrincipalResolver interface {
	Resolve(ctx context.Context, authorizationHeader string) (auth.Principal, error)
}

type AuthMiddleware struct {
	resolver PrincipalResolver
	logger   *slog.Logger
}

func NewAuthMiddleware(resolver PrincipalResolver, logger *slog.Logger) *AuthMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthMiddleware{resolver: resolver, logger: logger}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := m.resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				abortError(c, http.StatusUnauthorized, "unauthorized", "Missing, invalid or expired access token")
				return
			}

			m.logger.ErrorContext(c.Request.Context(), "auth_resolve_failed", "err", err)
			abortError(c, http.StatusInternalServerError, "internal_error", "Could not authenticate request")
			return
		}

		c.Set(CtxPrincipal, p)
		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), p.User.ID))

		c.Next()
	}
}

// PrincipalFromContext returns the identity stored by RequireAuth.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(CtxPrincipal)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	p, ok := PrincipalFromContext(c)
	if !ok || p.User.ID == "" {
		return "", false
	}
	return p.User.ID, true
}
