package middlewares

import (
	"net/http"

	"github.com/geocoder89/staroracle/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequirePermission must run after RequireAuth.
func (m *AuthMiddleware) RequirePermission(perm auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		if _, err := auth.RequirePermission(p.User, perm); err != nil {
			abortError(c, http.StatusForbidden, "forbidden", string(perm)+" access required")
			return
		}
		c.Next()
	}
}
