package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS opens the api to every origin. Pre-flight requests end here with 204
// and no body, whether or not they carry an Origin header.
func CORS() gin.HandlerFunc {
	inner := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Authorization", "Content-Type", "If-None-Match", "X-Request-Id"},
		ExposeHeaders:   []string{"ETag", "X-Request-Id", "Content-Disposition", "Retry-After"},
		MaxAge:          12 * time.Hour,
	})

	return func(c *gin.Context) {
		inner(c)
		if c.IsAborted() {
			return
		}

		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
