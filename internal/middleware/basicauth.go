package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/masilia/consent-bundle/internal/config"
	"github.com/masilia/consent-bundle/internal/utils"
)

// BasicAuthMiddleware protects the admin API with HTTP basic auth. When
// auth is disabled in configuration the middleware is a pass-through.
func BasicAuthMiddleware(cfg config.BasicAuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok || !authenticate(username, password, cfg.Users) {
			c.Header("WWW-Authenticate", `Basic realm="consent-admin"`)
			utils.SendUnauthorizedError(c, "Authentication required")
			c.Abort()
			return
		}

		c.Set("admin_user", username)
		c.Next()
	}
}

func authenticate(username, password string, users []config.BasicAuthUser) bool {
	for _, user := range users {
		usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(user.Username)) == 1
		passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(user.Password)) == 1
		if usernameMatch && passwordMatch {
			return true
		}
	}
	return false
}
