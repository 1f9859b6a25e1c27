package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthUserKey is the context key holding the authenticated username.
const AuthUserKey = "authUser"

// Verifier checks a username/password pair.
type Verifier interface {
	Verify(username, password string) bool
}

// BasicAuth guards a route with HTTP Basic credentials.
func BasicAuth(v Verifier, realm string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !v.Verify(user, pass) {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(AuthUserKey, user)
		c.Next()
	}
}
