package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextClientID is the key for the caller's client id in gin context.
	ContextClientID = "client_id"
	// HeaderClientID lets non-browser callers supply their own client id.
	HeaderClientID = "X-Client-ID"
	// ClientCookie is the cookie carrying the browser's client id.
	ClientCookie = "wr_client"

	clientCookieMaxAge = 30 * 24 * 60 * 60
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

// ClientID identifies the caller for per-client state. It prefers the
// X-Client-ID header, then the wr_client cookie, and otherwise issues a new
// id in that cookie. Malformed ids are replaced.
func ClientID(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderClientID)
		if !clientIDPattern.MatchString(id) {
			id, _ = c.Cookie(ClientCookie)
		}
		if !clientIDPattern.MatchString(id) {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, id, clientCookieMaxAge, "/", "", secureCookie, true)
		}
		c.Set(ContextClientID, id)
		c.Next()
	}
}

// GetClientID returns the id set by ClientID, or "" outside that middleware.
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextClientID)
}
