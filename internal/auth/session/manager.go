package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyvisa/visaflow/internal/config"
)

// DefaultCookieName is the admin session cookie.
const DefaultCookieName = "_sid"

// Manager reads and writes the admin session cookie. The cookie is
// httpOnly with SameSite Lax; Secure follows deployment config.
type Manager struct {
	secure bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{secure: cfg.AuthCookieSecure}
}

// ReadToken extracts the session token from the request, if present.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(DefaultCookieName)
	if err != nil || strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// Set writes the session cookie with a max age matching expiresAt.
func (m *Manager) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(DefaultCookieName, token, maxAge, "/", "", m.secure, true)
}

// Clear expires the session cookie on the client.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(DefaultCookieName, "", -1, "/", "", m.secure, true)
}
