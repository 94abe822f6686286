package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/easyvisa/visaflow/internal/config"
)

// Credentials holds the configured admin login. A bcrypt hash takes
// precedence over the plaintext password when both are set.
type Credentials struct {
	username     string
	password     string
	passwordHash string
}

func NewCredentials(cfg config.Config) *Credentials {
	return &Credentials{
		username:     strings.TrimSpace(cfg.AdminUser),
		password:     cfg.AdminPassword,
		passwordHash: strings.TrimSpace(cfg.AdminPasswordHash),
	}
}

// Configured reports whether an admin login exists at all.
func (c *Credentials) Configured() bool {
	return c.username != "" && (c.password != "" || c.passwordHash != "")
}

// Verify checks a login attempt in constant time.
func (c *Credentials) Verify(username, password string) bool {
	if !c.Configured() {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(c.username)) == 1

	var passOK bool
	if c.passwordHash != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.passwordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
	}

	return userOK && passOK
}
