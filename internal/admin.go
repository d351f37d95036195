package internal

import (
	"crypto/subtle"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminUser is the administrator name when none is configured
const DefaultAdminUser = "hein_admin"

// AdminGate is the local credential check in front of manual management.
// Authorization lasts for the life of the process.
type AdminGate struct {
	user       string
	hash       []byte
	authorized atomic.Bool
}

// NewAdminGate builds a gate from a bcrypt hash. An empty hash leaves the
// gate unconfigured and every Authorize call fails.
func NewAdminGate(user, passwordHash string) *AdminGate {
	if user == "" {
		user = DefaultAdminUser
	}
	return &AdminGate{user: user, hash: []byte(passwordHash)}
}

// HashPassword returns the bcrypt hash of a plain password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Configured reports whether a password has been set up
func (g *AdminGate) Configured() bool {
	return len(g.hash) > 0
}

// Authorize checks the credentials and marks the process as authorized
func (g *AdminGate) Authorize(user, password string) error {
	if !g.Configured() {
		return ErrAdminNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(g.user)) == 1
	passErr := bcrypt.CompareHashAndPassword(g.hash, []byte(password))
	if !userOK || passErr != nil {
		LogWarn("Rejected admin login for %q", user)
		return ErrInvalidCredentials
	}
	g.authorized.Store(true)
	LogInfo("Admin authorized")
	return nil
}

// Authorized reports whether Authorize has succeeded in this process
func (g *AdminGate) Authorized() bool {
	return g.authorized.Load()
}

// Revoke clears the authorization
func (g *AdminGate) Revoke() {
	g.authorized.Store(false)
}
