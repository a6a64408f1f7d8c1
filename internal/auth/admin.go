package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/itechteam/formdesk/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Admin authenticates the single operator account configured through the
// environment.
type Admin struct {
	email  string
	hash   string
	tokens *Manager
}

func NewAdmin(email, passwordHash string, tokens *Manager) *Admin {
	return &Admin{
		email:  strings.ToLower(strings.TrimSpace(email)),
		hash:   passwordHash,
		tokens: tokens,
	}
}

func (a *Admin) Login(email, password string) (string, time.Time, error) {
	emailOK := strings.ToLower(strings.TrimSpace(email)) == a.email

	// always pay for the bcrypt compare so a wrong email is not faster
	pwErr := security.CheckPassword(a.hash, password)

	if !emailOK || pwErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return a.tokens.GenerateAccessToken(a.email, a.email, RoleAdmin)
}
