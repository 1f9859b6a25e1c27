package services

import (
	"crypto/subtle"
	"fmt"

	"github.com/pmxy/gallery/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService checks the single admin credential pair.
type AuthService struct {
	username     string
	passwordHash []byte
}

// NewAuthService hashes ADMIN_PASSWORD at startup unless a bcrypt hash is
// configured directly.
func NewAuthService(cfg *config.Config) (*AuthService, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
	}
	return &AuthService{username: cfg.AdminUsername, passwordHash: hash}, nil
}

// Verify reports whether the credentials match the admin account.
func (s *AuthService) Verify(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil
	return userOK && passOK
}
