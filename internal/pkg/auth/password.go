// internal/pkg/auth/password.go
package auth

import (
	"errors"
	"fmt"

	"github.com/your-org/pos-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes
const maxPasswordBytes = 72

// ErrWeakPassword wraps every password policy failure
var ErrWeakPassword = errors.New("password does not meet requirements")

// PasswordManager handles password operations
type PasswordManager struct {
	cost      int
	minLength int
}

// NewPasswordManager creates a new password manager
func NewPasswordManager(cfg *config.Config) *PasswordManager {
	return &PasswordManager{
		cost:      cfg.Security.BcryptCost,
		minLength: cfg.Security.MinPasswordLength,
	}
}

// HashPassword validates and hashes a password using bcrypt
func (p *PasswordManager) HashPassword(password string) (string, error) {
	if err := p.ValidatePassword(password); err != nil {
		return "", err
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashedBytes), nil
}

// VerifyPassword verifies a password against its hash
func (p *PasswordManager) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword enforces the length bounds for staff passwords
func (p *PasswordManager) ValidatePassword(password string) error {
	if len(password) < p.minLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrWeakPassword, p.minLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be no more than %d characters long", ErrWeakPassword, maxPasswordBytes)
	}
	return nil
}
