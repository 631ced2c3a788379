package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor for hashing passwords. 12 gives
// roughly 250ms per hash on current hardware.
const DefaultBcryptCost = 12

// PasswordService hashes and verifies passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultBcryptCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// Tests use bcrypt.MinCost to keep hashing fast.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordService{cost: cost}
}

// Hash generates a bcrypt hash of the password. bcrypt truncates input at
// 72 bytes, so longer passwords are rejected rather than silently cut.
func (s *PasswordService) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("auth: password exceeds 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hash), nil
}

// Verify checks a password against its stored hash. Returns nil on match.
func (s *PasswordService) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: password does not match")
		}
		return fmt.Errorf("auth: verifying password: %w", err)
	}
	return nil
}
