package auth

import (
	"crypto/subtle"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"golang.org/x/crypto/bcrypt"
)

// AdminKey verifies the shared admin secret. A bcrypt hash takes
// precedence over a plain password when both are configured.
type AdminKey struct {
	password []byte
	hash     []byte
}

func NewAdminKey(password, hash string) *AdminKey {
	return &AdminKey{password: []byte(password), hash: []byte(hash)}
}

// Configured reports whether any admin secret is set.
func (k *AdminKey) Configured() bool {
	return len(k.hash) > 0 || len(k.password) > 0
}

// Verify checks candidate against the configured secret.
func (k *AdminKey) Verify(candidate string) error {
	if !k.Configured() {
		return apperrors.ErrAdminNotConfigured
	}
	if candidate == "" {
		return apperrors.ErrInvalidAdminKey
	}

	if len(k.hash) > 0 {
		if err := bcrypt.CompareHashAndPassword(k.hash, []byte(candidate)); err != nil {
			return apperrors.ErrInvalidAdminKey
		}
		return nil
	}

	if subtle.ConstantTimeCompare(k.password, []byte(candidate)) != 1 {
		return apperrors.ErrInvalidAdminKey
	}
	return nil
}
