package auth

import (
	"testing"
	"time"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenManager_UsesConfiguredTTL(t *testing.T) {
	ttl := 2 * time.Hour
	tm := NewTokenManager("test-secret", ttl, "support-desk")

	start := time.Now()

	token, expiresAt, err := tm.GenerateToken("vega")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)

	assert.Equal(t, "vega", claims.Username())
	assert.Equal(t, RoleStaff, claims.Role)
	assert.WithinDuration(t, start.Add(ttl), claims.ExpiresAt.Time, 2*time.Second)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour, "support-desk")
	other := NewTokenManager("secret-b", time.Hour, "support-desk")

	token, _, err := issuer.GenerateToken("vega")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = issuer.ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute, "support-desk")
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := tm.GenerateToken("vega")
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_Unconfigured(t *testing.T) {
	tm := NewTokenManager("", time.Hour, "support-desk")

	_, _, err := tm.GenerateToken("vega")
	assert.ErrorIs(t, err, apperrors.ErrSessionsNotConfigured)

	_, err = tm.ValidateToken("anything")
	assert.ErrorIs(t, err, apperrors.ErrSessionsNotConfigured)
}

func TestAdminKey_Verify(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name      string
		key       *AdminKey
		candidate string
		wantErr   error
	}{
		{"plain match", NewAdminKey("letmein", ""), "letmein", nil},
		{"plain mismatch", NewAdminKey("letmein", ""), "letmeout", apperrors.ErrInvalidAdminKey},
		{"empty candidate", NewAdminKey("letmein", ""), "", apperrors.ErrInvalidAdminKey},
		{"hash match", NewAdminKey("", string(hash)), "hashed-secret", nil},
		{"hash wins over password", NewAdminKey("letmein", string(hash)), "letmein", apperrors.ErrInvalidAdminKey},
		{"not configured", NewAdminKey("", ""), "letmein", apperrors.ErrAdminNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Verify(tt.candidate)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
