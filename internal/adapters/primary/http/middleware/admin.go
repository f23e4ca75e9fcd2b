package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gamemod/support-desk/internal/auth"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/infrastructure/logging"
	"github.com/gamemod/support-desk/internal/infrastructure/metrics"
)

// AdminKeyHeader carries the shared admin secret.
const AdminKeyHeader = "X-Admin-Key"

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AdminGate admits requests that present either the admin secret in
// X-Admin-Key or a staff session token as a Bearer credential. The key is
// tried first; a token is only consulted when the key is absent or wrong.
// Nothing is admitted while no admin secret is configured. Staff usernames
// from tokens are attached to the request context.
func AdminGate(key *auth.AdminKey, tokens *auth.TokenManager, onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !key.Configured() {
				onError(w, r, apperrors.ErrAdminNotConfigured)
				return
			}

			candidate := r.Header.Get(AdminKeyHeader)
			if candidate != "" {
				if err := key.Verify(candidate); err == nil {
					next.ServeHTTP(w, r)
					return
				}
				metrics.AdminAuthFailures.WithLabelValues("invalid_key").Inc()
			}

			bearer, ok := bearerToken(r)
			if !ok {
				onError(w, r, apperrors.ErrInvalidAdminKey)
				return
			}

			claims, err := tokens.ValidateToken(bearer)
			if err != nil {
				if errors.Is(err, apperrors.ErrSessionsNotConfigured) && candidate == "" {
					onError(w, r, err)
					return
				}
				metrics.AdminAuthFailures.WithLabelValues("invalid_token").Inc()
				onError(w, r, apperrors.ErrInvalidAdminKey)
				return
			}

			ctx := logging.WithStaffUser(r.Context(), claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
