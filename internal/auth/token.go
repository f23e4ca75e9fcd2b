package auth

import (
	"errors"
	"time"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/golang-jwt/jwt/v5"
)

// RoleStaff is the only role a staff session token carries.
const RoleStaff = "staff"

// Claims defines the structured data we store in the JWT
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the staff username the token was issued to.
func (c *Claims) Username() string {
	return c.Subject
}

// TokenManager issues and validates HS256 staff session tokens.
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	now       func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration, issuer string) *TokenManager {
	return &TokenManager{
		secretKey: []byte(secret),
		ttl:       ttl,
		issuer:    issuer,
		now:       time.Now,
	}
}

// Configured reports whether a signing secret is available.
func (tm *TokenManager) Configured() bool {
	return len(tm.secretKey) > 0
}

// GenerateToken creates a staff session token for username.
func (tm *TokenManager) GenerateToken(username string) (string, time.Time, error) {
	if !tm.Configured() {
		return "", time.Time{}, apperrors.ErrSessionsNotConfigured
	}

	now := tm.now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Role: RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates the token string
func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	if !tm.Configured() {
		return nil, apperrors.ErrSessionsNotConfigured
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secretKey, nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.Role != RoleStaff || claims.Subject == "" {
		return nil, errors.New("token is not a staff session")
	}

	return claims, nil
}
