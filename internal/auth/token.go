package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "propmarket"

// TokenManager signs and verifies session tokens (HS256).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager. The secret is process-wide
// configuration; tokens it signed stop verifying when it changes.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// SessionClaims embeds the standard claims plus the handle and the role the
// account held at issue time. The role claim is advisory only: privileged
// calls re-resolve the role from the account store (see middleware.RequireAuth),
// so a promotion or demotion after issuance takes effect immediately.
type SessionClaims struct {
	jwt.RegisteredClaims
	Handle string `json:"handle"`
	Role   string `json:"role"`
}

// Issue creates a signed, time-bounded session token for the account.
func (m *TokenManager) Issue(accountID uuid.UUID, handle, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   accountID.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Handle: handle,
		Role:   role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify parses the token, checks signature, expiry and issuer, and returns
// the claims. Any failure maps to ErrInvalidToken.
func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TTL returns the configured token lifetime (used to size the revocation
// denylist entries on logout).
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
