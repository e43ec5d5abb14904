package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims are the claims read from an access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	Email string `json:"email"`
	Role  string `json:"role"`
}

// ParseAccessClaims decodes the claims of an access token without
// verifying its signature. The backend verifies tokens; the client only
// reads identity and expiry from them.
func ParseAccessClaims(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, WrapError(ErrTokenMalformed, "access token is not a valid JWT", err, nil)
	}
	return claims, nil
}

// fillFromClaims completes identity fields the provider left empty.
func fillFromClaims(s *Session) error {
	if s.Email != "" && s.UserID != "" && !s.ExpiresAt.IsZero() {
		return nil
	}

	claims, err := ParseAccessClaims(s.AccessToken)
	if err != nil {
		return err
	}
	if s.Email == "" {
		s.Email = claims.Email
	}
	if s.UserID == "" {
		s.UserID = claims.Subject
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time.UTC().Truncate(time.Second)
	}
	return nil
}
