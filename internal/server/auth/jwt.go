// Package auth implements the signed access-token primitives: HS256 JWTs
// carrying the tenant-scoped identity. Tokens are self-contained; the server
// keeps no record of valid tokens, only of revoked ones.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
)

// Claims is the full claim set embedded into every access token. The jti
// (RegisteredClaims.ID) is the revocation key.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	ClientID string `json:"client_id"`
	SiteID   string `json:"site_id"`
}

// GenerateToken signs a new token for the given identity with a fresh random
// jti, iat = now and exp = now + validityDuration.
func GenerateToken(userID, email, clientID, siteID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:   userID,
		Email:    email,
		ClientID: clientID,
		SiteID:   siteID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns its
// claims. Signature/structure failures map to ErrTokenMalformed and expiry to
// ErrTokenExpired; a bad signature wins over expiry so garbage is rejected
// cheaply regardless of its claimed lifetime.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, common.ErrTokenMalformed
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}

// ParseTokenIgnoringExpiry verifies only the signature and structure of
// tokenString, leaving expiry to the caller. Used by token refresh, which
// needs to inspect the claims of an expired-or-nearly-expired token.
func ParseTokenIgnoringExpiry(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())

	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}
