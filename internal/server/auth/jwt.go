// Package auth issues and validates the signed session tokens handed out
// on login.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/common"
	"github.com/dmitrijs2005/helpdesk/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "helpdesk"

// Claims carries the standard claims plus the account email and role.
// The account id travels in the "sub" claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

// GenerateToken signs an HS256 session token for the account that expires
// validityDuration after issuedAt.
func GenerateToken(account *models.Account, secretKey []byte, issuedAt time.Time, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validityDuration)),
		},
		Email: account.Email,
		Role:  account.Role,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns its claims.
// An expired token yields common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidSessionToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidSessionToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidSessionToken
	}

	return claims, nil
}
