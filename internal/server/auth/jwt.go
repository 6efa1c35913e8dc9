// Package auth issues and verifies stateless session tokens: HS256 JWTs that
// carry the user id and expire after a fixed window. There is no server-side
// session store and no revocation list.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "bookshelf"

// Claims is the signed claim set: the user id plus iat/exp/iss.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService signs and verifies session tokens with a secret fixed at
// construction time.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenService returns a TokenService. The secret must not be empty.
func NewTokenService(secret []byte, validity time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("empty token secret")
	}
	if validity <= 0 {
		return nil, fmt.Errorf("token validity must be positive, got %s", validity)
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{secret: key, validity: validity, now: time.Now}, nil
}

// Validity is the expiry window applied to new tokens.
func (s *TokenService) Validity() time.Duration {
	return s.validity
}

// Issue signs a token for userID valid from now until now+validity.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID: userID,
	})
	return token.SignedString(s.secret)
}

// Verify returns the user id carried by token. Any failure (bad signature,
// unexpected algorithm, expiry, malformed input, missing subject) is
// reported as common.ErrInvalidToken wrapping the cause.
func (s *TokenService) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", common.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}
