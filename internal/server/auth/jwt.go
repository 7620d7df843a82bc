// Package auth holds the credential primitives of the server: password
// hashing, verification token generation, signed session tokens and the
// Guard that resolves a bearer header into an account.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is the lifetime of a session token unless configured.
const DefaultSessionTTL = 3 * time.Hour

// Claims: стандартные утверждения плюс идентификатор аккаунта.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// SessionTokens issues and verifies HS256 session tokens. The secret is fixed
// at construction and never changes afterwards.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret []byte, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &SessionTokens{secret: s, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for accountID expiring after the configured
// TTL. Every token carries a random ID, so two tokens issued within the same
// second still differ.
func (s *SessionTokens) Issue(accountID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		AccountID: accountID,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// account id it carries. Failures are common.ErrTokenMalformed,
// common.ErrTokenBadSignature or common.ErrTokenExpired.
func (s *SessionTokens) Verify(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", common.ErrTokenBadSignature
		default:
			return "", common.ErrTokenMalformed
		}
	}

	if !token.Valid || claims.AccountID == "" {
		return "", common.ErrTokenMalformed
	}

	return claims.AccountID, nil
}
