// Package auth turns bearer tokens issued by the identity service into callers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens carrying the account id in sub and a role claim.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (domain.Caller, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role := domain.RoleUser
	if claims.Role != "" {
		if role, err = domain.ParseRole(claims.Role); err != nil {
			return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	return domain.Caller{ID: claims.Subject, Role: role}, nil
}

// VerifyHeader accepts an "Authorization: Bearer <token>" value.
func (v *Verifier) VerifyHeader(header string) (domain.Caller, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return domain.Caller{}, fmt.Errorf("%w: missing bearer token", ErrInvalidToken)
	}
	return v.Verify(strings.TrimSpace(token))
}

// Issue signs a token for caller. The identity service owns issuance in
// production; this is used by tooling and tests.
func (v *Verifier) Issue(caller domain.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(v.secret)
}
