package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookme/auth-service/internal/application/auth"
	"github.com/bookme/auth-service/internal/domain"
)

// JWTSigner issues and verifies HS256 access tokens. The username travels in
// the subject claim, the role in a private "role" claim.
type JWTSigner struct {
	secret []byte
	issuer string
}

func NewJWTSigner(secret, issuer string) *JWTSigner {
	return &JWTSigner{secret: []byte(secret), issuer: issuer}
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignAccessToken(username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", domain.ErrTokenSignFailed(err)
	}
	return signed, nil
}

func (s *JWTSigner) VerifyAccessToken(token string) (auth.TokenClaims, error) {
	keyFn := func(t *jwt.Token) (any, error) {
		// WithValidMethods already restricts the alg; this guards against it
		// being dropped in a refactor.
		if t.Method != jwt.SigningMethodHS256 {
			return nil, domain.ErrTokenInvalid()
		}
		return s.secret, nil
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, keyFn,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return auth.TokenClaims{}, domain.ErrTokenExpired()
	case err != nil:
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return auth.TokenClaims{}, domain.ErrTokenInvalid()
	}

	out := auth.TokenClaims{Username: claims.Subject, Role: claims.Role}
	if claims.ExpiresAt != nil {
		out.Exp = claims.ExpiresAt.Time
	}
	return out, nil
}
