package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"conferencecentral/internal/domain"
)

// Tokens from other services sharing the secret are rejected by issuer and audience.
const (
	tokenIssuer   = "conferencecentral"
	tokenAudience = "conferencecentral-api"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// JWT signs and verifies HS256 tokens carrying a domain.Identity.
type JWT struct {
	secret []byte
	now    func() time.Time
}

// NewJWT returns a JWT issuer and verifier using the given secret.
func NewJWT(secret string) *JWT {
	return &JWT{secret: []byte(secret), now: time.Now}
}

var (
	_ domain.TokenIssuer   = (*JWT)(nil)
	_ domain.TokenVerifier = (*JWT)(nil)
)

func (j *JWT) Issue(caller domain.Identity, expiry time.Duration) (string, error) {
	if caller.UserID == "" {
		return "", errors.New("issue token: empty user id")
	}
	if expiry <= 0 {
		return "", fmt.Errorf("issue token: non-positive expiry %s", expiry)
	}
	now := j.now()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   caller.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Email: caller.Email,
		Name:  caller.DisplayName,
	}).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token for %s: %w", caller.UserID, err)
	}
	return signed, nil
}

func (j *JWT) key(*jwt.Token) (any, error) { return j.secret, nil }

// Verify parses the token, checks the signature and expiry and returns its identity.
func (j *JWT) Verify(token string) (domain.Identity, error) {
	var claims jwtClaims
	_, err := jwt.ParseWithClaims(token, &claims, j.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrNotAuthorized, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: token has no subject", domain.ErrNotAuthorized)
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email, DisplayName: claims.Name}, nil
}
