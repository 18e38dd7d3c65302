package domain

import "time"

// TokenIssuer issues bearer tokens for an identity.
type TokenIssuer interface {
	Issue(caller Identity, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the identity it was issued for.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}
