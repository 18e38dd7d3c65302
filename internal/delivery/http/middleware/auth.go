package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	h "conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

type contextKey int

const (
	identityKey contextKey = iota
	requestIDKey
)

var (
	errNoCredentials = errors.New("missing authorization header")
	errBadScheme     = errors.New("authorization scheme must be Bearer")
	errEmptyToken    = errors.New("missing token")
)

// SetIdentity returns a context carrying the authenticated caller.
func SetIdentity(ctx context.Context, caller domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, caller)
}

// IdentityFromContext returns the authenticated caller. ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	caller, ok := ctx.Value(identityKey).(domain.Identity)
	return caller, ok && caller.UserID != ""
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive.
func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errNoCredentials
	}
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", errBadScheme
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errEmptyToken
	}
	return token, nil
}

// RequireAuth wraps handlers that need a caller. It verifies the bearer token and stores the
// resulting identity in the request context; otherwise it answers 401 without calling next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				unauthorized(w, err.Error())
				return
			}
			caller, err := verifier.Verify(token)
			if err != nil {
				logger.DebugContext(r.Context(), "token rejected", "request_id", RequestIDFromContext(r.Context()), "err", err)
				unauthorized(w, "invalid or expired token")
				return
			}
			next(w, r.WithContext(SetIdentity(r.Context(), caller)))
		}
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="conferencecentral"`)
	h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, msg)
}
