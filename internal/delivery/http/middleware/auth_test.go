package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/delivery/http/helpers"
	"conferencecentral/internal/domain"
)

// fakeTokenVerifier accepts one token and rejects everything else.
type fakeTokenVerifier struct {
	token  string
	caller domain.Identity
}

func (f *fakeTokenVerifier) Verify(token string) (domain.Identity, error) {
	if token != f.token {
		return domain.Identity{}, errors.New("token is expired")
	}
	return f.caller, nil
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer   abc.def  ", want: "abc.def"},
		{header: "", wantErr: errNoCredentials},
		{header: "Basic dXNlcjpwYXNz", wantErr: errBadScheme},
		{header: "Bearer", wantErr: errEmptyToken},
		{header: "Bearer    ", wantErr: errEmptyToken},
		{header: "Token abc", wantErr: errBadScheme},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := bearerToken(req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	verifier := &fakeTokenVerifier{token: "good", caller: domain.Identity{UserID: "user-123", Email: "user-123@example.com"}}

	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{name: "valid token", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "no header", wantStatus: http.StatusUnauthorized, wantMessage: "missing authorization header"},
		{name: "basic auth", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMessage: "authorization scheme must be Bearer"},
		{name: "rejected token", header: "Bearer stale", wantStatus: http.StatusUnauthorized, wantMessage: "invalid or expired token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen domain.Identity
			nextCalled := false
			handler := RequireAuth(verifier, logger)(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				seen, _ = IdentityFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/profile/wishlist/abc", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			handler(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				require.True(t, nextCalled)
				assert.Equal(t, verifier.caller, seen)
				return
			}
			assert.False(t, nextCalled, "next must not run without a caller")
			assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, helpers.ErrCodeUnauthorized, envelope.Error.Code)
			assert.Equal(t, tt.wantMessage, envelope.Error.Message)
		})
	}
}

func TestIdentityFromContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)
	_, ok = IdentityFromContext(SetIdentity(context.Background(), domain.Identity{}))
	assert.False(t, ok, "an identity without user id is not authenticated")
	got, ok := IdentityFromContext(SetIdentity(context.Background(), domain.Identity{UserID: "u1"}))
	assert.True(t, ok)
	assert.Equal(t, "u1", got.UserID)
}
