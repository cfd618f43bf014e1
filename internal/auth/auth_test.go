package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests-only"

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
	assert.Error(t, CheckPassword("not-a-hash", "s3cret!"))
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)

	tok, expires, err := tokens.Issue("uid-1", "clinician")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.Subject)
	assert.Equal(t, "clinician", claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestTokenRejections(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)

	expired := NewTokens(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("uid-1", "patient")
	require.NoError(t, err)
	_, err = tokens.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, _, err := NewTokens("another-secret", time.Hour).Issue("uid-1", "admin")
	require.NoError(t, err)
	_, err = tokens.Parse(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "uid-1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = tokens.Parse(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newGatedRouter(tokens *Tokens) http.Handler {
	ok := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UIDFromContext(r.Context()) + ":" + RoleFromContext(r.Context())))
	}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(tokens))
		r.Get("/me", ok)
		r.With(RequireStaff).Get("/staff", ok)
		r.With(RequireRole("clinician", "encoder")).Get("/records", ok)
		r.With(RequireRole()).Get("/admin", ok)
	})
	return r
}

func TestMiddlewareGates(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	router := newGatedRouter(tokens)

	bearer := func(role string) string {
		tok, _, err := tokens.Issue("uid-"+role, role)
		require.NoError(t, err)
		return "Bearer " + tok
	}

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no header", "/me", "", http.StatusUnauthorized},
		{"basic auth", "/me", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", "/me", "Bearer ", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"patient me", "/me", bearer("patient"), http.StatusOK},
		{"patient staff", "/staff", bearer("patient"), http.StatusForbidden},
		{"assistant staff", "/staff", bearer("assistant"), http.StatusOK},
		{"encoder records", "/records", bearer("encoder"), http.StatusOK},
		{"case manager records", "/records", bearer("case manager"), http.StatusForbidden},
		{"admin records", "/records", bearer("admin"), http.StatusOK},
		{"admin admin", "/admin", bearer("admin"), http.StatusOK},
		{"clinician admin", "/admin", bearer("clinician"), http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticatePutsIdentityOnContext(t *testing.T) {
	tokens := NewTokens(testSecret, time.Hour)
	tok, _, err := tokens.Issue("uid-7", "patient")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "bearer "+tok)
	rec := httptest.NewRecorder()
	newGatedRouter(tokens).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uid-7:patient", rec.Body.String())
}
