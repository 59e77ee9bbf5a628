package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRevocations struct {
	at  time.Time
	err error
}

func (s stubRevocations) Revoke(context.Context, string, time.Time, time.Duration) error { return nil }
func (s stubRevocations) RevokedAt(context.Context, string) (time.Time, error)        { return s.at, s.err }

func newIssuer(t *testing.T, secret string) *security.TokenIssuer {
	t.Helper()
	issuer, err := security.NewTokenIssuer([]byte(secret), time.Hour)
	require.NoError(t, err)
	return issuer
}

func issue(t *testing.T, issuer *security.TokenIssuer, role, status string, ttl time.Duration) string {
	t.Helper()
	token, err := issuer.Issue(security.Claims{UserID: "u-1", Email: "a@example.com", Name: "A", Role: role, Status: status}, ttl)
	require.NoError(t, err)
	return token
}

// echoClaims writes the claims found in the request context.
var echoClaims = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "no claims", http.StatusTeapot)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, claims)
})

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestAuthenticator_Verify(t *testing.T) {
	issuer := newIssuer(t, "secret")
	log, _ := test.NewNullLogger()
	h := NewAuthenticator(issuer, nil, log).Verify(echoClaims)

	valid := issue(t, issuer, "member", "active", time.Hour)
	expired := issue(t, issuer, "member", "active", -time.Minute)
	foreign := issue(t, newIssuer(t, "other-secret"), "member", "active", time.Hour)
	pending := issue(t, issuer, "", "pending", time.Hour)

	cases := []struct {
		name   string
		header string
		code   int
		kind   string
	}{
		{"no header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, "missing_token"},
		{"bare token", valid, http.StatusUnauthorized, "missing_token"},
		{"expired", "Bearer " + expired, http.StatusForbidden, "expired_token"},
		{"foreign signature", "Bearer " + foreign, http.StatusForbidden, "invalid_token"},
		{"garbage", "Bearer not.a.jwt", http.StatusForbidden, "invalid_token"},
		{"inactive status", "Bearer " + pending, http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.header)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.kind, errorKind(t, rec))
		})
	}

	t.Run("valid", func(t *testing.T) {
		rec := serve(h, "Bearer "+valid)
		require.Equal(t, http.StatusOK, rec.Code)

		var claims security.Claims
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &claims))
		assert.Equal(t, "u-1", claims.UserID)
		assert.Equal(t, "member", claims.Role)
	})
}

func TestAuthenticator_Revocation(t *testing.T) {
	issuer := newIssuer(t, "secret")
	log, hook := test.NewNullLogger()
	token := issue(t, issuer, "member", "active", time.Hour)

	revoked := NewAuthenticator(issuer, stubRevocations{at: time.Now().Add(time.Minute)}, log).Verify(echoClaims)
	rec := serve(revoked, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid_token", errorKind(t, rec))

	olderRevocation := NewAuthenticator(issuer, stubRevocations{at: time.Now().Add(-time.Minute)}, log).Verify(echoClaims)
	assert.Equal(t, http.StatusOK, serve(olderRevocation, "Bearer "+token).Code)

	broken := NewAuthenticator(issuer, stubRevocations{err: errors.New("redis: connection refused")}, log).Verify(echoClaims)
	rec = serve(broken, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "token check failed", hook.LastEntry().Message)
}

func TestAdminOnly(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := AdminOnly(ok)

	cases := []struct {
		name   string
		claims *security.Claims
		code   int
	}{
		{"no identity", nil, http.StatusUnauthorized},
		{"member", &security.Claims{Role: "member", Status: "active"}, http.StatusForbidden},
		{"no role", &security.Claims{Status: "active"}, http.StatusForbidden},
		{"inactive admin", &security.Claims{Role: "admin", Status: "rejected"}, http.StatusForbidden},
		{"active admin", &security.Claims{Role: "admin", Status: "active"}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/assignUserRole", nil)
			if tc.claims != nil {
				req = req.WithContext(WithClaims(req.Context(), tc.claims))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	_, ok := GetUserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := GetUserIDFromContext(WithClaims(context.Background(), &security.Claims{UserID: "u-9"}))
	assert.True(t, ok)
	assert.Equal(t, "u-9", id)
}
