package middleware

import (
	"context"
	"net/http"
	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"

	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

const claimsCtxKey contextKey = "claims"

// Authenticator verifies bearer tokens on protected routes. Verification is
// stateless unless a revocation store is configured.
type Authenticator struct {
	tokens      *security.TokenIssuer
	revocations repository.RevocationRepository // optional
	log         logrus.FieldLogger
}

func NewAuthenticator(tokens *security.TokenIssuer, revocations repository.RevocationRepository, log logrus.FieldLogger) *Authenticator {
	return &Authenticator{tokens: tokens, revocations: revocations, log: log}
}

func (a *Authenticator) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.authorize(r)
		if err != nil {
			if common.Kind(err) == "internal_error" {
				a.log.WithError(err).WithField("path", r.URL.Path).Error("token check failed")
			}
			common.RespondWithDomainError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

func (a *Authenticator) authorize(r *http.Request) (*security.Claims, error) {
	raw := jwtauth.TokenFromHeader(r)
	if raw == "" {
		return nil, common.ErrMissingToken
	}

	claims, err := a.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	status, err := model.ParseUserStatus(claims.Status)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	switch status {
	case model.StatusActive:
	case model.StatusPending, model.StatusRejected:
		return nil, common.ErrForbidden
	}

	if a.revocations != nil {
		revokedAt, err := a.revocations.RevokedAt(r.Context(), claims.UserID)
		if err != nil {
			return nil, err
		}
		if !revokedAt.IsZero() && !claims.IssuedAt.After(revokedAt) {
			return nil, common.ErrInvalidToken
		}
	}
	return claims, nil
}

// AdminOnly lets through active callers holding the admin role.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			common.RespondWithDomainError(w, common.ErrMissingToken)
			return
		}
		if claims.Role != string(model.RoleAdmin) || claims.Status != string(model.StatusActive) {
			common.RespondWithDomainError(w, common.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *security.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(*security.Claims)
	return claims, ok && claims != nil
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", false
	}
	return claims.UserID, true
}
