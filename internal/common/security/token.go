package security

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	claimUserID = "userId"
	claimEmail  = "email"
	claimName   = "name"
	claimRole   = "role"
	claimStatus = "status"
	claimIat    = "iat"
	claimExp    = "exp"
)

// Claims is the identity snapshot carried by a session token.
type Claims struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Status    string    `json:"status"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// ClaimsForUser captures the user's current state for a new token.
func ClaimsForUser(u *model.User) Claims {
	return Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.RoleName(),
		Status: string(u.Status),
	}
}

// TokenIssuer signs and verifies HS256 bearer tokens with a server held secret.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

// TTL is the lifetime applied to login tokens.
func (t *TokenIssuer) TTL() time.Duration { return t.ttl }

// Issue signs claims valid for ttl from now. IssuedAt and ExpiresAt on the
// input are ignored.
func (t *TokenIssuer) Issue(c Claims, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		claimUserID: c.UserID,
		claimEmail:  c.Email,
		claimName:   c.Name,
		claimStatus: c.Status,
		claimIat:    now.Unix(),
		claimExp:    now.Add(ttl).Unix(),
	}
	if c.Role != "" {
		claims[claimRole] = c.Role
	}

	_, tokenString, err := t.auth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature, structure and expiry, returning the embedded claims.
// Expiry maps to common.ErrExpiredToken, everything else to common.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwtauth.VerifyToken(t.auth, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return nil, common.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	raw, err := token.AsMap(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	claims, err := claimsFromMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !t.now().Before(claims.ExpiresAt) {
		return nil, common.ErrExpiredToken
	}
	return claims, nil
}

func claimsFromMap(m map[string]interface{}) (*Claims, error) {
	c := &Claims{}
	var ok bool
	if c.UserID, ok = m[claimUserID].(string); !ok || c.UserID == "" {
		return nil, errors.New("userId claim is missing or not a string")
	}
	if c.Email, ok = m[claimEmail].(string); !ok {
		return nil, errors.New("email claim is missing or not a string")
	}
	if c.Status, ok = m[claimStatus].(string); !ok {
		return nil, errors.New("status claim is missing or not a string")
	}
	c.Name, _ = m[claimName].(string)
	c.Role, _ = m[claimRole].(string)

	var err error
	if c.IssuedAt, err = timeClaim(m[claimIat]); err != nil {
		return nil, fmt.Errorf("iat: %w", err)
	}
	if c.ExpiresAt, err = timeClaim(m[claimExp]); err != nil {
		return nil, fmt.Errorf("exp: %w", err)
	}
	return c, nil
}

func timeClaim(v interface{}) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv, nil
	case float64:
		return time.Unix(int64(tv), 0), nil
	case int64:
		return time.Unix(tv, 0), nil
	case json.Number:
		n, err := tv.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(n, 0), nil
	default:
		return time.Time{}, errors.New("claim is missing or not a timestamp")
	}
}
