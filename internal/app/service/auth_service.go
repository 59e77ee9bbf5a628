package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/common"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/sirupsen/logrus"
)

const (
	msgPendingAccount  = "Your account is pending activation. Please check your email for verification"
	msgRejectedAccount = "Your account has been rejected. Please contact support."
	msgInactiveAccount = "Your account is not active. Please contact support."

	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
)

type AuthService struct {
	users  repository.UserRepository
	hasher *security.PasswordHasher
	tokens *security.TokenIssuer
	log    logrus.FieldLogger
}

func NewAuthService(users repository.UserRepository, hasher *security.PasswordHasher, tokens *security.TokenIssuer, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, log: log}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, maxPasswordBytes)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// Register creates a pending account without a role.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	req.Email = model.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return nil, common.FromValidation(err)
	}

	hashed, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("AuthService.Register: hash password: %w", err)
	}

	user := &model.User{
		Email:          req.Email,
		HashedPassword: hashed,
		Name:           req.Name,
		Status:         model.StatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		s.log.WithError(err).WithField("email", req.Email).Error("failed to create user")
		return nil, fmt.Errorf("AuthService.Register: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")
	return user.Public(), nil
}

// Login authenticates an account. The password is always checked, even when
// the status already decides the outcome, so response timing does not reveal
// the account state. A blocked status wins over a wrong password.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, common.FromValidation(err)
	}
	email := model.NormalizeEmail(req.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.Burn(ctx, req.Password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("AuthService.Login: find user: %w", err)
	}

	matched, verifyErr := s.hasher.Verify(ctx, req.Password, user.HashedPassword)

	if err := statusGate(user.Status); err != nil {
		return nil, err
	}

	if verifyErr != nil {
		if errors.Is(verifyErr, security.ErrMalformedHash) {
			s.log.WithField("user_id", user.ID).Error("stored password hash is malformed")
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("AuthService.Login: verify password: %w", verifyErr)
	}
	if !matched {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(security.ClaimsForUser(user), s.tokens.TTL())
	if err != nil {
		return nil, fmt.Errorf("AuthService.Login: issue token: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")
	return &LoginResponse{Message: "Login successful", Token: token, User: user.Public()}, nil
}

// Logout has nothing to invalidate server side; the token lives until it expires.
func (s *AuthService) Logout(ctx context.Context) string {
	return "Logout successful"
}

func statusGate(status model.UserStatus) error {
	switch status {
	case model.StatusActive:
		return nil
	case model.StatusPending:
		return &common.AccountNotActiveError{Status: string(status), Message: msgPendingAccount}
	case model.StatusRejected:
		return &common.AccountNotActiveError{Status: string(status), Message: msgRejectedAccount}
	default:
		return &common.AccountNotActiveError{Status: string(status), Message: msgInactiveAccount}
	}
}
