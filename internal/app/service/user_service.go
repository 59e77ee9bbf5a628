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
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/sirupsen/logrus"
)

// UserService owns the role lifecycle: assigning a role activates an account,
// revoking it rejects the account and clears the role.
type UserService struct {
	users       repository.UserRepository
	hasher      *security.PasswordHasher
	revocations repository.RevocationRepository // nil disables revocation
	tokenTTL    time.Duration
	now         func() time.Time
	log         logrus.FieldLogger
}

func NewUserService(
	users repository.UserRepository,
	hasher *security.PasswordHasher,
	revocations repository.RevocationRepository,
	tokenTTL time.Duration,
	log logrus.FieldLogger,
) *UserService {
	return &UserService{
		users:       users,
		hasher:      hasher,
		revocations: revocations,
		tokenTTL:    tokenTTL,
		now:         time.Now,
		log:         log,
	}
}

type AssignRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

var roleRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if _, err := model.ParseRole(s); err != nil {
		return errors.New("must be one of manager, member, admin")
	}
	return nil
})

func (r AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Role, validation.Required, roleRule),
	)
}

type RevokeRoleRequest struct {
	UserID string `json:"userId"`
}

func (r RevokeRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
	)
}

// AssignRole sets the role and activates the account. Re-assigning the same
// role writes again and returns the same state. Replacing a different role
// cuts off tokens that still carry the old one when revocation is enabled.
func (s *UserService) AssignRole(ctx context.Context, req AssignRoleRequest) (*model.User, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := req.Validate(); err != nil {
		return nil, common.FromValidation(err)
	}
	role, _ := model.ParseRole(req.Role)

	var previous string
	if s.revocations != nil {
		current, err := s.users.FindByID(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrNotFound
			}
			return nil, fmt.Errorf("UserService.AssignRole: %w", err)
		}
		previous = current.RoleName()
	}

	user, err := s.users.UpdateRoleStatus(ctx, req.UserID, &role, model.StatusActive)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("UserService.AssignRole: %w", err)
	}

	// Accounts without a role never held a token.
	if previous != "" && previous != string(role) {
		s.recordRevocation(ctx, user.ID)
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("role assigned")
	return user.Public(), nil
}

// RevokeRole rejects the account. With a revocation store configured, tokens
// issued up to now stop being accepted as well.
func (s *UserService) RevokeRole(ctx context.Context, req RevokeRoleRequest) (*model.User, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	if err := req.Validate(); err != nil {
		return nil, common.FromValidation(err)
	}

	user, err := s.users.UpdateRoleStatus(ctx, req.UserID, nil, model.StatusRejected)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("UserService.RevokeRole: %w", err)
	}

	s.recordRevocation(ctx, user.ID)

	s.log.WithField("user_id", user.ID).Info("role revoked")
	return user.Public(), nil
}

// recordRevocation marks tokens issued up to now as stale. The account change
// is already stored, so a failure here is logged and not returned.
func (s *UserService) recordRevocation(ctx context.Context, userID string) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.Revoke(ctx, userID, s.now(), s.tokenTTL); err != nil {
		s.log.WithError(err).WithField("user_id", userID).Error("failed to record token revocation")
	}
}

// ListUsers returns every user when status is nil.
func (s *UserService) ListUsers(ctx context.Context, status *model.UserStatus) ([]*model.User, error) {
	users, err := s.users.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("UserService.ListUsers: %w", err)
	}
	out := make([]*model.User, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("UserService.GetUser: %w", err)
	}
	return user.Public(), nil
}

// EnsureAdmin creates an active admin with the given credentials, or promotes
// the existing account with that email. The password of an existing account
// is left untouched.
func (s *UserService) EnsureAdmin(ctx context.Context, email, name, password string) (*model.User, error) {
	email = model.NormalizeEmail(email)
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Status == model.StatusActive && existing.RoleName() == string(model.RoleAdmin) {
			return existing.Public(), nil
		}
		admin := model.RoleAdmin
		user, err := s.users.UpdateRoleStatus(ctx, existing.ID, &admin, model.StatusActive)
		if err != nil {
			return nil, fmt.Errorf("UserService.EnsureAdmin: promote: %w", err)
		}
		s.log.WithField("user_id", user.ID).Info("bootstrap admin promoted")
		return user.Public(), nil
	case !errors.Is(err, common.ErrNotFound):
		return nil, fmt.Errorf("UserService.EnsureAdmin: %w", err)
	}

	hashed, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("UserService.EnsureAdmin: hash password: %w", err)
	}
	user := &model.User{
		Email:          email,
		HashedPassword: hashed,
		Name:           name,
		Role:           model.RolePtr(model.RoleAdmin),
		Status:         model.StatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("UserService.EnsureAdmin: create: %w", err)
	}
	s.log.WithField("user_id", user.ID).Info("bootstrap admin created")
	return user.Public(), nil
}
