package service

import (
	"context"
	"errors"
	"taskboard/internal/common/security"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("connection refused by 10.0.0.7:27017")

type testDeps struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
	hasher   *security.PasswordHasher
	tokens   *security.TokenIssuer
	log      *logrus.Logger
	hook     *test.Hook
}

func newTestDeps(t *testing.T) *testDeps {
	t.Helper()
	tokens, err := security.NewTokenIssuer([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	return &testDeps{
		users:    repository.NewMemoryUserRepository(),
		projects: repository.NewMemoryProjectRepository(),
		tasks:    repository.NewMemoryTaskRepository(),
		hasher:   security.NewPasswordHasher(bcrypt.MinCost, 4),
		tokens:   tokens,
		log:      log,
		hook:     hook,
	}
}

// seedUser stores a user with the given password, status and role.
func (d *testDeps) seedUser(t *testing.T, email, password string, status model.UserStatus, role *model.Role) *model.User {
	t.Helper()
	hashed, err := d.hasher.Hash(context.Background(), password)
	require.NoError(t, err)
	u := &model.User{Email: email, HashedPassword: hashed, Name: "Test", Status: status, Role: role}
	require.NoError(t, d.users.Create(context.Background(), u))
	return u
}

// failingUserRepository fails every call with errStoreDown.
type failingUserRepository struct{}

func (failingUserRepository) Create(context.Context, *model.User) error { return errStoreDown }
func (failingUserRepository) FindByEmail(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) FindByID(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) FindByIDs(context.Context, []string) ([]*model.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) ListByStatus(context.Context, *model.UserStatus) ([]*model.User, error) {
	return nil, errStoreDown
}
func (failingUserRepository) UpdateRoleStatus(context.Context, string, *model.Role, model.UserStatus) (*model.User, error) {
	return nil, errStoreDown
}

// recordingRevocations keeps revocations in memory.
type recordingRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (r *recordingRevocations) Revoke(_ context.Context, userID string, at time.Time, _ time.Duration) error {
	if r.err != nil {
		return r.err
	}
	if r.revoked == nil {
		r.revoked = map[string]time.Time{}
	}
	r.revoked[userID] = at
	return nil
}

func (r *recordingRevocations) RevokedAt(_ context.Context, userID string) (time.Time, error) {
	return r.revoked[userID], nil
}
