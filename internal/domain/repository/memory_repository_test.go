package repository

import (
	"context"
	"errors"
	"sync"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository_UniqueEmailUnderConcurrency(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	const attempts = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		duplicate int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &model.User{Email: "bob@example.com", Status: model.StatusPending})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, common.ErrDuplicateEmail):
				duplicate++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, duplicate)

	all, err := repo.ListByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "alice@example.com", Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, u))

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	found.Status = model.StatusActive

	again, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, again.Status)
}

func TestMemoryUserRepository_UpdateRoleStatus(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	u := &model.User{Email: "alice@example.com", Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, u))

	updated, err := repo.UpdateRoleStatus(ctx, u.ID, model.RolePtr(model.RoleManager), model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.RoleName())

	updated, err = repo.UpdateRoleStatus(ctx, u.ID, nil, model.StatusRejected)
	require.NoError(t, err)
	assert.Nil(t, updated.Role)

	_, err = repo.UpdateRoleStatus(ctx, "missing", nil, model.StatusRejected)
	assert.ErrorIs(t, err, common.ErrNotFound)

	rejected := model.StatusRejected
	list, err := repo.ListByStatus(ctx, &rejected)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryProjectAndTaskRepositories(t *testing.T) {
	projects := NewMemoryProjectRepository()
	tasks := NewMemoryTaskRepository()
	ctx := context.Background()

	p := &model.Project{Name: "Launch", Status: model.ProjectInProgress}
	require.NoError(t, projects.Create(ctx, p))
	assert.NotNil(t, p.MemberIDs)

	completed := model.ProjectCompleted
	done, err := projects.List(ctx, &completed)
	require.NoError(t, err)
	assert.Empty(t, done)

	batch := []*model.Task{
		{ProjectID: p.ID, Name: "second", Status: model.TaskToDo, DueDate: time.Now().Add(48 * time.Hour)},
		{ProjectID: p.ID, Name: "first", Status: model.TaskToDo, DueDate: time.Now().Add(24 * time.Hour)},
	}
	require.NoError(t, tasks.CreateMany(ctx, batch))

	list, err := tasks.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Name)

	updated, err := tasks.UpdateStatus(ctx, batch[0].ID, model.TaskInProgress)
	require.NoError(t, err)
	assert.Equal(t, model.TaskInProgress, updated.Status)
}
