package repository

import (
	"context"
	"sort"
	"sync"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"time"

	"github.com/google/uuid"
)

// In-process stores used by STORE_DRIVER=memory and by tests. Records are
// copied on the way in and out so callers never share state with the store.

type memoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]*model.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{
		byID:    map[string]*model.User{},
		byEmail: map[string]string{},
		now:     time.Now,
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return common.Errorf("memoryUserRepository.Create: %w", common.ErrDuplicateEmail)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.byID[user.ID] = copyUser(user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyUser(r.byID[id]), nil
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *memoryUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*model.User{}
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *memoryUserRepository) ListByStatus(ctx context.Context, status *model.UserStatus) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*model.User{}
	for _, u := range r.byID {
		if status == nil || u.Status == *status {
			users = append(users, copyUser(u))
		}
	}
	sortUsers(users)
	return users, nil
}

func (r *memoryUserRepository) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status model.UserStatus) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.Role = nil
	if role != nil {
		u.Role = model.RolePtr(*role)
	}
	u.Status = status
	u.UpdatedAt = r.now().UTC()
	return copyUser(u), nil
}

func copyUser(u *model.User) *model.User {
	cp := *u
	if u.Role != nil {
		cp.Role = model.RolePtr(*u.Role)
	}
	return &cp
}

func sortUsers(users []*model.User) {
	sort.SliceStable(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
}

type memoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*model.Project
	now      func() time.Time
}

func NewMemoryProjectRepository() ProjectRepository {
	return &memoryProjectRepository{projects: map[string]*model.Project{}, now: time.Now}
}

func (r *memoryProjectRepository) Create(ctx context.Context, p *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := r.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.MemberIDs = nonNilStrings(p.MemberIDs)
	r.projects[p.ID] = copyProject(p)
	return nil
}

func (r *memoryProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyProject(p), nil
}

func (r *memoryProjectRepository) List(ctx context.Context, status *model.ProjectStatus) ([]*model.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := []*model.Project{}
	for _, p := range r.projects {
		if status == nil || p.Status == *status {
			projects = append(projects, copyProject(p))
		}
	}
	sort.SliceStable(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func copyProject(p *model.Project) *model.Project {
	cp := *p
	cp.MemberIDs = append([]string{}, p.MemberIDs...)
	return &cp
}

type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*model.Task
	now   func() time.Time
}

func NewMemoryTaskRepository() TaskRepository {
	return &memoryTaskRepository{tasks: map[string]*model.Task{}, now: time.Now}
}

func (r *memoryTaskRepository) CreateMany(ctx context.Context, tasks []*model.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt, t.UpdatedAt = now, now
	}
	for _, t := range tasks {
		cp := *t
		r.tasks[t.ID] = &cp
	}
	return nil
}

func (r *memoryTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memoryTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []*model.Task{}
	for _, t := range r.tasks {
		if t.ProjectID == projectID {
			cp := *t
			tasks = append(tasks, &cp)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	return tasks, nil
}

func (r *memoryTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = r.now().UTC()
	cp := *t
	return &cp, nil
}
