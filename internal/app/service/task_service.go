package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/sirupsen/logrus"
)

var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

type TaskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	log      logrus.FieldLogger
}

func NewTaskService(tasks repository.TaskRepository, projects repository.ProjectRepository, log logrus.FieldLogger) *TaskService {
	return &TaskService{tasks: tasks, projects: projects, log: log}
}

type TaskInput struct {
	ProjectID        string `json:"project_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	AssignedToUserID string `json:"assigned_to_user_id"`
	DueDate          string `json:"due_date"`
	CreatedByUserID  string `json:"created_by_user_id"`
}

var dueDateRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if _, err := parseDueDate(s); err != nil {
		return errors.New("must be a date (YYYY-MM-DD) or an RFC 3339 timestamp")
	}
	return nil
})

func (t TaskInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ProjectID, validation.Required),
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Description, validation.Required),
		validation.Field(&t.AssignedToUserID, validation.Required),
		validation.Field(&t.DueDate, validation.Required, dueDateRule),
	)
}

type AssignTasksResponse struct {
	Message string        `json:"message"`
	Tasks   []*model.Task `json:"tasks"`
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status"`
}

// AssignTasks validates the whole batch first and stores it only when every
// task is valid. New tasks always start in To Do.
func (s *TaskService) AssignTasks(ctx context.Context, callerID string, inputs []TaskInput) (*AssignTasksResponse, error) {
	if len(inputs) == 0 {
		return nil, common.NewValidationError(map[string]string{"tasks": "tasks array is required"})
	}

	fields := map[string]string{}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			var verrs validation.Errors
			if errors.As(err, &verrs) {
				for field, ferr := range verrs {
					fields[fmt.Sprintf("tasks[%d].%s", i, field)] = ferr.Error()
				}
				continue
			}
			fields[fmt.Sprintf("tasks[%d]", i)] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError(fields)
	}

	checked := map[string]bool{}
	for i, in := range inputs {
		pid := strings.TrimSpace(in.ProjectID)
		exists, ok := checked[pid]
		if !ok {
			_, err := s.projects.FindByID(ctx, pid)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, common.ErrNotFound):
				exists = false
			default:
				return nil, fmt.Errorf("TaskService.AssignTasks: find project: %w", err)
			}
			checked[pid] = exists
		}
		if !exists {
			fields[fmt.Sprintf("tasks[%d].project_id", i)] = "project does not exist"
		}
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError(fields)
	}

	tasks := make([]*model.Task, len(inputs))
	for i, in := range inputs {
		due, _ := parseDueDate(in.DueDate)
		creator := strings.TrimSpace(in.CreatedByUserID)
		if creator == "" {
			creator = callerID
		}
		tasks[i] = &model.Task{
			ProjectID:        strings.TrimSpace(in.ProjectID),
			Name:             in.Name,
			Description:      in.Description,
			Status:           model.TaskToDo,
			AssignedToUserID: in.AssignedToUserID,
			DueDate:          due,
			CreatedByUserID:  creator,
		}
	}
	if err := s.tasks.CreateMany(ctx, tasks); err != nil {
		return nil, fmt.Errorf("TaskService.AssignTasks: %w", err)
	}

	s.log.WithField("count", len(tasks)).Info("tasks assigned")
	return &AssignTasksResponse{
		Message: fmt.Sprintf("%d tasks created successfully", len(tasks)),
		Tasks:   tasks,
	}, nil
}

func (s *TaskService) ListProjectTasks(ctx context.Context, projectID string) ([]*model.Task, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("TaskService.ListProjectTasks: %w", err)
	}
	tasks, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("TaskService.ListProjectTasks: %w", err)
	}
	return tasks, nil
}

// UpdateStatus moves a task forward through To Do, In Progress and Completed.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID string, req UpdateTaskStatusRequest) (*model.Task, error) {
	next, err := model.ParseTaskStatus(req.Status)
	if err != nil {
		return nil, common.NewValidationError(map[string]string{"status": "must be one of To Do, In Progress, Completed"})
	}

	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("TaskService.UpdateStatus: %w", err)
	}
	if !task.Status.CanTransitionTo(next) {
		return nil, common.NewValidationError(map[string]string{
			"status": fmt.Sprintf("cannot move from %s to %s", task.Status, next),
		})
	}

	updated, err := s.tasks.UpdateStatus(ctx, taskID, next)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("TaskService.UpdateStatus: %w", err)
	}
	return updated, nil
}

func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
