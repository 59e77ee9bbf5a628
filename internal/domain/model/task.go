package model

import (
	"fmt"
	"time"
)

type TaskStatus string

const (
	TaskToDo       TaskStatus = "To Do"
	TaskInProgress TaskStatus = "In Progress"
	TaskCompleted  TaskStatus = "Completed"
)

func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskToDo, TaskInProgress, TaskCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// CanTransitionTo reports whether a task may move from s to next.
// Tasks only move forward; staying in place is allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	return next.rank() >= s.rank() && next.rank() > 0
}

func (s TaskStatus) rank() int {
	switch s {
	case TaskToDo:
		return 1
	case TaskInProgress:
		return 2
	case TaskCompleted:
		return 3
	default:
		return 0
	}
}

type Task struct {
	ID               string     `json:"_id"`
	ProjectID        string     `json:"project_id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Status           TaskStatus `json:"status"`
	AssignedToUserID string     `json:"assigned_to_user_id"`
	DueDate          time.Time  `json:"due_date"`
	CreatedByUserID  string     `json:"created_by_user_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
