package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/google/uuid"
)

type TaskRepository interface {
	// CreateMany stores all tasks or none of them.
	CreateMany(ctx context.Context, tasks []*model.Task) error
	FindByID(ctx context.Context, id string) (*model.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Task, error)
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error)
}

type pgTaskRepository struct {
	db *sql.DB
}

func NewPgTaskRepository(db *sql.DB) TaskRepository {
	return &pgTaskRepository{db: db}
}

const taskColumns = `id, project_id, name, description, status, assigned_to_user_id, due_date, created_by_user_id, created_at, updated_at`

func (r *pgTaskRepository) CreateMany(ctx context.Context, tasks []*model.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgTaskRepository.CreateMany: begin: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	query := `INSERT INTO tasks (id, project_id, name, description, status, assigned_to_user_id, due_date, created_by_user_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		err := tx.QueryRowContext(ctx, query,
			t.ID, t.ProjectID, t.Name, t.Description, string(t.Status), t.AssignedToUserID, t.DueDate, t.CreatedByUserID,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("pgTaskRepository.CreateMany: insert %q: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgTaskRepository.CreateMany: commit: %w", err)
	}
	return nil
}

func (r *pgTaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTaskRepository.FindByID: %w", err)
	}
	return t, nil
}

func (r *pgTaskRepository) ListByProject(ctx context.Context, projectID string) ([]*model.Task, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return []*model.Task{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY due_date`, projectID)
	if err != nil {
		return nil, fmt.Errorf("pgTaskRepository.ListByProject: %w", err)
	}
	defer rows.Close()

	tasks := []*model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("pgTaskRepository.ListByProject: scan: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTaskRepository.ListByProject: %w", err)
	}
	return tasks, nil
}

func (r *pgTaskRepository) UpdateStatus(ctx context.Context, id string, status model.TaskStatus) (*model.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	query := `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + taskColumns
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, string(status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTaskRepository.UpdateStatus: %w", err)
	}
	return t, nil
}

func scanTask(row rowScanner) (*model.Task, error) {
	t := &model.Task{}
	var status string
	if err := row.Scan(
		&t.ID, &t.ProjectID, &t.Name, &t.Description, &status, &t.AssignedToUserID, &t.DueDate, &t.CreatedByUserID, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	st, err := model.ParseTaskStatus(status)
	if err != nil {
		return nil, err
	}
	t.Status = st
	return t, nil
}
