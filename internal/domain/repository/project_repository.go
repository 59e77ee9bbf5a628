package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/google/uuid"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id string) (*model.Project, error)
	// List returns every project when status is nil.
	List(ctx context.Context, status *model.ProjectStatus) ([]*model.Project, error)
}

type pgProjectRepository struct {
	db *sql.DB
}

func NewPgProjectRepository(db *sql.DB) ProjectRepository {
	return &pgProjectRepository{db: db}
}

const projectColumns = `id, name, slug, description, created_by_user_id, member_ids, status, created_at, updated_at`

func (r *pgProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	members, err := json.Marshal(nonNilStrings(p.MemberIDs))
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: marshal members: %w", err)
	}
	query := `INSERT INTO projects (id, name, slug, description, created_by_user_id, member_ids, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		p.ID, p.Name, p.Slug, p.Description, p.CreatedByUserID, string(members), string(p.Status),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgProjectRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*model.Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProjectRepository.FindByID: %w", err)
	}
	return p, nil
}

func (r *pgProjectRepository) List(ctx context.Context, status *model.ProjectStatus) ([]*model.Project, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == nil {
		rows, err = r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE status = $1 ORDER BY created_at DESC`, string(*status))
	}
	if err != nil {
		return nil, fmt.Errorf("pgProjectRepository.List: %w", err)
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("pgProjectRepository.List: scan: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgProjectRepository.List: %w", err)
	}
	return projects, nil
}

func scanProject(row rowScanner) (*model.Project, error) {
	p := &model.Project{}
	var members []byte
	var status string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.CreatedByUserID, &members, &status, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = model.ProjectStatus(status)
	p.MemberIDs = []string{}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &p.MemberIDs); err != nil {
			return nil, fmt.Errorf("decode member_ids: %w", err)
		}
	}
	return p, nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
