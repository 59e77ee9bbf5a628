package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// UserRepository is the credential store. Email uniqueness is enforced by the
// store itself; Create reports a collision as common.ErrDuplicateEmail.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	// ListByStatus returns every user when status is nil.
	ListByStatus(ctx context.Context, status *model.UserStatus) ([]*model.User, error)
	UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status model.UserStatus) (*model.User, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, email, hashed_password, name, role, status, created_at, updated_at`

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `INSERT INTO users (id, email, hashed_password, name, role, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.HashedPassword, user.Name, nullableRole(user.Role), string(user.Status),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("pgUserRepository.Create: %w", common.ErrDuplicateEmail)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByEmail: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*model.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id IN (` + placeholders(len(valid)) + `) ORDER BY created_at`
	args := make([]interface{}, len(valid))
	for i, id := range valid {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.FindByIDs: %w", err)
	}
	return collectUsers(rows)
}

func (r *pgUserRepository) ListByStatus(ctx context.Context, status *model.UserStatus) ([]*model.User, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == nil {
		rows, err = r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY created_at`, string(*status))
	}
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListByStatus: %w", err)
	}
	return collectUsers(rows)
}

func (r *pgUserRepository) UpdateRoleStatus(ctx context.Context, id string, role *model.Role, status model.UserStatus) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	query := `UPDATE users SET role = $2, status = $3, updated_at = NOW()
	          WHERE id = $1
	          RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, nullableRole(role), string(status)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.UpdateRoleStatus: %w", err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var role sql.NullString
	var status string
	if err := row.Scan(
		&user.ID, &user.Email, &user.HashedPassword, &user.Name, &role, &status, &user.CreatedAt, &user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if role.Valid && role.String != "" {
		r := model.Role(role.String)
		user.Role = &r
	}
	st, err := model.ParseUserStatus(status)
	if err != nil {
		return nil, err
	}
	user.Status = st
	return user, nil
}

func collectUsers(rows *sql.Rows) ([]*model.User, error) {
	defer rows.Close()
	users := []*model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// placeholders returns "$1, $2, ..., $n".
func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}

func nullableRole(role *model.Role) sql.NullString {
	if role == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*role), Valid: true}
}
