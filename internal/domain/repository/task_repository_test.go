package repository

import (
	"context"
	"errors"
	"regexp"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProjectID = "7d1f0e3a-2b4c-4d5e-8f60-718293a4b5c6"

var (
	taskRowColumns    = []string{"id", "project_id", "name", "description", "status", "assigned_to_user_id", "due_date", "created_by_user_id", "created_at", "updated_at"}
	projectRowColumns = []string{"id", "name", "slug", "description", "created_by_user_id", "member_ids", "status", "created_at", "updated_at"}
)

func TestPgTaskRepository_CreateManyCommits(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now()
	due := now.Add(24 * time.Hour)

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
			WithArgs(sqlmock.AnyArg(), testProjectID, sqlmock.AnyArg(), "", "To Do", testUserID, due, testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	}
	mock.ExpectCommit()

	tasks := []*model.Task{
		{ProjectID: testProjectID, Name: "design", Status: model.TaskToDo, AssignedToUserID: testUserID, DueDate: due, CreatedByUserID: testUserID},
		{ProjectID: testProjectID, Name: "build", Status: model.TaskToDo, AssignedToUserID: testUserID, DueDate: due, CreatedByUserID: testUserID},
	}
	require.NoError(t, repo.CreateMany(context.Background(), tasks))

	for _, task := range tasks {
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, now, task.CreatedAt)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTaskRepository_CreateManyRollsBack(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO tasks")).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	tasks := []*model.Task{
		{ProjectID: testProjectID, Name: "ok", Status: model.TaskToDo, DueDate: now},
		{ProjectID: testProjectID, Name: "broken", Status: model.TaskToDo, DueDate: now},
	}
	err := repo.CreateMany(context.Background(), tasks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `insert "broken"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTaskRepository_ListByProject(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE project_id = $1 ORDER BY due_date")).
		WithArgs(testProjectID).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow("t1", testProjectID, "design", "", "In Progress", testUserID, now, testUserID, now, now))

	tasks, err := repo.ListByProject(context.Background(), testProjectID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.TaskInProgress, tasks[0].Status)

	empty, err := repo.ListByProject(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTaskRepository_UpdateStatus(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgTaskRepository(db)
	now := time.Now()
	taskID := "5a6b7c8d-9e0f-4a1b-8c2d-3e4f5a6b7c8d"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks SET status = $2")).
		WithArgs(taskID, "Completed").
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(taskID, testProjectID, "design", "", "Completed", testUserID, now, testUserID, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks SET status = $2")).
		WithArgs(testUserID, "Completed").
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	task, err := repo.UpdateStatus(context.Background(), taskID, model.TaskCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, task.Status)

	_, err = repo.UpdateStatus(context.Background(), testUserID, model.TaskCompleted)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgProjectRepository_CreateAndFind(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgProjectRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO projects")).
		WithArgs(sqlmock.AnyArg(), "Launch", "launch", "", testUserID, `["`+testUserID+`"]`, "inProgress").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &model.Project{Name: "Launch", Slug: "launch", CreatedByUserID: testUserID, MemberIDs: []string{testUserID}, Status: model.ProjectInProgress}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NotEmpty(t, p.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE id = $1")).
		WithArgs(p.ID).
		WillReturnRows(sqlmock.NewRows(projectRowColumns).
			AddRow(p.ID, "Launch", "launch", "", testUserID, []byte(`["`+testUserID+`"]`), "inProgress", now, now))

	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{testUserID}, found.MemberIDs)
	assert.Equal(t, model.ProjectInProgress, found.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgProjectRepository_ListByStatus(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewPgProjectRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM projects WHERE status = $1")).
		WithArgs("Completed").
		WillReturnRows(sqlmock.NewRows(projectRowColumns).
			AddRow(testProjectID, "Done", "done", "", testUserID, nil, "Completed", now, now))

	completed := model.ProjectCompleted
	projects, err := repo.List(context.Background(), &completed)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, []string{}, projects[0].MemberIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
