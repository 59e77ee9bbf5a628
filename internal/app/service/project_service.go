package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"taskboard/internal/common"
	"taskboard/internal/domain/model"
	"taskboard/internal/domain/repository"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	log      logrus.FieldLogger
}

func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository, log logrus.FieldLogger) *ProjectService {
	return &ProjectService{projects: projects, users: users, log: log}
}

type CreateProjectRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CreatedByUserID string   `json:"created_by_user_id"`
	MemberIDs       []string `json:"member_ids"`
	Status          string   `json:"status"`
}

func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Description, validation.Required),
		validation.Field(&r.Status, validation.In(string(model.ProjectInProgress), string(model.ProjectCompleted))),
	)
}

// CreateProject stores a new project. The creator defaults to the caller and
// duplicate member ids are dropped.
func (s *ProjectService) CreateProject(ctx context.Context, callerID string, req CreateProjectRequest) (*model.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return nil, common.FromValidation(err)
	}

	status := model.ProjectStatus(req.Status)
	if status == "" {
		status = model.ProjectInProgress
	}
	creator := strings.TrimSpace(req.CreatedByUserID)
	if creator == "" {
		creator = callerID
	}

	project := &model.Project{
		Name:            req.Name,
		Slug:            slug.Make(req.Name),
		Description:     req.Description,
		CreatedByUserID: creator,
		MemberIDs:       uniqueIDs(req.MemberIDs),
		Status:          status,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("ProjectService.CreateProject: %w", err)
	}

	s.log.WithFields(logrus.Fields{"project_id": project.ID, "slug": project.Slug}).Info("project created")
	return project, nil
}

// ListProjects returns every project when status is nil.
func (s *ProjectService) ListProjects(ctx context.Context, status *model.ProjectStatus) ([]*model.Project, error) {
	projects, err := s.projects.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("ProjectService.ListProjects: %w", err)
	}
	return projects, nil
}

// MembersDetails resolves the project's member ids to user records. Ids that
// no longer match a user are skipped.
func (s *ProjectService) MembersDetails(ctx context.Context, projectID string) (*model.ProjectDetails, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, common.NewValidationError(map[string]string{"project_id": "query parameter is required"})
	}

	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("ProjectService.MembersDetails: %w", err)
	}

	members, err := s.users.FindByIDs(ctx, project.MemberIDs)
	if err != nil {
		return nil, fmt.Errorf("ProjectService.MembersDetails: members: %w", err)
	}
	for i, m := range members {
		members[i] = m.Public()
	}
	return &model.ProjectDetails{Project: *project, MembersDetails: members}, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
