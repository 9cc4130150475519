package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// ProjectService covers project listings and member proposals.
type ProjectService struct {
	projects repository.ProjectRepository
	logger   *slog.Logger
}

func NewProjectService(projects repository.ProjectRepository, logger *slog.Logger) *ProjectService {
	return &ProjectService{projects: projects, logger: logger}
}

// ProposeProjectInput is the member-supplied part of a new project.
type ProposeProjectInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Tags            string `json:"tags"`
	ExternalChatURL string `json:"externalChatUrl"`
	HomepageURL     string `json:"homepageUrl"`
}

// Propose creates a new unapproved project owned by the viewer.
//
// Proposing is gated on a completed profile: members must have their name
// filled in and both external accounts linked before creating records
// other members will see. That keeps every project owner reachable on
// Discord and attributable on GitHub.
func (s *ProjectService) Propose(ctx context.Context, viewer *model.User, input ProposeProjectInput) (*model.Project, error) {
	if !viewer.IsSetUp() {
		return nil, apperror.Forbidden("complete your profile and link your Discord and GitHub accounts first")
	}

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperror.ValidationFailed("name", "must not be empty")
	}
	if len(input.Name) > 100 {
		return nil, apperror.ValidationFailed("name", "must be 100 characters or fewer")
	}

	project := &model.Project{
		Name:            input.Name,
		Description:     input.Description,
		Tags:            input.Tags,
		ExternalChatURL: input.ExternalChatURL,
		HomepageURL:     input.HomepageURL,
		OwnerID:         &viewer.ID,
		OrganizationID:  viewer.OrganizationID,
		IsApproved:      false, // admins approve before public listing
	}

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("service/project: creating project: %w", err)
	}

	s.logger.Info("project proposed",
		slog.String("projectID", project.ID),
		slog.String("ownerID", viewer.ID),
	)
	return project, nil
}

// Get returns one project. Unapproved projects are hidden from anonymous
// viewers; members can see any project (they may be enrolled on a draft).
func (s *ProjectService) Get(ctx context.Context, viewer *model.User, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/project: fetching project %s: %w", id, err)
	}
	if !project.IsApproved && viewer == nil {
		return nil, apperror.NotFound("project", id)
	}
	return project, nil
}

// List returns projects matching the options. Anonymous viewers only see
// approved projects.
func (s *ProjectService) List(ctx context.Context, viewer *model.User, opts repository.ListOptions) ([]model.Project, error) {
	projects, err := s.projects.List(ctx, opts, viewer == nil)
	if err != nil {
		return nil, fmt.Errorf("service/project: listing projects: %w", err)
	}
	return projects, nil
}
