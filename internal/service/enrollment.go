package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// EnrollmentService covers per-semester enrollment.
type EnrollmentService struct {
	enrollments repository.EnrollmentRepository
	semesters   repository.SemesterRepository
	projects    repository.ProjectRepository
	logger      *slog.Logger
}

func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	semesters repository.SemesterRepository,
	projects repository.ProjectRepository,
	logger *slog.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		semesters:   semesters,
		projects:    projects,
		logger:      logger,
	}
}

// EnrollInput is the member-supplied part of an enrollment.
type EnrollInput struct {
	ProjectID *string `json:"projectId"`
	Credits   int     `json:"credits"`
}

// Enroll enrolls the viewer in the currently active semester, or updates
// their existing enrollment (members change projects and credit counts
// mid-semester, so a second enroll is an update, not an error).
//
// Gates, in order: completed profile, an active semester, and — when a
// project is named — that the project exists.
func (s *EnrollmentService) Enroll(ctx context.Context, viewer *model.User, input EnrollInput) (*model.Enrollment, error) {
	if !viewer.IsSetUp() {
		return nil, apperror.Forbidden("complete your profile and link your Discord and GitHub accounts first")
	}

	semester, err := s.semesters.GetActive(ctx, time.Now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Forbidden("enrollment is closed right now; there is no active semester")
		}
		return nil, fmt.Errorf("service/enrollment: resolving active semester: %w", err)
	}

	if input.Credits < 0 || input.Credits > 4 {
		return nil, apperror.ValidationFailed("credits", "must be between 0 and 4")
	}

	if input.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *input.ProjectID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("projectId", "no such project")
			}
			return nil, fmt.Errorf("service/enrollment: checking project %s: %w", *input.ProjectID, err)
		}
	}

	enrollment := &model.Enrollment{
		UserID:     viewer.ID,
		SemesterID: semester.ID,
		ProjectID:  input.ProjectID,
		Credits:    input.Credits,
	}

	if err := s.enrollments.Upsert(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("service/enrollment: enrolling user %s in %s: %w", viewer.ID, semester.ID, err)
	}

	s.logger.Info("enrollment recorded",
		slog.String("userID", viewer.ID),
		slog.String("semesterID", semester.ID),
		slog.Int("credits", input.Credits),
	)
	return enrollment, nil
}

// ListForUser returns all of a member's enrollments, newest semester first.
func (s *EnrollmentService) ListForUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/enrollment: listing enrollments for %s: %w", userID, err)
	}
	return enrollments, nil
}

// ListForSemester returns a semester's roster.
func (s *EnrollmentService) ListForSemester(ctx context.Context, semesterID string) ([]model.Enrollment, error) {
	if _, err := s.semesters.GetByID(ctx, semesterID); err != nil {
		return nil, fmt.Errorf("service/enrollment: resolving semester %s: %w", semesterID, err)
	}
	enrollments, err := s.enrollments.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, fmt.Errorf("service/enrollment: listing roster for %s: %w", semesterID, err)
	}
	return enrollments, nil
}

// Semesters lists every semester, newest first.
func (s *EnrollmentService) Semesters(ctx context.Context) ([]model.Semester, error) {
	semesters, err := s.semesters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/enrollment: listing semesters: %w", err)
	}
	return semesters, nil
}
