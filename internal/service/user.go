package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
)

// UserService covers the member directory and profile editing.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// ProfileUpdate carries the fields a member may change on their own
// profile. Pointer fields distinguish "leave unchanged" (nil) from "set
// to this value". The external identity links are deliberately absent —
// those only change through the identity engine.
type ProfileUpdate struct {
	FirstName      *string `json:"firstName"`
	LastName       *string `json:"lastName"`
	GraduationYear *int    `json:"graduationYear"`
}

// Get returns one member by ID.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", id, err)
	}
	return user, nil
}

// List returns members matching the options. The handler keeps
// unapproved members out of anonymous listings before calling.
func (s *UserService) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users, err := s.users.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// UpdateProfile applies the given changes to the viewer's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, viewer *model.User, update ProfileUpdate) (*model.User, error) {
	if update.FirstName != nil {
		viewer.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		viewer.LastName = *update.LastName
	}
	if update.GraduationYear != nil {
		year := *update.GraduationYear
		if year != 0 && (year < 1900 || year > time.Now().Year()+10) {
			return nil, apperror.ValidationFailed("graduationYear", "not a plausible graduation year")
		}
		viewer.GraduationYear = year
	}

	if err := s.users.Update(ctx, viewer); err != nil {
		return nil, fmt.Errorf("service/user: updating profile %s: %w", viewer.ID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", viewer.ID))
	return viewer, nil
}
