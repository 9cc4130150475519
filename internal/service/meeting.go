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

// MeetingService covers the club calendar.
type MeetingService struct {
	meetings repository.MeetingRepository
	logger   *slog.Logger
}

func NewMeetingService(meetings repository.MeetingRepository, logger *slog.Logger) *MeetingService {
	return &MeetingService{meetings: meetings, logger: logger}
}

var meetingTypes = map[string]bool{
	model.MeetingSmallGroup: true,
	model.MeetingLargeGroup: true,
	model.MeetingWorkshop:   true,
	model.MeetingMentor:     true,
}

// CreateMeetingInput is the host-supplied part of a new meeting.
type CreateMeetingInput struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	Room        string    `json:"room"`
	Description string    `json:"description"`
	IsPublished bool      `json:"isPublished"`
}

// Create schedules a meeting hosted by the viewer.
func (s *MeetingService) Create(ctx context.Context, viewer *model.User, input CreateMeetingInput) (*model.Meeting, error) {
	if !meetingTypes[input.Type] {
		return nil, apperror.ValidationFailed("type", "unknown meeting type")
	}
	if input.StartsAt.IsZero() {
		return nil, apperror.ValidationFailed("startsAt", "must be set")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, apperror.ValidationFailed("endsAt", "must be after startsAt")
	}

	meeting := &model.Meeting{
		Name:        input.Name,
		Type:        input.Type,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
		Room:        input.Room,
		Description: input.Description,
		HostID:      &viewer.ID,
		IsPublished: input.IsPublished,
	}

	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("service/meeting: creating meeting: %w", err)
	}

	s.logger.Info("meeting scheduled",
		slog.String("meetingID", meeting.ID),
		slog.String("type", meeting.Type),
	)
	return meeting, nil
}

// Get returns one meeting. Drafts are hidden from anonymous viewers.
func (s *MeetingService) Get(ctx context.Context, viewer *model.User, id string) (*model.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/meeting: fetching meeting %s: %w", id, err)
	}
	if !meeting.IsPublished && viewer == nil {
		return nil, apperror.NotFound("meeting", id)
	}
	return meeting, nil
}

// List returns the calendar for [from, to). A zero from defaults to the
// start of the current month; a zero to defaults to from + 3 months.
// Anonymous viewers only see published meetings.
func (s *MeetingService) List(ctx context.Context, viewer *model.User, from, to time.Time) ([]model.Meeting, error) {
	if from.IsZero() {
		now := time.Now()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = from.AddDate(0, 3, 0)
	}
	if !to.After(from) {
		return nil, apperror.ValidationFailed("to", "must be after from")
	}

	meetings, err := s.meetings.List(ctx, from, to, viewer == nil)
	if err != nil {
		return nil, fmt.Errorf("service/meeting: listing meetings: %w", err)
	}
	return meetings, nil
}
