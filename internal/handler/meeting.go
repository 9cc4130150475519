package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/service"
)

// MeetingHandler covers the club calendar.
type MeetingHandler struct {
	meetings *service.MeetingService
	authSvc  *service.AuthService
	logger   *slog.Logger
}

func NewMeetingHandler(meetings *service.MeetingService, authSvc *service.AuthService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, authSvc: authSvc, logger: logger}
}

// HandleList returns meetings in a date window. Anonymous viewers only
// see published meetings.
//
// HTTP: GET /api/meetings?from=RFC3339&to=RFC3339
// Auth: optional
func (h *MeetingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	meetings, err := h.meetings.List(r.Context(), viewer, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Meeting{"meetings": meetings})
}

// HandleGet returns one meeting.
//
// HTTP: GET /api/meetings/{id}
// Auth: optional
func (h *MeetingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	meeting, err := h.meetings.Get(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meeting)
}

// HandleCreate schedules a meeting hosted by the viewer.
//
// HTTP: POST /api/meetings
// Auth: required
func (h *MeetingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if viewer == nil {
		writeError(w, apperror.Unauthorized("sign in required"))
		return
	}

	var input service.CreateMeetingInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	meeting, err := h.meetings.Create(r.Context(), viewer, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meeting)
}

func (h *MeetingHandler) viewer(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, nil
	}
	return h.authSvc.GetUserByID(r.Context(), userID)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(name, "must be an RFC 3339 timestamp")
	}
	return t, nil
}
