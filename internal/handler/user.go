package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/repository"
	"github.com/sakif/portal/internal/service"
)

// UserHandler covers the member directory, profile editing, and
// enrollment.
type UserHandler struct {
	users       *service.UserService
	authSvc     *service.AuthService
	enrollments *service.EnrollmentService
	logger      *slog.Logger
}

func NewUserHandler(
	users *service.UserService,
	authSvc *service.AuthService,
	enrollments *service.EnrollmentService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{users: users, authSvc: authSvc, enrollments: enrollments, logger: logger}
}

// HandleList returns members matching the query.
//
// HTTP: GET /api/users?search=…&semester=…&limit=…&offset=…
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)
	users, err := h.users.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.User{"users": users})
}

// HandleGet returns one member with their enrollments.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	enrollments, err := h.enrollments.ListForUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"enrollments": enrollments,
	})
}

// HandleEnroll enrolls the viewer in the active semester.
//
// HTTP: POST /api/users/{id}/enroll
// Auth: required; members enroll only themselves
func (h *UserHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.requireViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if chi.URLParam(r, "id") != viewer.ID {
		writeError(w, apperror.Forbidden("you can only enroll yourself"))
		return
	}

	var input service.EnrollInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	enrollment, err := h.enrollments.Enroll(r.Context(), viewer, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

// HandleGetProfile returns the viewer's own full record.
//
// HTTP: GET /api/profile
// Auth: required
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.requireViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    viewer,
		"isSetUp": viewer.IsSetUp(),
	})
}

// HandleUpdateProfile edits the viewer's own profile fields.
//
// HTTP: PUT /api/profile
// Auth: required
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.requireViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var update service.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), viewer, update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    updated,
		"isSetUp": updated.IsSetUp(),
	})
}

// HandleSemesters lists every semester, newest first.
//
// HTTP: GET /api/semesters
func (h *UserHandler) HandleSemesters(w http.ResponseWriter, r *http.Request) {
	semesters, err := h.enrollments.Semesters(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Semester{"semesters": semesters})
}

func (h *UserHandler) requireViewer(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, apperror.Unauthorized("sign in required")
	}
	return h.authSvc.GetUserByID(r.Context(), userID)
}

// listOptions reads the common list query parameters. Bad numbers fall
// back to defaults rather than erroring — the repository clamps anyway.
func listOptions(r *http.Request) repository.ListOptions {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return repository.ListOptions{
		Limit:      limit,
		Offset:     offset,
		Search:     q.Get("search"),
		SemesterID: q.Get("semester"),
	}
}
