package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/service"
)

// ProjectHandler covers project listings and proposals.
type ProjectHandler struct {
	projects *service.ProjectService
	authSvc  *service.AuthService
	logger   *slog.Logger
}

func NewProjectHandler(projects *service.ProjectService, authSvc *service.AuthService, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{projects: projects, authSvc: authSvc, logger: logger}
}

// HandleList returns projects matching the query. Anonymous viewers only
// see approved projects.
//
// HTTP: GET /api/projects?search=…&semester=…&limit=…&offset=…
// Auth: optional
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.optionalViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	projects, err := h.projects.List(r.Context(), viewer, listOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.Project{"projects": projects})
}

// HandleGet returns one project.
//
// HTTP: GET /api/projects/{id}
// Auth: optional
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.optionalViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Get(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// HandlePropose creates a new unapproved project owned by the viewer.
//
// HTTP: POST /api/projects
// Auth: required, and the viewer's profile must be set up
func (h *ProjectHandler) HandlePropose(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.optionalViewer(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if viewer == nil {
		writeError(w, apperror.Unauthorized("sign in required"))
		return
	}

	var input service.ProposeProjectInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.projects.Propose(r.Context(), viewer, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) optionalViewer(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, nil
	}
	return h.authSvc.GetUserByID(r.Context(), userID)
}
