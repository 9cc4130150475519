package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/auth"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/service"
)

// AuthHandler covers the primary email+password endpoints and the
// external-identity flow endpoints:
//
//	POST /auth/register            → create account, set session cookie
//	POST /auth/login               → verify credentials, set session cookie
//	POST /auth/logout              → clear session cookie
//	GET  /api/me                   → current user's profile
//	GET  /auth/{provider}          → redirect to provider consent page
//	GET  /auth/{provider}/callback → complete the flow (link or login)
//	POST /auth/{provider}/unlink   → disconnect the account
//
// The two callback endpoints are mounted behind OptionalAuth: the same
// URL serves both the signed-in "link" branch and the anonymous "log me
// in" branch, and the identity engine picks the branch from the viewer.
type AuthHandler struct {
	authSvc  *service.AuthService
	identity *service.IdentityService
	logger   *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, identity *service.IdentityService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, identity: identity, logger: logger}
}

const stateCookie = "oauth_state"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and signs the new member in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// POST, not GET: logout changes state, and a GET would be triggerable by
// a prefetch or a cross-site image tag. The token stays technically valid
// until expiry; without the cookie the browser can't present it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's own record.
//
// HTTP: GET /api/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	viewer, err := h.viewer(r)
	if err != nil || viewer == nil {
		writeError(w, apperror.Unauthorized("sign in required"))
		return
	}
	writeJSON(w, http.StatusOK, viewer)
}

// HandleDiscordStart redirects the browser to Discord's consent page.
//
// HTTP: GET /auth/discord
//
// The random state value goes in a short-lived HttpOnly cookie; the
// callback rejects any response whose state doesn't match it. That ties
// the callback to a start made by this browser.
func (h *AuthHandler) HandleDiscordStart(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.identity.DiscordAuthURL)
}

// HandleGitHubStart redirects the browser to GitHub's consent page.
//
// HTTP: GET /auth/github
func (h *AuthHandler) HandleGitHubStart(w http.ResponseWriter, r *http.Request) {
	h.start(w, r, h.identity.GitHubAuthURL)
}

func (h *AuthHandler) start(w http.ResponseWriter, r *http.Request, authURL func(string) string) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes: enough to read the consent page
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL(state), http.StatusTemporaryRedirect)
}

// HandleDiscordCallback completes the Discord flow.
//
// HTTP: GET /auth/discord/callback?code=xxx&state=yyy
// Auth: optional — signed-in viewers link, anonymous viewers log in
func (h *AuthHandler) HandleDiscordCallback(w http.ResponseWriter, r *http.Request) {
	h.callback(w, r, h.identity.CompleteDiscordFlow)
}

// HandleGitHubCallback completes the GitHub flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
// Auth: optional
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	h.callback(w, r, h.identity.CompleteGitHubFlow)
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request, complete func(ctx context.Context, viewer *model.User, code string) service.FlowResult) {
	// CSRF check. A missing or mismatched state means this callback was
	// not started by this browser — stop before touching the code.
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("oauth callback: state check failed")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	viewer, err := h.viewer(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result := complete(r.Context(), viewer, r.URL.Query().Get("code"))

	if result.Kind == service.FlowLoggedIn && result.User != nil {
		session, err := h.authSvc.IssueSession(result.User)
		if err != nil {
			writeError(w, err)
			return
		}
		setSessionCookie(w, session.Token)
	}

	setFlashes(w, result.Notices)
	http.Redirect(w, r, result.Redirect, http.StatusSeeOther)
}

// HandleDiscordUnlink disconnects the viewer's Discord account.
//
// HTTP: POST /auth/discord/unlink
// Auth: required
func (h *AuthHandler) HandleDiscordUnlink(w http.ResponseWriter, r *http.Request) {
	h.unlink(w, r, h.identity.UnlinkDiscord)
}

// HandleGitHubUnlink disconnects the viewer's GitHub account.
//
// HTTP: POST /auth/github/unlink
// Auth: required
func (h *AuthHandler) HandleGitHubUnlink(w http.ResponseWriter, r *http.Request) {
	h.unlink(w, r, h.identity.UnlinkGitHub)
}

func (h *AuthHandler) unlink(w http.ResponseWriter, r *http.Request, op func(context.Context, *model.User) service.Notice) {
	viewer, err := h.viewer(r)
	if err != nil || viewer == nil {
		writeError(w, apperror.Unauthorized("sign in required"))
		return
	}

	notice := op(r.Context(), viewer)
	writeJSON(w, http.StatusOK, map[string]any{
		"notice": notice,
		"user":   viewer,
	})
}

// viewer resolves the request's authenticated user, or nil for anonymous.
func (h *AuthHandler) viewer(r *http.Request) (*model.User, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil, nil
	}
	return h.authSvc.GetUserByID(r.Context(), userID)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true behind HTTPS; left off for local development.
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
