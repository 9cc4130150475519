package handler

// Flash messages carry flow outcomes across the redirect at the end of a
// provider callback. The callback handler sets one short-lived cookie
// holding the notices; after the browser lands on the redirect target,
// the frontend calls GET /api/flash, which returns the notices and
// clears the cookie. One cookie, read once.
//
// The payload is base64url(JSON) — notice text can contain characters
// that are illegal in a cookie value, usernames especially.

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/sakif/portal/internal/service"
)

const flashCookie = "flash"

// setFlashes stores the notices in the flash cookie. No notices clears
// any stale cookie instead.
func setFlashes(w http.ResponseWriter, notices []service.Notice) {
	if len(notices) == 0 {
		clearFlashes(w)
		return
	}

	payload, err := json.Marshal(notices)
	if err != nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   300, // survives the redirect, not the afternoon
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearFlashes(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FlashHandler serves the pending notices.
type FlashHandler struct{}

func NewFlashHandler() *FlashHandler { return &FlashHandler{} }

// HandleGet returns the pending notices and clears them.
//
// HTTP: GET /api/flash
//
// A missing or unreadable cookie yields an empty list, not an error —
// polling for flashes on every page load must be cheap and quiet.
func (h *FlashHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	notices := []service.Notice{}

	if cookie, err := r.Cookie(flashCookie); err == nil && cookie.Value != "" {
		if payload, err := base64.RawURLEncoding.DecodeString(cookie.Value); err == nil {
			// A decode failure just means a tampered cookie; drop it.
			_ = json.Unmarshal(payload, &notices)
		}
		clearFlashes(w)
	}

	writeJSON(w, http.StatusOK, map[string][]service.Notice{"notices": notices})
}
