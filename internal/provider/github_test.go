package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

// contains is a tiny readability helper for URL assertions.
func contains(s, substr string) bool { return strings.Contains(s, substr) }

// asProviderError unwraps err into *Error.
func asProviderError(err error, target **Error) bool { return errors.As(err, target) }

func tokenWith(accessToken string) *oauth2.Token {
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
}

func newTestGitHub(tokenURL, apiBase string) *GitHub {
	g := NewGitHub("client-id", "client-secret", "http://localhost/callback")
	if tokenURL != "" {
		g.Config.Endpoint.TokenURL = tokenURL
	}
	g.APIBase = apiBase
	return g
}

func TestGitHubAuthURL(t *testing.T) {
	g := newTestGitHub("", "")

	url := g.AuthURL("state-xyz")
	for _, want := range []string{"state=state-xyz", "read%3Auser", "client_id=client-id"} {
		if !contains(url, want) {
			t.Errorf("AuthURL missing %q: %s", want, url)
		}
	}
}

func TestGitHubExchange_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "gho_abc123", "token_type": "bearer",
		})
	}))
	defer srv.Close()

	g := newTestGitHub(srv.URL, "")
	token, err := g.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange() error = %v", err)
	}
	if token.AccessToken != "gho_abc123" {
		t.Errorf("AccessToken = %q", token.AccessToken)
	}
}

func TestGitHubExchange_ErrorBodyOn200IsMalformed(t *testing.T) {
	// GitHub's quirk: a bad or expired code comes back as HTTP 200 with an
	// error body and no access_token.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.Write([]byte("error=bad_verification_code&error_description=The+code+is+incorrect"))
	}))
	defer srv.Close()

	g := newTestGitHub(srv.URL, "")
	_, err := g.Exchange(context.Background(), "stale-code")

	var perr *Error
	if !asProviderError(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
	if !perr.Malformed {
		t.Errorf("200-with-error-body should be Malformed, got %+v", perr)
	}
}

func TestGitHubExchange_HTTPFailureKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := newTestGitHub(srv.URL, "")
	_, err := g.Exchange(context.Background(), "code")

	var perr *Error
	if !asProviderError(err, &perr) {
		t.Fatalf("err = %v, want *provider.Error", err)
	}
	if perr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", perr.Status)
	}
	if perr.Malformed {
		t.Error("an HTTP failure is not a malformed response")
	}
}

func TestGitHubFetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("path = %q, want /user", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); !contains(auth, "token-abc") {
			t.Errorf("Authorization = %q, want the access token", auth)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 42, "login": "octocat"})
	}))
	defer srv.Close()

	g := newTestGitHub("", srv.URL)
	ident, err := g.FetchIdentity(context.Background(), tokenWith("token-abc"))
	if err != nil {
		t.Fatalf("FetchIdentity() error = %v", err)
	}
	// The login is both the stored id and the display name.
	if ident.ID != "octocat" || ident.Username != "octocat" {
		t.Errorf("Identity = %+v, want octocat/octocat", ident)
	}
}

func TestGitHubFetchIdentity_MissingLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 42})
	}))
	defer srv.Close()

	g := newTestGitHub("", srv.URL)
	_, err := g.FetchIdentity(context.Background(), tokenWith("token-abc"))

	var perr *Error
	if !asProviderError(err, &perr) || !perr.Malformed {
		t.Fatalf("missing login should be a malformed response, got %v", err)
	}
}
