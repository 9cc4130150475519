// Package provider implements the external identity provider clients.
//
// Two providers are supported: Discord (the chat platform the club runs
// its community on) and GitHub (where project repositories live). Both
// follow the OAuth 2.0 Authorization Code flow via golang.org/x/oauth2:
//
//  1. We redirect the browser to the provider's consent screen (AuthURL)
//  2. The provider calls back with a short-lived code
//  3. We exchange the code for an access token (Exchange)
//  4. We fetch the remote profile with the token (FetchIdentity)
//
// The reconciliation engine (internal/service/identity.go) drives these
// steps and decides what the fetched identity means for the local account.
// Every network call here is a single attempt — retries are never the
// client's call to make; the engine converts any failure into a terminal
// user-facing outcome.
package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Identity is the result of a successful remote profile fetch: the
// provider's opaque stable ID and a human-readable username. It lives for
// one callback invocation and is never persisted as its own record.
type Identity struct {
	ID       string // stable external id (Discord snowflake, GitHub login)
	Username string // display username, used only in flash messages
}

// Client is the per-provider OAuth surface the reconciliation engine
// consumes. Discord's guild-membership extras are on *Discord directly —
// the engine type-asserts for them only in the Discord flow.
type Client interface {
	// Name identifies the provider ("discord" or "github").
	Name() string

	// AuthURL builds the consent-redirect URL. Pure and deterministic:
	// client id, redirect URI, and scopes are baked in at construction.
	AuthURL(state string) string

	// Exchange trades an authorization code for an access token.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchIdentity fetches the authenticated remote user's id and
	// username using the access token.
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error)
}

// Error is the failure type for every provider operation that crosses the
// network. The engine matches on its fields rather than parsing messages:
//
//   - Status    — upstream HTTP status, 0 if the request never completed
//   - Malformed — the response arrived but a required field was missing
//     (e.g. a token response without access_token)
type Error struct {
	Provider  string // "discord" or "github"
	Op        string // "exchange", "fetch identity", "upsert member", ...
	Status    int
	Malformed bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider/%s: %s: status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("provider/%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapExchangeErr classifies an error from oauth2.Config.Exchange.
//
// The oauth2 package returns *RetrieveError for non-2xx token responses
// (we keep the status), and a plain error when the response was 2xx but
// unusable — most commonly a body missing access_token. The latter is the
// "malformed response" kind, which the GitHub flow reports with its own
// "Try again." message.
func wrapExchangeErr(providerName string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return &Error{Provider: providerName, Op: "exchange", Status: status, Err: err}
	}
	return &Error{Provider: providerName, Op: "exchange", Malformed: true, Err: err}
}
