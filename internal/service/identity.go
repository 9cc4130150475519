// Package service — identity reconciliation.
//
// This file is the core of the portal's federated-identity handling: given
// the authorization code from a provider callback and the current viewer
// (signed-in user or nil), it completes the OAuth exchange, fetches the
// remote identity, and reconciles it against the member directory. Each
// invocation ends in exactly one terminal outcome:
//
//	Linked        — the identity was attached to the signed-in viewer
//	LinkConflict  — the identity already belongs to a different member
//	LoggedIn      — an anonymous visitor matched a stored link
//	NoMatch       — anonymous, no stored link; must sign in first
//	ProviderError — the provider flow itself failed (denied consent,
//	                exchange failure, profile fetch failure)
//
// DESIGN RULES (the parts that are easy to get wrong):
//
//   - Conflict detection is the database's job. The engine writes the
//     link and interprets apperror.ErrConflict from the save; it never
//     checks "is this id taken?" first. A pre-check would race: two
//     concurrent callbacks for the same external id could both pass the
//     check and both believe they linked.
//
//   - Re-linking is idempotent. The UNIQUE constraint never conflicts
//     with the row that already holds the value, so linking the same
//     account to the same member again reports Linked, not LinkConflict.
//
//   - The Discord guild join is best-effort. The identity link is the
//     durable side effect; if adding the member to the club's guild fails
//     afterwards, the link stands and the user sees a warning — never a
//     rollback.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"github.com/sakif/portal/internal/apperror"
	"github.com/sakif/portal/internal/model"
	"github.com/sakif/portal/internal/provider"
	"github.com/sakif/portal/internal/repository"
)

// FlowKind identifies the terminal outcome of one callback invocation.
type FlowKind int

const (
	FlowLinked FlowKind = iota
	FlowLinkConflict
	FlowLoggedIn
	FlowNoMatch
	FlowProviderError
)

// Notice levels, matching the flash-message levels the frontend renders.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is one user-visible message produced by a flow.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// FlowResult is the terminal state of a callback invocation. The handler
// turns it into flash messages, an optional session cookie (LoggedIn),
// and exactly one redirect.
type FlowResult struct {
	Kind     FlowKind
	Notices  []Notice
	Redirect string
	User     *model.User // the user to establish a session for; LoggedIn only
}

// Reporter receives unexpected errors for out-of-band collection. Provider
// failures and link conflicts are expected outcomes and are NOT reported;
// everything surprising (persistence failures outside the conflict path)
// is.
type Reporter interface {
	Report(err error)
}

// oauthClient is the slice of provider.Client the flows consume. Declared
// here so tests can substitute a fake without touching the network.
type oauthClient interface {
	Name() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchIdentity(ctx context.Context, token *oauth2.Token) (*provider.Identity, error)
}

// guildClient is the Discord community surface: best-effort membership of
// the club's guild.
type guildClient interface {
	UpsertGuildMember(ctx context.Context, token *oauth2.Token, externalID, nick string, roles []string) (bool, error)
	RemoveGuildMember(ctx context.Context, externalID string) error
}

// IdentityService is the reconciliation engine plus the unlink operations.
type IdentityService struct {
	users    repository.UserRepository
	discord  oauthClient
	github   oauthClient
	guild    guildClient
	reporter Reporter
	logger   *slog.Logger

	// verifiedRoleID is the Discord role granted to approved members on
	// join. Empty disables role assignment.
	verifiedRoleID string
}

// NewIdentityService wires the engine. discord must also be the guild
// client in production (*provider.Discord satisfies both); they are
// separate parameters so tests can fake them independently.
func NewIdentityService(
	users repository.UserRepository,
	discord oauthClient,
	github oauthClient,
	guild guildClient,
	verifiedRoleID string,
	reporter Reporter,
	logger *slog.Logger,
) *IdentityService {
	return &IdentityService{
		users:          users,
		discord:        discord,
		github:         github,
		guild:          guild,
		verifiedRoleID: verifiedRoleID,
		reporter:       reporter,
		logger:         logger,
	}
}

// DiscordAuthURL returns the Discord consent URL for the given CSRF state.
func (s *IdentityService) DiscordAuthURL(state string) string { return s.discord.AuthURL(state) }

// GitHubAuthURL returns the GitHub consent URL for the given CSRF state.
func (s *IdentityService) GitHubAuthURL(state string) string { return s.github.AuthURL(state) }

// CompleteDiscordFlow runs the Discord callback to its terminal outcome.
//
// viewer is the authenticated user for this request, or nil for an
// anonymous visitor — passed explicitly, never read from ambient state.
func (s *IdentityService) CompleteDiscordFlow(ctx context.Context, viewer *model.User, code string) FlowResult {
	token, ident, failed := s.beginFlow(ctx, s.discord, code, "Discord")
	if failed != nil {
		return *failed
	}

	if viewer == nil {
		return s.logIn(ctx, ident, "Discord", "/auth/discord",
			s.users.GetByDiscordUserID)
	}

	result := s.link(ctx, viewer, ident, "Discord",
		func(u *model.User) **string { return &u.DiscordUserID })
	if result.Kind != FlowLinked {
		return result
	}

	// Best-effort: put the member in the club guild with their display
	// name, granting the verified role to approved members. A failure
	// here degrades to a warning — the link above already committed.
	var roles []string
	if viewer.IsApproved && s.verifiedRoleID != "" {
		roles = []string{s.verifiedRoleID}
	}
	joined, err := s.guild.UpsertGuildMember(ctx, token, ident.ID, viewer.DisplayName(), roles)
	if err != nil {
		s.reporter.Report(err)
		s.logger.Warn("guild join failed after link",
			slog.String("userID", viewer.ID),
			slog.String("error", err.Error()),
		)
		result.Notices = append(result.Notices,
			Notice{LevelWarning, "Failed to add you to the club Discord server..."})
	} else if joined {
		result.Notices = append(result.Notices,
			Notice{LevelSuccess, "Added you to the club Discord server!"})
	}

	return result
}

// CompleteGitHubFlow runs the GitHub callback to its terminal outcome.
func (s *IdentityService) CompleteGitHubFlow(ctx context.Context, viewer *model.User, code string) FlowResult {
	_, ident, failed := s.beginFlow(ctx, s.github, code, "GitHub")
	if failed != nil {
		return *failed
	}

	if viewer == nil {
		return s.logIn(ctx, ident, "GitHub", "/auth/github",
			s.users.GetByGitHubUsername)
	}

	return s.link(ctx, viewer, ident, "GitHub",
		func(u *model.User) **string { return &u.GitHubUsername })
}

// beginFlow performs the provider-facing half shared by both flows:
// code check, token exchange, profile fetch. On failure it returns the
// terminal ProviderError result; on success the token and identity.
func (s *IdentityService) beginFlow(ctx context.Context, client oauthClient, code, label string) (*oauth2.Token, *provider.Identity, *FlowResult) {
	if code == "" {
		// The provider redirects back without a code when the user
		// denies the consent screen. No network calls happen.
		return nil, nil, &FlowResult{
			Kind:     FlowProviderError,
			Notices:  []Notice{{LevelError, fmt.Sprintf("Denied %s consent.", label)}},
			Redirect: "/profile",
		}
	}

	token, err := client.Exchange(ctx, code)
	if err != nil {
		return nil, nil, s.providerFailure(client.Name(), label, err)
	}

	ident, err := client.FetchIdentity(ctx, token)
	if err != nil {
		return nil, nil, s.providerFailure(client.Name(), label, err)
	}

	return token, ident, nil
}

// providerFailure converts a provider error into the terminal
// ProviderError result. A malformed token response (GitHub answers 200
// with an error body for a stale code) gets the softer "Try again."
// message since retrying genuinely helps there.
func (s *IdentityService) providerFailure(name, label string, err error) *FlowResult {
	s.reporter.Report(err)
	s.logger.Warn("provider flow failed",
		slog.String("provider", name),
		slog.String("error", err.Error()),
	)

	message := fmt.Sprintf("Yikes! Failed to link your %s.", label)
	var perr *provider.Error
	if errors.As(err, &perr) && perr.Malformed {
		message = fmt.Sprintf("Failed to link your %s. Try again.", label)
	}

	return &FlowResult{
		Kind:     FlowProviderError,
		Notices:  []Notice{{LevelError, message}},
		Redirect: "/profile",
	}
}

// link attaches the fetched identity to the signed-in viewer.
//
// field selects which external-identity pointer on the user to set. The
// previous value is restored when the save conflicts, so a LinkConflict
// leaves no partial mutation visible on the in-memory user either.
func (s *IdentityService) link(ctx context.Context, viewer *model.User, ident *provider.Identity, label string, field func(*model.User) **string) FlowResult {
	slot := field(viewer)
	prev := *slot
	*slot = &ident.ID

	if err := s.users.Update(ctx, viewer); err != nil {
		*slot = prev

		if errors.Is(err, apperror.ErrConflict) {
			return FlowResult{
				Kind: FlowLinkConflict,
				Notices: []Notice{{LevelWarning,
					fmt.Sprintf("%s account @%s is already linked to another user!", label, ident.Username)}},
				Redirect: "/profile",
			}
		}

		// Anything else is unexpected: collect it, tell the user
		// something generic, complete the request normally.
		s.reporter.Report(err)
		s.logger.Error("persisting identity link failed",
			slog.String("userID", viewer.ID),
			slog.String("error", err.Error()),
		)
		return FlowResult{
			Kind: FlowProviderError,
			Notices: []Notice{{LevelError,
				fmt.Sprintf("Failed to link your %s account...", label)}},
			Redirect: "/profile",
		}
	}

	s.logger.Info("linked external identity",
		slog.String("userID", viewer.ID),
		slog.String("provider", label),
	)

	return FlowResult{
		Kind: FlowLinked,
		Notices: []Notice{{LevelSuccess,
			fmt.Sprintf("Successfully linked %s account @%s to your profile.", label, ident.Username)}},
		Redirect: "/profile",
	}
}

// logIn resolves an anonymous callback: if exactly one member holds the
// fetched identity, a session is established for them; otherwise the
// visitor is sent to sign in by primary means first, with a continuation
// back to this provider's start endpoint.
func (s *IdentityService) logIn(ctx context.Context, ident *provider.Identity, label, startPath string, lookup func(context.Context, string) (*model.User, error)) FlowResult {
	user, err := lookup(ctx, ident.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return FlowResult{
				Kind: FlowNoMatch,
				Notices: []Notice{{LevelWarning, fmt.Sprintf(
					"No account found that matches your %s. Please sign in with email first and then link your %s account on your profile!",
					label, label)}},
				Redirect: "/login?next=" + startPath,
			}
		}

		s.reporter.Report(err)
		s.logger.Error("identity lookup failed",
			slog.String("provider", label),
			slog.String("error", err.Error()),
		)
		return FlowResult{
			Kind:     FlowProviderError,
			Notices:  []Notice{{LevelError, fmt.Sprintf("Failed to log you in with %s...", label)}},
			Redirect: "/profile",
		}
	}

	s.logger.Info("logged in via linked identity",
		slog.String("userID", user.ID),
		slog.String("provider", label),
	)

	return FlowResult{
		Kind:     FlowLoggedIn,
		Notices:  []Notice{{LevelSuccess, fmt.Sprintf("Logged in with your linked %s account.", label)}},
		Redirect: "/profile",
		User:     user,
	}
}

// UnlinkDiscord disconnects the viewer's Discord account.
//
// The member is kicked from the club guild first (they chose to leave the
// community); a kick failure is reported but doesn't block clearing the
// field. The whole operation is best-effort — any failure becomes a
// notice, never an error page.
func (s *IdentityService) UnlinkDiscord(ctx context.Context, viewer *model.User) Notice {
	if viewer.DiscordUserID != nil {
		if err := s.guild.RemoveGuildMember(ctx, *viewer.DiscordUserID); err != nil {
			s.reporter.Report(err)
			s.logger.Warn("guild kick on unlink failed",
				slog.String("userID", viewer.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return s.unlink(ctx, viewer, "Discord",
		func(u *model.User) **string { return &u.DiscordUserID })
}

// UnlinkGitHub disconnects the viewer's GitHub account.
func (s *IdentityService) UnlinkGitHub(ctx context.Context, viewer *model.User) Notice {
	return s.unlink(ctx, viewer, "GitHub",
		func(u *model.User) **string { return &u.GitHubUsername })
}

// unlink clears one external-identity field and persists. Unlinking an
// already-unlinked field is a no-op success.
func (s *IdentityService) unlink(ctx context.Context, viewer *model.User, label string, field func(*model.User) **string) Notice {
	slot := field(viewer)
	prev := *slot
	*slot = nil

	if err := s.users.Update(ctx, viewer); err != nil {
		*slot = prev
		s.reporter.Report(err)
		s.logger.Error("unlink failed",
			slog.String("userID", viewer.ID),
			slog.String("provider", label),
			slog.String("error", err.Error()),
		)
		return Notice{LevelError, fmt.Sprintf("Failed to unlink your %s account...", label)}
	}

	return Notice{LevelInfo, fmt.Sprintf("Successfully unlinked your %s account.", label)}
}
