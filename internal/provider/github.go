package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// GitHub is the GitHub OAuth client. Unlike Discord there are no
// community-management extras — linking GitHub only records the username
// so project contributions can be attributed to members.
type GitHub struct {
	Config  *oauth2.Config
	APIBase string // overridable in tests
}

// NewGitHub creates the GitHub client.
//
// We request only "read:user" — enough to read the profile; we never act
// on the member's behalf on GitHub.
func NewGitHub(clientID, clientSecret, redirectURL string) *GitHub {
	return &GitHub{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user"},
			Endpoint:     githuboauth.Endpoint,
		},
		APIBase: githubAPIBase,
	}
}

func (g *GitHub) Name() string { return "github" }

// AuthURL builds the consent URL for GitHub's authorization page.
func (g *GitHub) AuthURL(state string) string {
	return g.Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for an access token.
//
// GitHub has a quirk the classifier in wrapExchangeErr exists for: a bad
// or reused code comes back as HTTP 200 with an error body, which the
// oauth2 package surfaces as "missing access_token". That maps to the
// Malformed kind and gets its own "Try again." message in the flow.
func (g *GitHub) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return nil, wrapExchangeErr("github", err)
	}
	return token, nil
}

// githubUser is the portion of the GitHub /user response we care about.
// https://docs.github.com/en/rest/users/users#get-the-authenticated-user
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// FetchIdentity fetches the authenticated GitHub user's login.
//
// The login doubles as the external id: the portal stores github_username,
// matching how project repositories and contribution stats reference
// members everywhere else.
func (g *GitHub) FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := g.Config.Client(ctx, token)

	resp, err := client.Get(g.APIBase + "/user")
	if err != nil {
		return nil, &Error{Provider: "github", Op: "fetch identity", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Provider: "github", Op: "fetch identity", Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var u githubUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, &Error{Provider: "github", Op: "fetch identity", Malformed: true, Err: err}
	}
	if u.Login == "" {
		return nil, &Error{
			Provider: "github", Op: "fetch identity", Malformed: true,
			Err: fmt.Errorf("response missing login"),
		}
	}

	return &Identity{ID: u.Login, Username: u.Login}, nil
}
