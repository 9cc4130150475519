package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// Discord API endpoints. Discord versions its REST API in the path.
const (
	discordAuthURL  = "https://discord.com/api/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordAPIBase  = "https://discord.com/api/v10"
)

// Discord is the Discord OAuth client plus the bot-authenticated guild
// operations the linking flow uses (add member, assign roles, kick).
//
// TWO KINDS OF CREDENTIALS:
// The OAuth exchange authenticates as the *user* (their access token lets
// us read their profile and, with the guilds.join scope, add them to a
// guild). The guild management calls authenticate as the club's *bot*
// (BotToken) — assigning roles and kicking members are bot permissions,
// not something a user token can do.
type Discord struct {
	Config   *oauth2.Config
	BotToken string // bot secret, sent as "Authorization: Bot <token>"
	GuildID  string // the club's Discord server
	APIBase  string // overridable in tests (httptest server URL)

	http *http.Client
}

// NewDiscord creates the Discord client.
//
// Scopes:
//   - "identify"    — read the user's id/username via /users/@me
//   - "guilds.join" — allows the bot to add this user to the guild
func NewDiscord(clientID, clientSecret, redirectURL, botToken, guildID string) *Discord {
	return &Discord{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"identify", "guilds.join"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  discordAuthURL,
				TokenURL: discordTokenURL,
			},
		},
		BotToken: botToken,
		GuildID:  guildID,
		APIBase:  discordAPIBase,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Name() string { return "discord" }

// AuthURL builds the consent URL. prompt=consent forces the approval
// screen even for returning users, so re-linking always re-grants the
// guilds.join scope (tokens from an old grant may have lost it).
func (d *Discord) AuthURL(state string) string {
	return d.Config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the authorization code for an access token.
func (d *Discord) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := d.Config.Exchange(ctx, code)
	if err != nil {
		return nil, wrapExchangeErr("discord", err)
	}
	return token, nil
}

// discordUser is the slice of the /users/@me response we care about.
// https://discord.com/developers/docs/resources/user#user-object
type discordUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// FetchIdentity fetches the authenticated Discord user's id and username.
//
// Legacy accounts still carry a non-zero discriminator ("user#1234");
// migrated accounts report "0" and are displayed as the bare username.
func (d *Discord) FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.APIBase+"/users/@me", nil)
	if err != nil {
		return nil, &Error{Provider: "discord", Op: "fetch identity", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &Error{Provider: "discord", Op: "fetch identity", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Provider: "discord", Op: "fetch identity", Status: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var u discordUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, &Error{Provider: "discord", Op: "fetch identity", Malformed: true, Err: err}
	}
	if u.ID == "" {
		return nil, &Error{
			Provider: "discord", Op: "fetch identity", Malformed: true,
			Err: fmt.Errorf("response missing user id"),
		}
	}

	username := u.Username
	if n, err := strconv.Atoi(u.Discriminator); err == nil && n > 0 {
		username = u.Username + "#" + u.Discriminator
	}

	return &Identity{ID: u.ID, Username: username}, nil
}

// UpsertGuildMember idempotently adds the user to the club guild, setting
// their nickname and assigning the given role IDs.
//
// Returns whether the user was newly added (Discord answers 201 for a new
// member, 204 when they were already in the guild). For existing members
// the nickname is patched separately, since the PUT body is ignored then.
//
// https://discord.com/developers/docs/resources/guild#add-guild-member
func (d *Discord) UpsertGuildMember(ctx context.Context, token *oauth2.Token, externalID, nick string, roles []string) (bool, error) {
	body := map[string]any{"access_token": token.AccessToken}
	if nick != "" {
		body["nick"] = nick
	}

	resp, err := d.botRequest(ctx, http.MethodPut,
		fmt.Sprintf("/guilds/%s/members/%s", d.GuildID, externalID), body)
	if err != nil {
		return false, err
	}
	if err := checkBotStatus("upsert member", resp); err != nil {
		return false, err
	}
	joined := resp.StatusCode == http.StatusCreated

	if !joined && nick != "" {
		resp, err := d.botRequest(ctx, http.MethodPatch,
			fmt.Sprintf("/guilds/%s/members/%s", d.GuildID, externalID),
			map[string]any{"nick": nick})
		if err != nil {
			return joined, err
		}
		if err := checkBotStatus("set nickname", resp); err != nil {
			return joined, err
		}
	}

	for _, role := range roles {
		resp, err := d.botRequest(ctx, http.MethodPut,
			fmt.Sprintf("/guilds/%s/members/%s/roles/%s", d.GuildID, externalID, role), nil)
		if err != nil {
			return joined, err
		}
		if err := checkBotStatus("assign role", resp); err != nil {
			return joined, err
		}
	}

	return joined, nil
}

// RemoveGuildMember kicks the user from the club guild. Used on unlink.
// https://discord.com/developers/docs/resources/guild#remove-guild-member
func (d *Discord) RemoveGuildMember(ctx context.Context, externalID string) error {
	resp, err := d.botRequest(ctx, http.MethodDelete,
		fmt.Sprintf("/guilds/%s/members/%s", d.GuildID, externalID), nil)
	if err != nil {
		return err
	}
	return checkBotStatus("remove member", resp)
}

// botRequest performs a bot-authenticated API call and drains the body.
// Callers only inspect the status code, so the body is closed here.
func (d *Discord) botRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Provider: "discord", Op: "encode request", Err: err}
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.APIBase+path, reader)
	if err != nil {
		return nil, &Error{Provider: "discord", Op: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bot "+d.BotToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, &Error{Provider: "discord", Op: method + " " + path, Err: err}
	}
	resp.Body.Close()
	return resp, nil
}

// checkBotStatus converts a non-2xx bot API response into a *Error.
func checkBotStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &Error{
		Provider: "discord", Op: op, Status: resp.StatusCode,
		Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
	}
}
