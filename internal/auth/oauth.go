package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/quayside/quayside/internal/config"
)

// Identity is the subset of an OAuth provider's profile Quayside keeps.
type Identity struct {
	Provider  string
	Email     string
	Username  string
	Name      string
	AvatarURL string
}

// Provider wraps one OAuth authorization-code flow.
type Provider struct {
	Name string
	cfg  *oauth2.Config
}

// NewGitHub builds the GitHub login provider. baseURL is the externally
// visible server URL used to derive the callback address.
func NewGitHub(client config.OAuthClient, baseURL string) *Provider {
	return &Provider{
		Name: "github",
		cfg: &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			Endpoint:     endpoints.GitHub,
			RedirectURL:  baseURL + "/api/v1/callback/github",
			Scopes:       []string{"read:user", "user:email"},
		},
	}
}

// NewGoogle builds the Google login provider.
func NewGoogle(client config.OAuthClient, baseURL string) *Provider {
	return &Provider{
		Name: "google",
		cfg: &oauth2.Config{
			ClientID:     client.ClientID,
			ClientSecret: client.ClientSecret,
			Endpoint:     endpoints.Google,
			RedirectURL:  baseURL + "/api/v1/callback/google",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
		},
	}
}

// Configured reports whether the provider has credentials.
func (p *Provider) Configured() bool {
	return p.cfg.ClientID != "" && p.cfg.ClientSecret != ""
}

// AuthURL returns the provider's authorization page URL for the given
// anti-forgery state.
func (p *Provider) AuthURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: %s code exchange: %w", p.Name, err)
	}
	client := p.cfg.Client(ctx, token)

	switch p.Name {
	case "github":
		return githubIdentity(ctx, client)
	case "google":
		return googleIdentity(ctx, client)
	default:
		return nil, fmt.Errorf("auth: unknown provider %q", p.Name)
	}
}

// githubIdentity fetches the authenticated GitHub user, preferring the
// primary verified email when the profile email is private.
func githubIdentity(ctx context.Context, httpClient *http.Client) (*Identity, error) {
	gh := github.NewClient(httpClient)

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("auth: fetch github user: %w", err)
	}

	email := user.GetEmail()
	if email == "" {
		emails, _, err := gh.Users.ListEmails(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("auth: fetch github emails: %w", err)
		}
		for _, e := range emails {
			if e.GetPrimary() && e.GetVerified() {
				email = e.GetEmail()
				break
			}
		}
	}
	if email == "" {
		return nil, fmt.Errorf("auth: github account has no usable email")
	}

	return &Identity{
		Provider:  "github",
		Email:     email,
		Username:  user.GetLogin(),
		Name:      user.GetName(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

// googleUserinfoURL is Google's OpenID userinfo endpoint.
const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

func googleIdentity(ctx context.Context, httpClient *http.Client) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserinfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: build userinfo request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch google userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: google userinfo returned %s", resp.Status)
	}

	var info struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("auth: decode google userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("auth: google account has no email")
	}

	return &Identity{
		Provider:  "google",
		Email:     info.Email,
		Username:  info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}, nil
}
