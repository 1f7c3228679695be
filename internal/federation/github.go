package federation

import (
	"context"
	"strings"

	"go.pilab.hu/shadow-auth/domain"
	"golang.org/x/oauth2"
	githubOAuth2 "golang.org/x/oauth2/github"
)

var (
	GithubUserInfoEndpoint   = "https://api.github.com/user"
	GithubUserEmailsEndpoint = "https://api.github.com/user/emails"
)

// GitHubProvider signs users in with GitHub.
type GitHubProvider struct {
	*BaseProvider
	emailsURL string
}

// NewGitHubProvider creates a GitHubProvider. A UserInfoURL override moves the
// emails endpoint along with it.
func NewGitHubProvider(cfg ProviderConfig) *GitHubProvider {
	emailsURL := GithubUserEmailsEndpoint
	if cfg.UserInfoURL != "" {
		emailsURL = strings.TrimSuffix(cfg.UserInfoURL, "/") + "/emails"
	}
	return &GitHubProvider{
		BaseProvider: newBaseProvider(domain.ProviderGitHub, cfg, githubOAuth2.Endpoint, GithubUserInfoEndpoint,
			"read:user", "user:email"),
		emailsURL: emailsURL,
	}
}

// FetchAttributes loads /user. Users with a private email get the primary verified
// address from /user/emails written into "email".
func (g *GitHubProvider) FetchAttributes(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	attrs, err := g.BaseProvider.FetchAttributes(ctx, token)
	if err != nil {
		return nil, err
	}
	if email, _ := attrs["email"].(string); email != "" {
		return attrs, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := g.getJSON(ctx, token, g.emailsURL, &emails); err != nil {
		// Without an email the login is rejected further down, nothing else to do here.
		return attrs, nil
	}

	var fallback string
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			attrs["email"] = e.Email
			return attrs, nil
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	if fallback != "" {
		attrs["email"] = fallback
	}
	return attrs, nil
}

var _ OAuth2Provider = (*GitHubProvider)(nil)
