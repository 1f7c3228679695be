package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.pilab.hu/shadow-auth/domain"
	"golang.org/x/oauth2"
)

// ProviderConfig holds the client registration for one identity provider.
// The URL fields override the provider's well-known endpoints when set.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scopes       []string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// OAuth2Provider drives the authorization code flow against one external identity provider
// and returns the provider's raw profile attributes.
//
//go:generate go run go.uber.org/mock/mockgen -source=$GOFILE -destination=mock/mock_$GOFILE -package=mock_$GOPACKAGE OAuth2Provider
type OAuth2Provider interface {
	// Name returns the provider key, e.g. "google".
	Name() domain.Provider

	// GetOAuth2Config returns the client configuration for the given callback URL.
	GetOAuth2Config(redirectURL string) (*oauth2.Config, error)

	// GetAuthCodeURL builds the URL the browser is sent to. The state parameter protects against CSRF.
	GetAuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error)

	// ExchangeCode exchanges an authorization code for a token.
	ExchangeCode(ctx context.Context, redirectURL string, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

	// FetchAttributes loads the user's profile as a raw attribute map.
	FetchAttributes(ctx context.Context, token *oauth2.Token) (map[string]any, error)
}

// BaseProvider implements OAuth2Provider for providers exposing a single JSON userinfo endpoint.
// Specific providers embed it and override what differs.
type BaseProvider struct {
	name        domain.Provider
	config      ProviderConfig
	endpoint    oauth2.Endpoint
	userInfoURL string
}

func newBaseProvider(
	name domain.Provider,
	cfg ProviderConfig,
	endpoint oauth2.Endpoint,
	userInfoURL string,
	requiredScopes ...string,
) *BaseProvider {
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL != "" {
		userInfoURL = cfg.UserInfoURL
	}
	cfg.Scopes = mergeScopes(cfg.Scopes, requiredScopes)

	return &BaseProvider{
		name:        name,
		config:      cfg,
		endpoint:    endpoint,
		userInfoURL: userInfoURL,
	}
}

func (b *BaseProvider) Name() domain.Provider {
	return b.name
}

// Scopes returns the scopes requested at the authorization endpoint.
func (b *BaseProvider) Scopes() []string {
	return b.config.Scopes
}

func (b *BaseProvider) GetOAuth2Config(redirectURL string) (*oauth2.Config, error) {
	if b.config.ClientID == "" || b.config.ClientSecret == "" {
		return nil, ErrProviderMisconfigured
	}
	return &oauth2.Config{
		ClientID:     b.config.ClientID,
		ClientSecret: b.config.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       b.config.Scopes,
		Endpoint:     b.endpoint,
	}, nil
}

func (b *BaseProvider) GetAuthCodeURL(state, redirectURL string, opts ...oauth2.AuthCodeOption) (string, error) {
	conf, err := b.GetOAuth2Config(redirectURL)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, opts...), nil
}

func (b *BaseProvider) ExchangeCode(ctx context.Context, redirectURL string, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	conf, err := b.GetOAuth2Config(redirectURL)
	if err != nil {
		return nil, err
	}
	return conf.Exchange(ctx, code, opts...)
}

func (b *BaseProvider) FetchAttributes(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	var attrs map[string]any
	if err := b.getJSON(ctx, token, b.userInfoURL, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (b *BaseProvider) httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	conf, err := b.GetOAuth2Config("")
	if err != nil {
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}
	return conf.Client(ctx, token)
}

// getJSON decodes numbers as json.Number so large numeric ids survive intact.
func (b *BaseProvider) getJSON(ctx context.Context, token *oauth2.Token, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient(ctx, token).Do(req)
	if err != nil {
		return fmt.Errorf("%s: request %s: %w", b.name, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s: unexpected status %d from %s: %s", b.name, resp.StatusCode, url, string(body))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: decode %s: %w", b.name, url, err)
	}
	return nil
}

func mergeScopes(scopes, required []string) []string {
	seen := make(map[string]bool, len(scopes)+len(required))
	merged := make([]string, 0, len(scopes)+len(required))
	for _, s := range append(append([]string{}, scopes...), required...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		merged = append(merged, s)
	}
	return merged
}

// NewProvider builds the OAuth2Provider for a known provider key.
func NewProvider(provider domain.Provider, cfg ProviderConfig) (OAuth2Provider, error) {
	switch provider {
	case domain.ProviderGoogle:
		return NewGoogleProvider(cfg), nil
	case domain.ProviderKakao:
		return NewKakaoProvider(cfg), nil
	case domain.ProviderFacebook:
		return NewFacebookProvider(cfg), nil
	case domain.ProviderGitHub:
		return NewGitHubProvider(cfg), nil
	}
	return nil, fmt.Errorf("no oauth2 client for provider %q", provider)
}
