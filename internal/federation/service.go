package federation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"golang.org/x/oauth2"
)

// Service runs the authorization code flow for the registered providers.
type Service struct {
	providers          map[domain.Provider]OAuth2Provider
	defaultRedirectURL string
}

// NewService creates a new federation Service.
// defaultRedirectURL is the callback base, e.g. "https://auth.example.com/login/oauth2/code";
// the provider name is appended to it.
func NewService(defaultRedirectURL string) *Service {
	return &Service{
		providers:          make(map[domain.Provider]OAuth2Provider),
		defaultRedirectURL: defaultRedirectURL,
	}
}

func (s *Service) RegisterProvider(provider OAuth2Provider) {
	s.providers[provider.Name()] = provider
}

// Providers lists the registered provider keys.
func (s *Service) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(s.providers))
	for _, p := range domain.Providers {
		if _, ok := s.providers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// GetProvider resolves a registration key. Unknown and unregistered providers are unsupported.
func (s *Service) GetProvider(key string) (OAuth2Provider, error) {
	name, ok := domain.ParseProvider(key)
	if !ok {
		return nil, serrors.UnsupportedProvider(key)
	}
	provider, ok := s.providers[name]
	if !ok {
		return nil, serrors.UnsupportedProvider(key)
	}
	return provider, nil
}

// GenerateAuthState generates a unique, unguessable string for the state parameter.
func (s *Service) GenerateAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GetAuthorizationURL builds the provider URL the browser is redirected to.
func (s *Service) GetAuthorizationURL(key, state string, opts ...oauth2.AuthCodeOption) (string, error) {
	provider, err := s.GetProvider(key)
	if err != nil {
		return "", err
	}
	return provider.GetAuthCodeURL(state, s.GetRedirectURLForProvider(provider.Name()), opts...)
}

// HandleCallback checks the state against the one stored in the browser session, exchanges
// the code and fetches the profile attributes.
func (s *Service) HandleCallback(
	ctx context.Context,
	key string,
	queryState string,
	sessionState string,
	code string,
	opts ...oauth2.AuthCodeOption,
) (domain.Provider, map[string]any, error) {
	if queryState == "" || queryState != sessionState {
		return "", nil, ErrInvalidAuthState
	}

	provider, err := s.GetProvider(key)
	if err != nil {
		return "", nil, err
	}

	token, err := provider.ExchangeCode(ctx, s.GetRedirectURLForProvider(provider.Name()), code, opts...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrExchangeCodeFailed, err)
	}

	attrs, err := provider.FetchAttributes(ctx, token)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrFetchUserInfoFailed, err)
	}

	return provider.Name(), attrs, nil
}

// GetRedirectURLForProvider returns e.g. https://auth.example.com/login/oauth2/code/google
func (s *Service) GetRedirectURLForProvider(provider domain.Provider) string {
	base := strings.TrimSuffix(s.defaultRedirectURL, "/")
	return fmt.Sprintf("%s/%s", base, url.PathEscape(provider.String()))
}
