package federation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.pilab.hu/shadow-auth/domain"
	"go.pilab.hu/shadow-auth/internal/federation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	googleOAuth2 "golang.org/x/oauth2/google"
)

// newProviderServer serves a token endpoint at /token and the given JSON bodies by path.
func newProviderServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"provider-access","token_type":"Bearer","expires_in":3600}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer provider-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGoogleProvider_ExchangeAndFetch(t *testing.T) {
	server := newProviderServer(t, map[string]string{
		"/userinfo": `{"sub":"1234567890","email":"test.user@example.com","email_verified":true,"name":"Test User"}`,
	})

	provider := federation.NewGoogleProvider(federation.ProviderConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
	})

	token, err := provider.ExchangeCode(context.Background(), "http://localhost/login/oauth2/code/google", "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "provider-access", token.AccessToken)

	attrs, err := provider.FetchAttributes(context.Background(), token)
	require.NoError(t, err)

	identity, err := federation.Extract(provider.Name().String(), attrs)
	require.NoError(t, err)
	assert.Equal(t, domain.CanonicalIdentity{
		Provider:   domain.ProviderGoogle,
		ExternalID: "1234567890",
		Email:      "test.user@example.com",
	}, identity)
}

func TestGoogleProvider_FetchAttributes_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := federation.NewGoogleProvider(federation.ProviderConfig{
		ClientID: "id", ClientSecret: "secret", UserInfoURL: server.URL,
	})

	_, err := provider.FetchAttributes(context.Background(), &oauth2.Token{AccessToken: "dummy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestGoogleProvider_GetOAuth2Config(t *testing.T) {
	provider := federation.NewGoogleProvider(federation.ProviderConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		Scopes:       []string{"openid", "custom_scope"},
	})

	conf, err := provider.GetOAuth2Config("http://localhost/login/oauth2/code/google")
	require.NoError(t, err)

	assert.Equal(t, "test-client-id", conf.ClientID)
	assert.Equal(t, "http://localhost/login/oauth2/code/google", conf.RedirectURL)
	assert.Equal(t, googleOAuth2.Endpoint, conf.Endpoint)
	assert.ElementsMatch(t, []string{"openid", "custom_scope", "profile", "email"}, conf.Scopes)
}

func TestGoogleProvider_Misconfigured(t *testing.T) {
	provider := federation.NewGoogleProvider(federation.ProviderConfig{ClientID: "only-id"})

	_, err := provider.GetAuthCodeURL("state", "http://localhost/cb")
	assert.ErrorIs(t, err, federation.ErrProviderMisconfigured)
}
