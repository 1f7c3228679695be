package federation

import (
	"go.pilab.hu/shadow-auth/domain"
	googleOAuth2 "golang.org/x/oauth2/google"
)

var GoogleUserInfoEndpoint = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleProvider signs users in with Google. The userinfo payload carries "sub" and "email".
type GoogleProvider struct {
	*BaseProvider
}

func NewGoogleProvider(cfg ProviderConfig) *GoogleProvider {
	return &GoogleProvider{
		BaseProvider: newBaseProvider(domain.ProviderGoogle, cfg, googleOAuth2.Endpoint, GoogleUserInfoEndpoint,
			"openid", "profile", "email"),
	}
}

var _ OAuth2Provider = (*GoogleProvider)(nil)
