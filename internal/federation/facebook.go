package federation

import (
	"go.pilab.hu/shadow-auth/domain"
	facebookOAuth2 "golang.org/x/oauth2/facebook"
)

var FacebookUserInfoEndpoint = "https://graph.facebook.com/me?fields=id,name,email"

type FacebookProvider struct {
	*BaseProvider
}

func NewFacebookProvider(cfg ProviderConfig) *FacebookProvider {
	return &FacebookProvider{
		BaseProvider: newBaseProvider(domain.ProviderFacebook, cfg, facebookOAuth2.Endpoint, FacebookUserInfoEndpoint,
			"email", "public_profile"),
	}
}

var _ OAuth2Provider = (*FacebookProvider)(nil)
