package federation

import (
	"go.pilab.hu/shadow-auth/domain"
	"golang.org/x/oauth2/endpoints"
)

var KakaoUserInfoEndpoint = "https://kapi.kakao.com/v2/user/me"

// KakaoProvider signs users in with Kakao. The email lives under "kakao_account" and is only
// present when the user consented to the account_email scope.
type KakaoProvider struct {
	*BaseProvider
}

func NewKakaoProvider(cfg ProviderConfig) *KakaoProvider {
	return &KakaoProvider{
		BaseProvider: newBaseProvider(domain.ProviderKakao, cfg, endpoints.KaKao, KakaoUserInfoEndpoint,
			"account_email"),
	}
}

var _ OAuth2Provider = (*KakaoProvider)(nil)
