package domain

import "strings"

// Provider identifies an external identity provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderKakao    Provider = "kakao"
	ProviderFacebook Provider = "facebook"
	ProviderGitHub   Provider = "github"
)

// Providers lists every provider the service knows how to handle.
var Providers = []Provider{ProviderGoogle, ProviderKakao, ProviderFacebook, ProviderGitHub}

// ParseProvider normalizes a registration key ("GOOGLE", "Google", " google ") into a Provider.
// The second return value is false for unknown keys.
func ParseProvider(key string) (Provider, bool) {
	p := Provider(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range Providers {
		if p == known {
			return p, true
		}
	}
	return "", false
}

func (p Provider) String() string {
	return string(p)
}

// CanonicalIdentity is the provider-independent view of a third-party profile.
// An empty Email means the provider did not share one.
type CanonicalIdentity struct {
	Provider   Provider
	ExternalID string
	Email      string
}

// HasEmail reports whether the identity carries an email address.
func (c CanonicalIdentity) HasEmail() bool {
	return strings.TrimSpace(c.Email) != ""
}
