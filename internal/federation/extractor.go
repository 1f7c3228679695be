package federation

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
)

// Extractor maps a provider's raw profile attributes to a canonical identity.
// Extractors are pure: a missing or mistyped attribute yields an empty field, never an error.
type Extractor func(attrs map[string]any) domain.CanonicalIdentity

var extractors = map[domain.Provider]Extractor{
	domain.ProviderGoogle:   extractGoogle,
	domain.ProviderKakao:    extractKakao,
	domain.ProviderFacebook: extractFacebook,
	domain.ProviderGitHub:   extractGitHub,
}

// ExtractorFor resolves a registration key to its extractor. The key is normalized here
// and nowhere else, so callers should carry the returned Provider forward.
func ExtractorFor(key string) (domain.Provider, Extractor, error) {
	provider, ok := domain.ParseProvider(key)
	if !ok {
		return "", nil, serrors.UnsupportedProvider(key)
	}
	extract, ok := extractors[provider]
	if !ok {
		return "", nil, serrors.UnsupportedProvider(key)
	}
	return provider, extract, nil
}

// Extract runs the extractor registered for key.
func Extract(key string, attrs map[string]any) (domain.CanonicalIdentity, error) {
	_, extract, err := ExtractorFor(key)
	if err != nil {
		return domain.CanonicalIdentity{}, err
	}
	return extract(attrs), nil
}

// Google userinfo: {"sub": "...", "email": "..."}
func extractGoogle(attrs map[string]any) domain.CanonicalIdentity {
	return domain.CanonicalIdentity{
		Provider:   domain.ProviderGoogle,
		ExternalID: idAttr(attrs, "sub"),
		Email:      stringAttr(attrs, "email"),
	}
}

// Kakao /v2/user/me: {"id": 123, "kakao_account": {"email": "..."}}
func extractKakao(attrs map[string]any) domain.CanonicalIdentity {
	return domain.CanonicalIdentity{
		Provider:   domain.ProviderKakao,
		ExternalID: idAttr(attrs, "id"),
		Email:      stringAttr(mapAttr(attrs, "kakao_account"), "email"),
	}
}

func extractFacebook(attrs map[string]any) domain.CanonicalIdentity {
	return domain.CanonicalIdentity{
		Provider:   domain.ProviderFacebook,
		ExternalID: idAttr(attrs, "id"),
		Email:      stringAttr(attrs, "email"),
	}
}

func extractGitHub(attrs map[string]any) domain.CanonicalIdentity {
	return domain.CanonicalIdentity{
		Provider:   domain.ProviderGitHub,
		ExternalID: idAttr(attrs, "id"),
		Email:      stringAttr(attrs, "email"),
	}
}

func stringAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	s, _ := attrs[key].(string)
	return strings.TrimSpace(s)
}

func mapAttr(attrs map[string]any, key string) map[string]any {
	if attrs == nil {
		return nil
	}
	m, _ := attrs[key].(map[string]any)
	return m
}

// idAttr renders string and numeric identifiers in plain decimal form.
func idAttr(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	switch v := attrs[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	}
	return ""
}
