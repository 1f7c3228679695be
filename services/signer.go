package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidKeyID = errors.New("invalid key id")
	ErrNoSigningKey = errors.New("no signing key configured")
)

// TokenSigner signs and verifies HS256 tokens. Several keys may be registered so a
// secret can be rotated: new tokens use the default key, older ones still verify by kid.
type TokenSigner struct {
	keys         map[string][]byte
	defaultKeyID string
}

// NewTokenSigner creates a new Signer instance
func NewTokenSigner() *TokenSigner {
	return &TokenSigner{
		keys: make(map[string][]byte),
	}
}

// AddKeySigner registers an HMAC secret under keyID. The first key added becomes the default.
func (s *TokenSigner) AddKeySigner(keyID, secretKey string) {
	s.keys[keyID] = []byte(secretKey)
	if s.defaultKeyID == "" {
		s.defaultKeyID = keyID
	}
}

// SetDefaultKey selects the key used by Sign when no key id is given.
func (s *TokenSigner) SetDefaultKey(keyID string) error {
	if _, ok := s.keys[keyID]; !ok {
		return ErrInvalidKeyID
	}
	s.defaultKeyID = keyID
	return nil
}

// Sign signs claims with keyID, or with the default key when keyID is empty.
func (s *TokenSigner) Sign(claims jwt.Claims, keyID string) (string, error) {
	if keyID == "" {
		keyID = s.defaultKeyID
	}
	if keyID == "" {
		return "", ErrNoSigningKey
	}
	secret, ok := s.keys[keyID]
	if !ok {
		return "", ErrInvalidKeyID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = keyID

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse verifies tokenString into claims. Only HS256 is accepted.
func (s *TokenSigner) Parse(tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) (*jwt.Token, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return jwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
}

func (s *TokenSigner) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}

	keyID, _ := token.Header["kid"].(string)
	if keyID == "" {
		keyID = s.defaultKeyID
	}
	secret, ok := s.keys[keyID]
	if !ok {
		return nil, ErrInvalidKeyID
	}
	return secret, nil
}
