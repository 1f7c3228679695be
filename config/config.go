package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.pilab.hu/shadow-auth/domain"
)

const (
	StoreDriverSQL   = "sql"
	StoreDriverMongo = "mongo"

	RefreshStoreRedis  = "redis"
	RefreshStoreMemory = "memory"
)

// ServerConfig holds all configuration for the server.
type ServerConfig struct {
	HTTPPort        string `mapstructure:"HTTP_PORT"         validate:"required"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	JWTSecretKey        string `mapstructure:"JWT_SECRET_KEY"         validate:"required,min=32"`
	JWTIssuer           string `mapstructure:"JWT_ISSUER"`
	AccessTokenTTLMin   int    `mapstructure:"ACCESS_TOKEN_TTL_MIN"   validate:"gt=0"`
	RefreshTokenTTLHour int    `mapstructure:"REFRESH_TOKEN_TTL_HOUR" validate:"gt=0"`
	CookieSecure        bool   `mapstructure:"COOKIE_SECURE"`

	StoreDriver string `mapstructure:"STORE_DRIVER"  validate:"oneof=sql mongo"`
	DatabaseDSN string `mapstructure:"DATABASE_DSN"  validate:"required_if=StoreDriver sql"`
	MongoURI    string `mapstructure:"MONGO_URI"     validate:"required_if=StoreDriver mongo"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME" validate:"required_if=StoreDriver mongo"`

	RefreshStore   string `mapstructure:"REFRESH_STORE"    validate:"oneof=redis memory"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"       validate:"required_if=RefreshStore redis"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int    `mapstructure:"REDIS_DB"         validate:"gte=0"`
	RedisKeyPrefix string `mapstructure:"REDIS_KEY_PREFIX"`

	OAuthRedirectBaseURL    string `mapstructure:"OAUTH_REDIRECT_BASE_URL"    validate:"required,url"`
	LoginSuccessRedirectURL string `mapstructure:"LOGIN_SUCCESS_REDIRECT_URL" validate:"omitempty,url"`
	LoginFailureRedirectURL string `mapstructure:"LOGIN_FAILURE_REDIRECT_URL" validate:"omitempty,url"`

	GoogleClientID       string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	KakaoClientID        string `mapstructure:"KAKAO_CLIENT_ID"`
	KakaoClientSecret    string `mapstructure:"KAKAO_CLIENT_SECRET"`
	FacebookClientID     string `mapstructure:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `mapstructure:"FACEBOOK_CLIENT_SECRET"`
	GitHubClientID       string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret   string `mapstructure:"GITHUB_CLIENT_SECRET"`
}

// ProviderCredentials is the client registration of one identity provider.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

// AccessTokenTTL returns the access token lifetime.
func (c *ServerConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMin) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime.
func (c *ServerConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLHour) * time.Hour
}

// Providers returns the credentials of every provider that has a client id configured.
func (c *ServerConfig) Providers() map[domain.Provider]ProviderCredentials {
	all := map[domain.Provider]ProviderCredentials{
		domain.ProviderGoogle:   {c.GoogleClientID, c.GoogleClientSecret},
		domain.ProviderKakao:    {c.KakaoClientID, c.KakaoClientSecret},
		domain.ProviderFacebook: {c.FacebookClientID, c.FacebookClientSecret},
		domain.ProviderGitHub:   {c.GitHubClientID, c.GitHubClientSecret},
	}

	out := make(map[domain.Provider]ProviderCredentials, len(all))
	for p, creds := range all {
		if creds.ClientID != "" {
			out[p] = creds
		}
	}
	return out
}

// Validate checks the struct tags.
func (c *ServerConfig) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// LoadConfig reads configuration from .env files, an optional config.yaml, the environment
// and defaults, in increasing order of precedence for the environment. envFiles defaults to
// ".env"; missing files are skipped.
func LoadConfig(envFiles ...string) (*ServerConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("error loading env file %s: %w", f, err)
		}
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/shadow-auth/")
	v.AddConfigPath("$HOME/.shadow-auth")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv values reach Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("OTEL_SERVICE_NAME", "shadow-auth")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_ISSUER", "shadow-auth")
	v.SetDefault("ACCESS_TOKEN_TTL_MIN", 30)
	v.SetDefault("REFRESH_TOKEN_TTL_HOUR", 336)
	v.SetDefault("COOKIE_SECURE", false)

	v.SetDefault("STORE_DRIVER", StoreDriverSQL)
	v.SetDefault("DATABASE_DSN", "file:shadow-auth.db?cache=shared")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "shadow_auth")

	v.SetDefault("REFRESH_STORE", RefreshStoreRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "shadow-auth")

	v.SetDefault("OAUTH_REDIRECT_BASE_URL", "http://localhost:8080/login/oauth2/code")
	v.SetDefault("LOGIN_SUCCESS_REDIRECT_URL", "")
	v.SetDefault("LOGIN_FAILURE_REDIRECT_URL", "")

	for _, p := range domain.Providers {
		prefix := strings.ToUpper(p.String())
		v.SetDefault(prefix+"_CLIENT_ID", "")
		v.SetDefault(prefix+"_CLIENT_SECRET", "")
	}
}
