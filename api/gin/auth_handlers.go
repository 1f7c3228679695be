package ginapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.pilab.hu/shadow-auth/domain"
	serrors "go.pilab.hu/shadow-auth/errors"
	"go.pilab.hu/shadow-auth/internal/federation"
	"go.pilab.hu/shadow-auth/internal/metrics"
	"go.pilab.hu/shadow-auth/log"
	"go.pilab.hu/shadow-auth/middleware"
	"go.pilab.hu/shadow-auth/services"
	"golang.org/x/oauth2"
)

// FederationFlow is the part of federation.Service the login endpoints drive.
type FederationFlow interface {
	GenerateAuthState() (string, error)
	GetAuthorizationURL(key, state string, opts ...oauth2.AuthCodeOption) (string, error)
	HandleCallback(ctx context.Context, key, queryState, sessionState, code string, opts ...oauth2.AuthCodeOption) (domain.Provider, map[string]any, error)
}

var _ FederationFlow = (*federation.Service)(nil)

// Config holds the response behaviour of the login endpoints.
type Config struct {
	Cookies         CookieConfig
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// SuccessRedirectURL, when set, turns a successful login into a 302 to this URL.
	SuccessRedirectURL string
	// FailureRedirectURL, when set, sends failed logins to <url>?error=<message>.
	FailureRedirectURL string
}

// LoginResponse is the JSON body of a successful login or refresh.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PrincipalResponse is returned by the principal endpoint.
type PrincipalResponse struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// AuthAPI serves the federated login, refresh, logout and principal endpoints.
type AuthAPI struct {
	federation FederationFlow
	login      services.Authenticator
	sessions   services.SessionManager
	cfg        Config
	logger     log.Logger
}

func NewAuthAPI(
	fed FederationFlow,
	login services.Authenticator,
	sessions services.SessionManager,
	cfg Config,
	logger log.Logger,
) *AuthAPI {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &AuthAPI{
		federation: fed,
		login:      login,
		sessions:   sessions,
		cfg:        cfg,
		logger:     logger,
	}
}

// RegisterRoutes mounts the endpoints. Both routers must already run
// middleware.ErrorTranslator; authenticated must also run middleware.BearerAuthenticator.
// Login and refresh stay on public so a client still holding an expired access token
// can rotate its refresh cookie.
func (a *AuthAPI) RegisterRoutes(public, authenticated gin.IRouter) {
	public.GET("/oauth2/authorization/:provider", a.StartLoginHandler)
	public.GET("/login/oauth2/code/:provider", a.CallbackHandler)
	public.POST("/auth/refresh", a.RefreshHandler)

	auth := authenticated.Group("/auth", middleware.RequireAuthenticated())
	{
		auth.POST("/logout", a.LogoutHandler)
		auth.GET("/test", a.PrincipalHandler)
	}
}

// StartLoginHandler redirects the browser to the provider's consent page and keeps the
// CSRF state in a short-lived cookie.
func (a *AuthAPI) StartLoginHandler(c *gin.Context) {
	providerKey := c.Param("provider")

	state, err := a.federation.GenerateAuthState()
	if err != nil {
		a.loginFailed(c, providerKey, serrors.Unavailable(fmt.Errorf("generate state: %w", err)))
		return
	}

	authURL, err := a.federation.GetAuthorizationURL(providerKey, state)
	if err != nil {
		a.loginFailed(c, providerKey, err)
		return
	}

	a.setCookie(c, stateCookie, state, stateCookieMaxAge)
	c.Redirect(http.StatusFound, authURL)
}

// CallbackHandler completes the authorization code flow and logs the user in.
func (a *AuthAPI) CallbackHandler(c *gin.Context) {
	ctx := c.Request.Context()
	providerKey := c.Param("provider")

	sessionState, _ := c.Cookie(stateCookie)
	a.clearCookie(c, stateCookie)

	if oauthErr := c.Query("error"); oauthErr != "" {
		a.logger.Warn(ctx, "OAuth error in callback from provider", map[string]interface{}{
			"provider":    providerKey,
			"error":       oauthErr,
			"description": c.Query("error_description"),
		})
		a.loginFailed(c, providerKey, serrors.InvalidRequest(fmt.Sprintf("login cancelled at provider: %s", oauthErr), nil))
		return
	}

	provider, attrs, err := a.federation.HandleCallback(ctx, providerKey, c.Query("state"), sessionState, c.Query("code"))
	if err != nil {
		a.loginFailed(c, providerKey, callbackError(err))
		return
	}

	result, err := a.login.Login(ctx, provider.String(), attrs)
	if err != nil {
		a.respondLoginError(c, err)
		return
	}

	a.writeTokens(c, result.Tokens, true)
}

// RefreshHandler rotates the refresh token held in the cookie.
func (a *AuthAPI) RefreshHandler(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		abort(c, serrors.RefreshTokenInvalid())
		return
	}

	pair, err := a.sessions.RotateRefresh(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, serrors.ErrRefreshTokenInvalid) {
			a.clearCookie(c, RefreshTokenCookie)
		}
		abort(c, err)
		return
	}

	a.writeTokens(c, pair, false)
}

// LogoutHandler revokes the caller's refresh token and expires the cookie.
func (a *AuthAPI) LogoutHandler(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	if err := a.sessions.Revoke(c.Request.Context(), principal.Subject); err != nil {
		abort(c, err)
		return
	}

	a.clearCookie(c, RefreshTokenCookie)
	c.Status(http.StatusNoContent)
}

// PrincipalHandler echoes the authenticated principal.
func (a *AuthAPI) PrincipalHandler(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	c.JSON(http.StatusOK, PrincipalResponse{Email: principal.Subject, Role: principal.Role})
}

func (a *AuthAPI) writeTokens(c *gin.Context, pair *services.TokenPair, allowRedirect bool) {
	c.Header("Authorization", "Bearer "+pair.AccessToken)
	a.setRefreshCookie(c, pair.RefreshToken, a.cfg.RefreshTokenTTL)

	if allowRedirect && a.cfg.SuccessRedirectURL != "" {
		c.Redirect(http.StatusFound, a.cfg.SuccessRedirectURL)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.cfg.AccessTokenTTL.Seconds()),
	})
}

// loginFailed counts a failure that happened before the login service ran and responds.
func (a *AuthAPI) loginFailed(c *gin.Context, providerKey string, err error) {
	code := serrors.CodeTemporarilyUnavailable
	if authErr, ok := serrors.As(err); ok {
		code = authErr.Code
	}
	metrics.LoginFailureTotal.WithLabelValues(metrics.ProviderLabel(providerKey), code).Inc()
	a.logger.Warn(c.Request.Context(), "Federated login flow failed", map[string]interface{}{
		"provider": providerKey,
		"error":    err.Error(),
	})
	a.respondLoginError(c, err)
}

func (a *AuthAPI) respondLoginError(c *gin.Context, err error) {
	if a.cfg.FailureRedirectURL == "" {
		abort(c, err)
		return
	}

	message := "login failed"
	if authErr, ok := serrors.As(err); ok {
		message = authErr.Description
	}
	c.Redirect(http.StatusFound, a.cfg.FailureRedirectURL+"?error="+url.QueryEscape(message))
}

func callbackError(err error) error {
	if _, ok := serrors.As(err); ok {
		return err
	}
	if errors.Is(err, federation.ErrInvalidAuthState) {
		return serrors.InvalidRequest("login session expired or state mismatch", err)
	}
	// A 4xx from the token endpoint means the code itself was rejected (expired, replayed).
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
		retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
		return serrors.InvalidRequest("authorization code rejected by provider", err)
	}
	return serrors.Unavailable(err)
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
