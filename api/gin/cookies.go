package ginapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// RefreshTokenCookie carries the refresh token between the browser and /auth/refresh.
	RefreshTokenCookie = "refresh_token"

	stateCookie       = "shadow_auth_state"
	stateCookieMaxAge = 300
)

// CookieConfig controls the attributes shared by every cookie the API sets.
type CookieConfig struct {
	Secure bool
	Domain string
}

func (a *AuthAPI) setCookie(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   a.cfg.Cookies.Domain,
		MaxAge:   maxAge,
		Secure:   a.cfg.Cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthAPI) setRefreshCookie(c *gin.Context, token string, ttl time.Duration) {
	a.setCookie(c, RefreshTokenCookie, token, int(ttl.Seconds()))
}

func (a *AuthAPI) clearCookie(c *gin.Context, name string) {
	a.setCookie(c, name, "", -1)
}
