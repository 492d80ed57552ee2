package controller

import (
	"net/http"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-users/app/dto/http"
	"github.com/vibast-solutions/ms-go-users/config"

	"github.com/labstack/echo/v4"
)

// authCookie builds a token cookie with the transport attributes a
// cross-site deployment needs. SameSite=None is only honored by browsers
// together with Secure, so an insecure (local) setup falls back to Lax.
func authCookie(cfg *config.Config, name, value string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if cfg.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: sameSite,
	}
}

func setAuthCookies(c echo.Context, cfg *config.Config, accessToken, refreshToken string) {
	c.SetCookie(authCookie(cfg, httpdto.AccessTokenCookie, accessToken, cfg.JWTAccessTokenTTL))
	c.SetCookie(authCookie(cfg, httpdto.RefreshTokenCookie, refreshToken, cfg.JWTRefreshTokenTTL))
}

func setAccessCookie(c echo.Context, cfg *config.Config, accessToken string) {
	c.SetCookie(authCookie(cfg, httpdto.AccessTokenCookie, accessToken, cfg.JWTAccessTokenTTL))
}

// clearAuthCookies must use the same path/domain/attributes as the setters;
// browsers ignore deletions that do not match.
func clearAuthCookies(c echo.Context, cfg *config.Config) {
	access := authCookie(cfg, httpdto.AccessTokenCookie, "", 0)
	access.MaxAge = -1
	refresh := authCookie(cfg, httpdto.RefreshTokenCookie, "", 0)
	refresh.MaxAge = -1
	c.SetCookie(access)
	c.SetCookie(refresh)
}
