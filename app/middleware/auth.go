package middleware

import (
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-users/app/dto/http"
	"github.com/vibast-solutions/ms-go-users/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type accessTokenValidator interface {
	ValidateAccessToken(tokenString string) (*service.Claims, error)
}

type AuthMiddleware struct {
	authService accessTokenValidator
}

func NewAuthMiddleware(authService accessTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth gates protected handlers on a valid access-token cookie. A
// missing, malformed, or expired token is an expected failure and always
// resolves to a 401, never a panic.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := extractAccessToken(c)
		if tokenString == "" {
			logrus.Debug("Missing access token cookie")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "unauthorized"})
		}

		claims, err := m.authService.ValidateAccessToken(tokenString)
		if err != nil {
			logrus.WithError(err).Debug("Invalid or expired access token")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "invalid or expired token"})
		}

		setIdentity(c, claims)
		return next(c)
	}
}

// OptionalAuth attaches the identity when a valid access token is present
// and lets the request through either way. The auth-status probe uses it to
// report "checked and false" with a 200.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if tokenString := extractAccessToken(c); tokenString != "" {
			if claims, err := m.authService.ValidateAccessToken(tokenString); err == nil {
				setIdentity(c, claims)
			}
		}
		return next(c)
	}
}

func setIdentity(c echo.Context, claims *service.Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_role", claims.Role)
}

// extractAccessToken prefers the parsed cookie and falls back to scanning
// the raw Cookie header, which keeps the guard working even when an upstream
// proxy mangles cookie parsing.
func extractAccessToken(c echo.Context) string {
	if cookie, err := c.Cookie(httpdto.AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	raw := c.Request().Header.Get("Cookie")
	for _, part := range strings.Split(raw, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && name == httpdto.AccessTokenCookie {
			return value
		}
	}
	return ""
}
