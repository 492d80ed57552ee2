package controller

import (
	"errors"
	"net/http"

	"github.com/vibast-solutions/ms-go-users/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-users/app/dto/http"
	"github.com/vibast-solutions/ms-go-users/app/entity"
	"github.com/vibast-solutions/ms-go-users/app/service"
	"github.com/vibast-solutions/ms-go-users/config"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserAuthController struct {
	userAuthService service.UserAuthService
	cfg             *config.Config
}

func NewUserAuthController(userAuthService service.UserAuthService, cfg *config.Config) *UserAuthController {
	return &UserAuthController{userAuthService: userAuthService, cfg: cfg}
}

func (c *UserAuthController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	dateOfBirth, _ := req.ParsedDateOfBirth()

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := c.userAuthService.Register(ctx.Request().Context(), &dto.RegisterParams{
		Name:        req.Name,
		DateOfBirth: dateOfBirth,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logrus.WithField("email", req.Email).Warn("Register failed: user already exists")
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "user already exists"})
		}
		if errors.Is(err, service.ErrWeakPassword) {
			logrus.WithField("email", req.Email).Warn("Register failed: weak password")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Register failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	setAuthCookies(ctx, c.cfg, result.AccessToken, result.RefreshToken)

	logrus.WithFields(logrus.Fields{
		"user_id": result.User.ID,
		"email":   result.User.Email,
	}).Info("User registered")

	return ctx.JSON(http.StatusCreated, httpdto.MessageResponse{Message: "user registered successfully"})
}

func (c *UserAuthController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Login validation failed")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	logrus.WithField("email", req.Email).Info("Login request received")
	result, err := c.userAuthService.Login(ctx.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Warn("Login failed: user not found")
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrInvalidCredentials) {
			logrus.WithField("email", req.Email).Warn("Login failed: invalid credentials")
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid credentials"})
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Login failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	setAuthCookies(ctx, c.cfg, result.AccessToken, result.RefreshToken)

	logrus.WithField("email", req.Email).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "login successful"})
}

// Logout clears the cookie pair. The stored refresh token is left in place;
// only a fresh login replaces it.
func (c *UserAuthController) Logout(ctx echo.Context) error {
	clearAuthCookies(ctx, c.cfg)
	logrus.Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "logged out successfully"})
}

func (c *UserAuthController) RefreshToken(ctx echo.Context) error {
	cookie, err := ctx.Cookie(httpdto.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		logrus.Debug("Refresh failed: no refresh token cookie")
		return ctx.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{Error: "no refresh token, authorization denied"})
	}

	result, err := c.userAuthService.RefreshAccessToken(ctx.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrSessionMismatch) {
			logrus.WithError(err).Warn("Refresh failed: invalid refresh token")
			return ctx.JSON(http.StatusForbidden, httpdto.ErrorResponse{Error: "invalid refresh token"})
		}
		logrus.WithError(err).Error("Refresh failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	setAccessCookie(ctx, c.cfg, result.AccessToken)

	logrus.Info("Access token refreshed")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "token refreshed successfully"})
}

// AuthStatus always answers 200; whether the caller is authenticated lives
// in the body so a UI poller can tell "checked and false" from an outage.
func (c *UserAuthController) AuthStatus(ctx echo.Context) error {
	userID, ok := ctx.Get("user_id").(uint64)
	if !ok {
		return ctx.JSON(http.StatusOK, httpdto.AuthStatusResponse{Authenticated: false})
	}

	email, _ := ctx.Get("user_email").(string)
	role, _ := ctx.Get("user_role").(entity.Role)

	return ctx.JSON(http.StatusOK, httpdto.AuthStatusResponse{
		Authenticated: true,
		User: &httpdto.AuthStatusIdentity{
			ID:    userID,
			Email: email,
			Role:  string(role),
		},
	})
}
