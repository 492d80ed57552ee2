package controller

import (
	"errors"
	"net/http"
	"strconv"

	httpdto "github.com/vibast-solutions/ms-go-users/app/dto/http"
	"github.com/vibast-solutions/ms-go-users/app/entity"
	"github.com/vibast-solutions/ms-go-users/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UserController struct {
	userService service.UserService
}

func NewUserController(userService service.UserService) *UserController {
	return &UserController{userService: userService}
}

func (c *UserController) GetAllUsers(ctx echo.Context) error {
	users, err := c.userService.ListUsers(ctx.Request().Context())
	if err != nil {
		logrus.WithError(err).Error("List users failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewUserListResponse(users))
}

func (c *UserController) GetUser(ctx echo.Context) error {
	id, err := parseUserID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid user id"})
	}

	user, err := c.userService.GetUser(ctx.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", id).Error("Get user failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	return ctx.JSON(http.StatusOK, httpdto.NewUserResponse(user))
}

func (c *UserController) UpdateUser(ctx echo.Context) error {
	id, err := parseUserID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid user id"})
	}

	var req httpdto.UpdateUserRequest
	if err = ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update user request")
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid request body"})
	}

	if err = req.Validate(); err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
	}

	dateOfBirth, _ := req.ParsedDateOfBirth()

	user, err := c.userService.UpdateUser(ctx.Request().Context(), id, &service.UpdateUserParams{
		Name:        req.Name,
		DateOfBirth: dateOfBirth,
		Email:       req.Email,
		Role:        entity.Role(req.Role),
		Status:      entity.Status(req.Status),
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		if errors.Is(err, service.ErrUserExists) {
			return ctx.JSON(http.StatusConflict, httpdto.ErrorResponse{Error: "email already in use"})
		}
		logrus.WithError(err).WithField("user_id", id).Error("Update user failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", id).Info("User updated")
	return ctx.JSON(http.StatusOK, httpdto.UpdateUserResponse{
		Message: "user updated successfully",
		User:    httpdto.NewUserResponse(user),
	})
}

func (c *UserController) DeleteUser(ctx echo.Context) error {
	id, err := parseUserID(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{Error: "invalid user id"})
	}

	if err = c.userService.DeleteUser(ctx.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return ctx.JSON(http.StatusNotFound, httpdto.ErrorResponse{Error: "user not found"})
		}
		logrus.WithError(err).WithField("user_id", id).Error("Delete user failed")
		return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{Error: "internal server error"})
	}

	logrus.WithField("user_id", id).Info("User deleted")
	return ctx.JSON(http.StatusOK, httpdto.MessageResponse{Message: "user deleted successfully"})
}

func parseUserID(ctx echo.Context) (uint64, error) {
	return strconv.ParseUint(ctx.Param("id"), 10, 64)
}
