package http

import (
	"errors"
	"strings"
	"time"
)

// Cookie names of the token pair. Logout must clear them with the same
// attributes they were set with or browsers keep them.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

const dateOfBirthLayout = "2006-01-02"

type RegisterRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	if _, err := r.ParsedDateOfBirth(); err != nil {
		return errors.New("dateOfBirth must be formatted as YYYY-MM-DD")
	}
	return nil
}

func (r *RegisterRequest) ParsedDateOfBirth() (time.Time, error) {
	return time.Parse(dateOfBirthLayout, r.DateOfBirth)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	return nil
}

type UpdateUserRequest struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

func (r *UpdateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if _, err := r.ParsedDateOfBirth(); err != nil {
		return errors.New("dateOfBirth must be formatted as YYYY-MM-DD")
	}
	return nil
}

func (r *UpdateUserRequest) ParsedDateOfBirth() (time.Time, error) {
	return time.Parse(dateOfBirthLayout, r.DateOfBirth)
}
