package http

import (
	"time"

	"github.com/vibast-solutions/ms-go-users/app/entity"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// UserResponse is the wire shape of a user record. The password hash never
// leaves the server.
type UserResponse struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	LastLogin   string `json:"lastLogin,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func NewUserResponse(user *entity.User) *UserResponse {
	resp := &UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		DateOfBirth: user.DateOfBirth.Format(dateOfBirthLayout),
		Email:       user.Email,
		Role:        string(user.Role),
		Status:      string(user.Status),
		CreatedAt:   user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   user.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastLogin.Valid {
		resp.LastLogin = user.LastLogin.Time.UTC().Format(time.RFC3339)
	}
	return resp
}

func NewUserListResponse(users []*entity.User) []*UserResponse {
	out := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, NewUserResponse(user))
	}
	return out
}

type UpdateUserResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

type AuthStatusIdentity struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AuthStatusResponse struct {
	Authenticated bool                `json:"authenticated"`
	User          *AuthStatusIdentity `json:"user,omitempty"`
}
