package dto

import (
	"time"

	"github.com/vibast-solutions/ms-go-users/app/entity"
)

type RegisterParams struct {
	Name        string
	DateOfBirth time.Time
	Email       string
	Password    string
}

// AuthResult carries a freshly issued token pair alongside the user it was
// issued for. Controllers turn the tokens into cookies and never echo them
// in response bodies.
type AuthResult struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	AccessToken string
}
