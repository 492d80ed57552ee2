package entity

import (
	"database/sql"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleUser      Role = "User"
	RoleModerator Role = "Moderator"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleModerator:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive:
		return true
	}
	return false
}

// User is a stored identity record. RefreshToken holds the single refresh
// token currently honored for the user; overwriting it revokes the previous
// session.
type User struct {
	ID           uint64
	Name         string
	DateOfBirth  time.Time
	Email        string
	PasswordHash string
	Role         Role
	Status       Status
	RefreshToken sql.NullString
	LastLogin    sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
