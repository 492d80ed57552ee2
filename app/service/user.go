package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-users/app/entity"
)

var ErrValidation = errors.New("validation failed")

type userAdminRepository interface {
	FindAll(ctx context.Context) ([]*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id uint64) (int64, error)
}

type UpdateUserParams struct {
	Name        string
	DateOfBirth time.Time
	Email       string
	Role        entity.Role
	Status      entity.Status
}

// UserService covers the administrative CRUD surface of the panel.
type UserService interface {
	ListUsers(ctx context.Context) ([]*entity.User, error)
	GetUser(ctx context.Context, id uint64) (*entity.User, error)
	UpdateUser(ctx context.Context, id uint64, params *UpdateUserParams) (*entity.User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type userService struct {
	userRepo userAdminRepository
}

func NewUserService(userRepo userAdminRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.userRepo.FindAll(ctx)
}

func (s *userService) GetUser(ctx context.Context, id uint64) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint64, params *UpdateUserParams) (*entity.User, error) {
	if !params.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, params.Role)
	}
	if !params.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, params.Status)
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if params.Email != user.Email {
		other, err := s.userRepo.FindByEmail(ctx, params.Email)
		if err != nil {
			return nil, err
		}
		if other != nil && other.ID != id {
			return nil, ErrUserExists
		}
	}

	user.Name = params.Name
	user.DateOfBirth = params.DateOfBirth
	user.Email = params.Email
	user.Role = params.Role
	user.Status = params.Status

	if err = s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uint64) error {
	rows, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
