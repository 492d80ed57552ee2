package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-users/app/dto"
	"github.com/vibast-solutions/ms-go-users/app/entity"
	"github.com/vibast-solutions/ms-go-users/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password does not meet policy requirements")
	// ErrSessionMismatch means the refresh token verified but is not the one
	// currently stored on the user record: a newer login has revoked it.
	ErrSessionMismatch = errors.New("refresh token does not match current session")
)

type userRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uint64) (*entity.User, error)
	UpdateRefreshToken(ctx context.Context, userID uint64, token sql.NullString) error
	UpdateLastLogin(ctx context.Context, userID uint64, lastLogin time.Time) error
}

type tokenIssuer interface {
	IssueAccessToken(user *entity.User) (string, error)
	IssueRefreshToken(user *entity.User) (string, error)
	VerifyAccessToken(tokenString string) (*Claims, error)
	VerifyRefreshToken(tokenString string) (*Claims, error)
}

type UserAuthService interface {
	Register(ctx context.Context, params *dto.RegisterParams) (*dto.AuthResult, error)
	Login(ctx context.Context, email, password string) (*dto.AuthResult, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*dto.RefreshResult, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
}

type AsyncRunner func(task func())

type UserAuthServiceOption func(*userAuthService)

type userAuthService struct {
	userRepo    userRepository
	tokens      tokenIssuer
	cfg         *config.Config
	asyncRunner AsyncRunner
}

func NewUserAuthService(
	userRepo userRepository,
	tokens tokenIssuer,
	cfg *config.Config,
	opts ...UserAuthServiceOption,
) UserAuthService {
	svc := &userAuthService{
		userRepo: userRepo,
		tokens:   tokens,
		cfg:      cfg,
		asyncRunner: func(task func()) {
			go task()
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithAsyncRunner(runner AsyncRunner) UserAuthServiceOption {
	return func(s *userAuthService) {
		if runner != nil {
			s.asyncRunner = runner
		}
	}
}

func (s *userAuthService) Register(ctx context.Context, params *dto.RegisterParams) (*dto.AuthResult, error) {
	existing, err := s.userRepo.FindByEmail(ctx, params.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	if err = s.cfg.PasswordPolicy.Validate(params.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Name:         params.Name,
		DateOfBirth:  params.DateOfBirth,
		Email:        params.Email,
		PasswordHash: string(hashedPassword),
		Role:         entity.RoleUser,
		Status:       entity.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Tokens carry the user ID as subject, so they can only be minted once
	// the insert has assigned one.
	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	user.RefreshToken = sql.NullString{String: refreshToken, Valid: true}
	if err = s.userRepo.UpdateRefreshToken(ctx, user.ID, user.RefreshToken); err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *userAuthService) Login(ctx context.Context, email, password string) (*dto.AuthResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	// Overwriting the stored refresh token revokes whatever session held the
	// previous one. Last write wins when a login races a refresh.
	user.RefreshToken = sql.NullString{String: refreshToken, Valid: true}
	if err = s.userRepo.UpdateRefreshToken(ctx, user.ID, user.RefreshToken); err != nil {
		return nil, err
	}

	s.asyncRunner(func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if updateErr := s.userRepo.UpdateLastLogin(updateCtx, user.ID, time.Now()); updateErr != nil {
			logrus.WithError(updateErr).WithField("user_id", user.ID).Error("failed to update last_login")
		}
	})

	return &dto.AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshAccessToken exchanges a valid refresh token for a new access token.
// The refresh token itself is not rotated, so the call is idempotent: the
// same cookie keeps working until it expires or a new login replaces it.
func (s *userAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (*dto.RefreshResult, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionMismatch
	}

	if !user.RefreshToken.Valid || user.RefreshToken.String != refreshToken {
		return nil, ErrSessionMismatch
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResult{AccessToken: accessToken}, nil
}

func (s *userAuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.VerifyAccessToken(tokenString)
}
