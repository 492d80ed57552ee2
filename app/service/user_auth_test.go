package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-users/app/dto"
	"github.com/vibast-solutions/ms-go-users/app/entity"
	"github.com/vibast-solutions/ms-go-users/app/repository"
	"github.com/vibast-solutions/ms-go-users/app/service"
	"github.com/vibast-solutions/ms-go-users/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

var userColumns = []string{
	"id",
	"name",
	"date_of_birth",
	"email",
	"password_hash",
	"role",
	"status",
	"refresh_token",
	"last_login",
	"created_at",
	"updated_at",
}

const (
	findByEmailQuery       = `(?s)SELECT id, name, date_of_birth, email, password_hash, role, status,\s+refresh_token, last_login, created_at, updated_at\s+FROM users WHERE email = \?`
	findByIDQuery          = `(?s)SELECT id, name, date_of_birth, email, password_hash, role, status,\s+refresh_token, last_login, created_at, updated_at\s+FROM users WHERE id = \?`
	insertUserQuery        = `(?s)INSERT INTO users \(name, date_of_birth, email, password_hash, role, status, refresh_token, created_at, updated_at\)\s+VALUES \(\?, \?, \?, \?, \?, \?, \?, \?, \?\)`
	updateRefreshTokenStmt = `UPDATE users SET refresh_token = \?, updated_at = \? WHERE id = \?`
	updateLastLoginStmt    = `UPDATE users SET last_login = \? WHERE id = \?`
)

func newAuthConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:    "access-secret",
		JWTRefreshSecret:   "refresh-secret",
		JWTAccessTokenTTL:  15 * time.Minute,
		JWTRefreshTokenTTL: 7 * 24 * time.Hour,
		PasswordPolicy: config.PasswordPolicy{
			MinLength: 1,
		},
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return db, mock, func() { _ = db.Close() }
}

func newAuthService(db *sql.DB, cfg *config.Config) service.UserAuthService {
	userRepo := repository.NewUserRepository(db)
	tokens := service.NewTokenService(cfg)
	return service.NewUserAuthService(userRepo, tokens, cfg,
		service.WithAsyncRunner(func(task func()) { task() }))
}

func userRow(mock sqlmock.Sqlmock, id uint64, email, passwordHash string, refreshToken sql.NullString) *sqlmock.Rows {
	now := time.Now()
	dob := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return mock.NewRows(userColumns).AddRow(
		id, "A", dob, email, passwordHash, "User", "active", refreshToken, sql.NullTime{}, now, now,
	)
}

func TestRegisterSuccess(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByEmailQuery).WithArgs("a@x.com").WillReturnRows(mock.NewRows(userColumns))
	mock.ExpectExec(insertUserQuery).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(updateRefreshTokenStmt).WillReturnResult(sqlmock.NewResult(0, 1))

	svc := newAuthService(db, newAuthConfig())
	result, err := svc.Register(context.Background(), &dto.RegisterParams{
		Name:        "A",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:       "a@x.com",
		Password:    "secret1",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if result.User.ID != 1 {
		t.Fatalf("expected user id 1, got %d", result.User.ID)
	}
	if result.User.Role != entity.RoleUser || result.User.Status != entity.StatusActive {
		t.Fatalf("unexpected defaults: %s %s", result.User.Role, result.User.Status)
	}
	if result.User.PasswordHash == "secret1" {
		t.Fatalf("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("secret1")) != nil {
		t.Fatalf("stored hash does not match password")
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens to be issued")
	}
	if !result.User.RefreshToken.Valid || result.User.RefreshToken.String != result.RefreshToken {
		t.Fatalf("refresh token not stored on record")
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("a@x.com").
		WillReturnRows(userRow(mock, 1, "a@x.com", "hash", sql.NullString{}))

	svc := newAuthService(db, newAuthConfig())
	_, err := svc.Register(context.Background(), &dto.RegisterParams{
		Name:        "A",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:       "a@x.com",
		Password:    "secret1",
	})
	if !errors.Is(err, service.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	// No insert may happen on the duplicate path.
	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByEmailQuery).WithArgs("a@x.com").WillReturnRows(mock.NewRows(userColumns))

	cfg := newAuthConfig()
	cfg.PasswordPolicy.MinLength = 8

	svc := newAuthService(db, cfg)
	_, err := svc.Register(context.Background(), &dto.RegisterParams{
		Name:        "A",
		DateOfBirth: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:       "a@x.com",
		Password:    "short",
	})
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("a@x.com").
		WillReturnRows(userRow(mock, 7, "a@x.com", string(hash), sql.NullString{}))
	mock.ExpectExec(updateRefreshTokenStmt).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(updateLastLoginStmt).WillReturnResult(sqlmock.NewResult(0, 1))

	cfg := newAuthConfig()
	svc := newAuthService(db, cfg)
	result, err := svc.Login(context.Background(), "a@x.com", "secret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(result.AccessToken)
	if err != nil {
		t.Fatalf("issued access token does not verify: %v", err)
	}
	if claims.UserID != 7 {
		t.Fatalf("expected user id 7, got %d", claims.UserID)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByEmailQuery).WithArgs("nobody@x.com").WillReturnRows(mock.NewRows(userColumns))

	svc := newAuthService(db, newAuthConfig())
	if _, err := svc.Login(context.Background(), "nobody@x.com", "secret1"); !errors.Is(err, service.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}

	mock.ExpectQuery(findByEmailQuery).
		WithArgs("a@x.com").
		WillReturnRows(userRow(mock, 7, "a@x.com", string(hash), sql.NullString{}))

	svc := newAuthService(db, newAuthConfig())
	if _, err := svc.Login(context.Background(), "a@x.com", "wrong"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshAccessTokenSuccessAndIdempotent(t *testing.T) {
	cfg := newAuthConfig()
	tokens := service.NewTokenService(cfg)
	refreshToken, err := tokens.IssueRefreshToken(&entity.User{ID: 7})
	if err != nil {
		t.Fatalf("issue refresh failed: %v", err)
	}

	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	stored := sql.NullString{String: refreshToken, Valid: true}
	mock.ExpectQuery(findByIDQuery).WithArgs(uint64(7)).WillReturnRows(userRow(mock, 7, "a@x.com", "hash", stored))
	mock.ExpectQuery(findByIDQuery).WithArgs(uint64(7)).WillReturnRows(userRow(mock, 7, "a@x.com", "hash", stored))

	svc := newAuthService(db, cfg)

	first, err := svc.RefreshAccessToken(context.Background(), refreshToken)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if _, err = svc.ValidateAccessToken(first.AccessToken); err != nil {
		t.Fatalf("refreshed access token does not verify: %v", err)
	}

	// Same refresh token again: the flow never mutates the stored token.
	second, err := svc.RefreshAccessToken(context.Background(), refreshToken)
	if err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if _, err = svc.ValidateAccessToken(second.AccessToken); err != nil {
		t.Fatalf("second refreshed token does not verify: %v", err)
	}

	if err = mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRefreshRejectsReplacedToken(t *testing.T) {
	cfg := newAuthConfig()
	tokens := service.NewTokenService(cfg)

	oldToken, err := tokens.IssueRefreshToken(&entity.User{ID: 7})
	if err != nil {
		t.Fatalf("issue refresh failed: %v", err)
	}
	newToken, err := tokens.IssueRefreshToken(&entity.User{ID: 7})
	if err != nil {
		t.Fatalf("issue refresh failed: %v", err)
	}

	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	// A later login stored newToken; presenting oldToken must fail even
	// though its signature still verifies.
	mock.ExpectQuery(findByIDQuery).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(mock, 7, "a@x.com", "hash", sql.NullString{String: newToken, Valid: true}))

	svc := newAuthService(db, cfg)
	if _, err = svc.RefreshAccessToken(context.Background(), oldToken); !errors.Is(err, service.ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	cfg := newAuthConfig()
	cfg.JWTRefreshTokenTTL = -time.Minute
	tokens := service.NewTokenService(cfg)

	expired, err := tokens.IssueRefreshToken(&entity.User{ID: 7})
	if err != nil {
		t.Fatalf("issue refresh failed: %v", err)
	}

	db, _, cleanup := newMockDB(t)
	defer cleanup()

	svc := newAuthService(db, cfg)
	if _, err = svc.RefreshAccessToken(context.Background(), expired); !errors.Is(err, service.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefreshRejectsUnknownUser(t *testing.T) {
	cfg := newAuthConfig()
	tokens := service.NewTokenService(cfg)

	refreshToken, err := tokens.IssueRefreshToken(&entity.User{ID: 99})
	if err != nil {
		t.Fatalf("issue refresh failed: %v", err)
	}

	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(findByIDQuery).WithArgs(uint64(99)).WillReturnRows(mock.NewRows(userColumns))

	svc := newAuthService(db, cfg)
	if _, err = svc.RefreshAccessToken(context.Background(), refreshToken); !errors.Is(err, service.ErrSessionMismatch) {
		t.Fatalf("expected ErrSessionMismatch, got %v", err)
	}
}
