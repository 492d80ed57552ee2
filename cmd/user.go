package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-users/app/entity"
	"github.com/vibast-solutions/ms-go-users/app/repository"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user records from the terminal",
}

var (
	userCreateName     string
	userCreateDOB      string
	userCreatePassword string
	userCreateRole     string
)

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Create a user record, e.g. the first Admin for the panel",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := openDBForUserCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		email := strings.TrimSpace(args[0])
		if email == "" {
			return errors.New("email is required")
		}

		role := entity.Role(userCreateRole)
		if !role.Valid() {
			return fmt.Errorf("unknown role %q (expected Admin, User, or Moderator)", userCreateRole)
		}

		dateOfBirth, err := time.Parse("2006-01-02", userCreateDOB)
		if err != nil {
			return errors.New("date of birth must be formatted as YYYY-MM-DD")
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userCreatePassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		userRepo := repository.NewUserRepository(db)
		ctx := context.Background()

		existing, err := userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %q already exists", email)
		}

		now := time.Now()
		user := &entity.User{
			Name:         userCreateName,
			DateOfBirth:  dateOfBirth,
			Email:        email,
			PasswordHash: string(hashedPassword),
			Role:         role,
			Status:       entity.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = userRepo.Create(ctx, user); err != nil {
			return err
		}

		fmt.Printf("user_id: %d\n", user.ID)
		fmt.Printf("email: %s\n", user.Email)
		fmt.Printf("role: %s\n", user.Role)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userCreateName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userCreateDOB, "dob", "", "date of birth (YYYY-MM-DD)")
	userCreateCmd.Flags().StringVar(&userCreatePassword, "password", "", "plaintext password, hashed before storage")
	userCreateCmd.Flags().StringVar(&userCreateRole, "role", string(entity.RoleUser), "role: Admin, User, or Moderator")
	_ = userCreateCmd.MarkFlagRequired("name")
	_ = userCreateCmd.MarkFlagRequired("dob")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}

func openDBForUserCommands() (*sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
