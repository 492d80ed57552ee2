package cmd

import (
	"database/sql"
	"net"
	"net/http"
	"strings"

	"github.com/vibast-solutions/ms-go-users/app/controller"
	"github.com/vibast-solutions/ms-go-users/app/middleware"
	"github.com/vibast-solutions/ms-go-users/app/repository"
	"github.com/vibast-solutions/ms-go-users/app/service"
	"github.com/vibast-solutions/ms-go-users/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	tokenService := service.NewTokenService(cfg)
	userAuthService := service.NewUserAuthService(userRepo, tokenService, cfg)
	userService := service.NewUserService(userRepo)

	startHTTPServer(cfg, userAuthService, userService)
}

func configureLogging(cfg *config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)

	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

func startHTTPServer(cfg *config.Config, userAuthService service.UserAuthService, userService service.UserService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	// Cookie auth across sites needs credentials plus explicit origins; a
	// wildcard here would make browsers drop the cookies.
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	userAuthController := controller.NewUserAuthController(userAuthService, cfg)
	userController := controller.NewUserController(userService)
	authMiddleware := middleware.NewAuthMiddleware(userAuthService)
	authLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.AuthRateLimitRPS,
		Burst:             cfg.AuthRateLimitBurst,
	})

	api := e.Group("/api")
	api.POST("/register", userAuthController.Register, authLimiter.Limit)
	api.POST("/login", userAuthController.Login, authLimiter.Limit)
	api.POST("/logout", userAuthController.Logout)
	api.GET("/logout", userAuthController.Logout)
	api.GET("/refreshtoken", userAuthController.RefreshToken)
	api.GET("/auth/status", userAuthController.AuthStatus, authMiddleware.OptionalAuth)

	api.GET("/getallusers", userController.GetAllUsers, authMiddleware.RequireAuth)
	api.GET("/users/:id", userController.GetUser, authMiddleware.RequireAuth)
	api.PUT("/users/:id", userController.UpdateUser)
	api.DELETE("/users/:id", userController.DeleteUser)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
