package cmd

import (
	"database/sql"
	"net"

	"github.com/marchingbytes/identity-service/app/controller"
	"github.com/marchingbytes/identity-service/app/middleware"
	"github.com/marchingbytes/identity-service/app/repository"
	"github.com/marchingbytes/identity-service/app/service"
	"github.com/marchingbytes/identity-service/app/storage"
	"github.com/marchingbytes/identity-service/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Echo HTTP server for the identity service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	objectStorage, err := storage.NewS3Storage(cmd.Context(), cfg.S3)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialise object storage")
	}

	userRepo := repository.NewUserRepository(db)
	resetTokenRepo := repository.NewResetTokenRepository(db)
	claimsRepo := repository.NewClaimsRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	notifier := service.NewSendGridNotifier(cfg.SendGrid)
	claimsService := service.NewClaimsService(claimsRepo, userRepo)
	tokenService := service.NewTokenService(cfg, claimsService)
	registrationService := service.NewRegistrationService(userRepo, cfg, notifier)
	sessionService := service.NewSessionService(db, userRepo, resetTokenRepo, tokenService, cfg, notifier)
	profileService := service.NewProfileService(profileRepo, objectStorage)

	startHTTPServer(cfg, tokenService, registrationService, sessionService, claimsService, profileService)
}

func startHTTPServer(cfg *config.Config, tokenService *service.TokenService, registrationService *service.RegistrationService, sessionService *service.SessionService, claimsService *service.ClaimsService, profileService *service.ProfileService) {
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
	e.Use(echomiddleware.CORS())

	userController := controller.NewUserController(registrationService, sessionService)
	claimsController := controller.NewClaimsController(claimsService)
	profileController := controller.NewProfileController(profileService)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	user := e.Group("/user")
	user.POST("/register", userController.Register)
	user.POST("/login", userController.Login)
	user.POST("/validate-email", userController.ValidateEmail)
	user.POST("/refresh", userController.Refresh)
	user.POST("/request-password-reset", userController.RequestPasswordReset)
	user.POST("/reset-password", userController.ResetPassword)

	userProtected := user.Group("", authMiddleware.RequireAuth())
	userProtected.POST("/resend-verification-email", userController.ResendVerificationEmail)
	userProtected.POST("/change-password", userController.ChangePassword)

	profile := e.Group("/profile", authMiddleware.RequireAuth())
	profile.GET("", profileController.GetProfile)
	profile.POST("", profileController.UpsertProfile)
	profile.GET("/:id", profileController.GetPublicProfile)
	profile.POST("/picture", profileController.UploadPicture)

	management := e.Group("/management", authMiddleware.RequireAuth())
	management.GET("/allClaims", claimsController.ListClaims, authMiddleware.RequireSuperAdmin())
	management.POST("/updateClaims", claimsController.UpdateClaims, authMiddleware.RequireSuperAdmin())

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}

func configureLogging(cfg *config.Config) {
	if cfg.Log.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.WithField("level", cfg.Log.Level).Warn("Unknown log level, defaulting to info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
