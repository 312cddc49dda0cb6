package routes

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/admin"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/auth"
	"NoticeBoard/internal/config"
	"NoticeBoard/internal/event"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/notice"
	"NoticeBoard/internal/notification"
	"NoticeBoard/internal/validation"
	"NoticeBoard/internal/verification"
	"NoticeBoard/pkg/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// BodyLimit caps request bodies: two 5 MB attachments plus form fields.
const BodyLimit = "12M"

var EchoModules = fx.Module("echo",
	fx.Provide(config.Load),
	fx.Provide(config.NewLogger),
	fx.Provide(config.NewMongoDBClient),
	fx.Provide(config.NewMailSender),
	fx.Provide(validation.New),
	fx.Provide(access.NewPolicy),
	fx.Provide(NewTokenIssuer),
	fx.Provide(NewAttachmentStore),

	fx.Provide(identity.NewUserRepository),
	fx.Provide(func(r *identity.UserRepository) identity.Store { return r }),
	fx.Provide(verification.NewRequestRepository),
	fx.Provide(func(r *verification.RequestRepository) verification.Repository { return r }),
	fx.Provide(notice.NewNoticeRepository),
	fx.Provide(func(r *notice.NoticeRepository) notice.Repository { return r }),
	fx.Provide(event.NewEventRepository),
	fx.Provide(func(r *event.EventRepository) event.Repository { return r }),

	fx.Provide(verification.NewQueue),
	fx.Provide(NewWorkflow),
	fx.Provide(verification.NewSweeper),
	fx.Provide(NewAuthService),
	fx.Provide(notice.NewService),
	fx.Provide(event.NewService),
	fx.Provide(admin.NewService),

	fx.Provide(middleware.NewAuthenticator),
	fx.Provide(auth.NewAuthHandler),
	fx.Provide(notice.NewNoticeHandler),
	fx.Provide(event.NewEventHandler),
	fx.Provide(admin.NewAdminHandler),

	fx.Provide(NewEchoServer),
	fx.Invoke(EnsureIndexes),
	fx.Invoke(func(s *verification.Sweeper, lc fx.Lifecycle) { s.Start(lc) }),
	fx.Invoke(RegisterRoutes),
)

func NewTokenIssuer(cfg *config.Config) *auth.TokenIssuer {
	return auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
}

func NewAttachmentStore(cfg *config.Config) (attachment.Store, *attachment.DiskStore, error) {
	store, err := attachment.NewDiskStore(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

func NewWorkflow(users identity.Store, queue *verification.Queue, sender notification.Sender, cfg *config.Config, logger *zap.Logger) *verification.Workflow {
	return verification.NewWorkflow(users, queue, sender, verification.Options{AdminEmail: cfg.AdminEmail}, logger)
}

func NewAuthService(users identity.Store, workflow *verification.Workflow, tokens *auth.TokenIssuer, cfg *config.Config, logger *zap.Logger) *auth.Service {
	return auth.NewService(users, workflow, tokens, cfg.EmailDomain, logger)
}

type indexParams struct {
	fx.In

	Users    *identity.UserRepository
	Requests *verification.RequestRepository
	Notices  *notice.NoticeRepository
	Events   *event.EventRepository
}

// EnsureIndexes builds collection indexes before the server accepts traffic.
func EnsureIndexes(lc fx.Lifecycle, p indexParams, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return config.EnsureIndexes(ctx, logger, p.Users, p.Requests, p.Notices, p.Events)
		},
	})
}

func NewEchoServer(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, v *validation.Validator, files *attachment.DiskStore) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = apperr.NewHTTPErrorHandler(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.HeaderAuthToken},
	}))
	e.Use(echomw.BodyLimit(BodyLimit))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.Static("/uploads", files.Dir())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("server running", zap.String("addr", cfg.Addr()), zap.String("base_url", cfg.BaseURL))
			go func() {
				if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to start the server", zap.Error(err))
					os.Exit(1)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down the server")
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return e.Shutdown(ctx)
		},
	})
	return e
}

type handlers struct {
	fx.In

	Authn  *middleware.Authenticator
	Policy *access.Policy
	Logger *zap.Logger

	Auth    *auth.AuthHandler
	Notices *notice.NoticeHandler
	Events  *event.EventHandler
	Admin   *admin.AdminHandler
}

func RegisterRoutes(e *echo.Echo, h handlers) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Notice Board API is running"})
	})

	api := e.Group("/api")
	requireAuth := h.Authn.Require

	authGroup := api.Group("/auth")
	authGroup.POST("/register/student", h.Auth.RegisterStudent)
	authGroup.POST("/register/faculty", h.Auth.RegisterFaculty)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/me", h.Auth.Me, requireAuth)
	authGroup.POST("/verify-email", h.Auth.VerifyEmail)
	authGroup.POST("/resend-verification", h.Auth.ResendVerification)
	authGroup.POST("/forgot-password", h.Auth.ForgotPassword)
	authGroup.POST("/reset-password", h.Auth.ResetPassword)
	authGroup.POST("/change-password", h.Auth.ChangePassword, requireAuth)

	notices := api.Group("/notices")
	notices.GET("", h.Notices.List)
	notices.GET("/:id", h.Notices.Get)
	notices.POST("", h.Notices.Create, requireAuth)
	notices.PUT("/:id", h.Notices.Update, requireAuth)
	notices.DELETE("/:id", h.Notices.Delete, requireAuth)

	events := api.Group("/events")
	events.GET("", h.Events.List)
	events.GET("/:id", h.Events.Get)
	events.POST("", h.Events.Create, requireAuth)
	events.PUT("/:id", h.Events.Update, requireAuth)
	events.DELETE("/:id", h.Events.Delete, requireAuth)

	adminGroup := api.Group("/admin", requireAuth, middleware.RBAC(h.Policy, h.Logger))
	adminGroup.GET("/users", h.Admin.ListUsers)
	adminGroup.GET("/users/:id", h.Admin.GetUser)
	adminGroup.PUT("/users/:id/role", h.Admin.ChangeRole)
	adminGroup.DELETE("/users/:id", h.Admin.DeleteUser)
	adminGroup.GET("/verification-requests", h.Admin.VerificationRequests)
	adminGroup.PUT("/verification-requests/:id/approve", h.Admin.Approve)
	adminGroup.PUT("/verification-requests/:id/reject", h.Admin.Reject)
}
