package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/mindmesh/mentorship/internal/api/handler"
	"github.com/mindmesh/mentorship/internal/api/middleware"
	"github.com/mindmesh/mentorship/internal/core/domain"
	"github.com/mindmesh/mentorship/internal/core/ports"
)

// Dependencies are the services the HTTP layer dispatches to.
type Dependencies struct {
	Auth          ports.AuthService
	Users         ports.UserService
	Projects      ports.ProjectService
	Applications  ports.ApplicationService
	Notifications ports.NotificationService
	Readiness     map[string]handler.PingFunc
	Log           zerolog.Logger

	// Registry receives the HTTP metrics and backs /metrics. Nil selects the
	// process-wide default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echomiddleware.CORS())
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "mentorship",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authn := middleware.Auth(deps.Auth)
	teacher := middleware.RBAC(domain.RoleTeacher)
	student := middleware.RBAC(domain.RoleStudent)

	api := e.Group("/api")

	// --- Auth ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/verify-reset-code", authHandler.VerifyResetCode)

	// --- Users & inbox ---
	userHandler := handler.NewUserHandler(deps.Users)
	inboxHandler := handler.NewNotificationHandler(deps.Notifications)
	users := api.Group("/users")
	users.GET("/me", userHandler.Me, authn)
	users.PUT("/me", userHandler.UpdateMe, authn)
	users.GET("/me/notifications", inboxHandler.List, authn)
	users.PATCH("/me/notifications/read", inboxHandler.MarkAllRead, authn)
	users.PATCH("/me/notifications/:id/read", inboxHandler.MarkRead, authn)
	users.GET("", userHandler.List, authn)
	users.GET("/:id", userHandler.Get)

	// --- Projects ---
	projectHandler := handler.NewProjectHandler(deps.Projects)
	projects := api.Group("/projects")
	projects.POST("", projectHandler.Create, authn, teacher)
	projects.GET("/my", projectHandler.Mine, authn, teacher)
	projects.GET("", projectHandler.List)
	projects.GET("/:id", projectHandler.Get)
	projects.PUT("/:id", projectHandler.Update, authn, teacher)
	projects.DELETE("/:id", projectHandler.Delete, authn, teacher)

	// --- Applications ---
	applicationHandler := handler.NewApplicationHandler(deps.Applications)
	applications := api.Group("/applications")
	applications.POST("", applicationHandler.Submit, authn, student)
	applications.GET("/project/:projectId", applicationHandler.ListForProject, authn, teacher)
	applications.PUT("/:id", applicationHandler.Transition, authn, teacher)
	applications.DELETE("/:id", applicationHandler.Withdraw, authn, student)
	applications.GET("/my", applicationHandler.Mine, authn, student)
	applications.GET("/of-student/:studentId", applicationHandler.ActiveProjectsOfStudent)

	return e
}

// requestLogger feeds echo's request logger into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	httpLog := log.With().Str("component", "http").Logger()
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := httpLog.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = httpLog.Warn().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

