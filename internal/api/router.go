package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/demopark/parking-api/internal/api/handler"
	"github.com/demopark/parking-api/internal/api/middleware"
	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
	"github.com/demopark/parking-api/internal/infrastructure/http/handlers"
)

// Dependencies groups everything the router needs to build its handlers.
type Dependencies struct {
	Logger    zerolog.Logger
	JWTSecret string

	Auth    ports.AuthService
	Users   ports.UserService
	Clients ports.ClientService
	Spots   ports.SpotService
	Parking ports.ParkingService
	Reports ports.ReportService
	Feed    handler.FeedServer

	// HealthChecks are run by the readiness probe, keyed by dependency name.
	HealthChecks map[string]handlers.Check

	AuthRateLimit float64
	AuthRateBurst int

	// MetricsRegisterer receives the HTTP request metrics. Defaults to the
	// global Prometheus registerer.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	registerer := deps.MetricsRegisterer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "parking",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/api/v1/spots/feed"
		},
	}))

	// --- Operational routes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness: is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)
	clientHandler := handler.NewClientHandler(deps.Clients)
	spotHandler := handler.NewSpotHandler(deps.Spots)
	parkingHandler := handler.NewParkingHandler(deps.Parking, deps.Reports)
	feedHandler := handler.NewFeedHandler(deps.Feed, deps.Logger)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)
	clientOnly := middleware.RBAC(domain.RoleClient)
	anyRole := middleware.RBAC(domain.RoleAdmin, domain.RoleClient)
	limiter := middleware.NewRateLimiter(deps.AuthRateLimit, deps.AuthRateBurst)

	v1 := e.Group("/api/v1")

	// --- Auth ---
	v1.POST("/auth", authHandler.Login, limiter.Limit())

	// --- Users ---
	v1.POST("/users", authHandler.Register, limiter.Limit())
	users := v1.Group("/users", authMiddleware)
	users.GET("", userHandler.List, adminOnly)
	users.GET("/:id", userHandler.Get, anyRole)
	users.PATCH("/:id/password", userHandler.ChangePassword, anyRole)

	// --- Clients ---
	clients := v1.Group("/clients", authMiddleware)
	clients.POST("", clientHandler.Create, clientOnly)
	clients.GET("", clientHandler.List, adminOnly)
	clients.GET("/me", clientHandler.Me, clientOnly)
	clients.GET("/:id", clientHandler.Get, adminOnly)

	// --- Spots ---
	spots := v1.Group("/spots", authMiddleware, adminOnly)
	spots.POST("", spotHandler.Create)
	spots.GET("", spotHandler.List)
	spots.GET("/feed", feedHandler.Subscribe)
	spots.GET("/:code", spotHandler.Get)

	// --- Parkings ---
	parkings := v1.Group("/parkings", authMiddleware)
	parkings.POST("/check-in", parkingHandler.CheckIn, adminOnly)
	parkings.GET("/check-in/:receipt", parkingHandler.Get, anyRole)
	parkings.GET("/check-in/:receipt/ticket", parkingHandler.Ticket, anyRole)
	parkings.PUT("/check-out/:receipt", parkingHandler.CheckOut, adminOnly)
	parkings.GET("/cpf/:cpf", parkingHandler.ListByCPF, adminOnly)
	parkings.GET("", parkingHandler.ListMine, clientOnly)
	parkings.GET("/report", parkingHandler.Report, clientOnly)

	return e
}
