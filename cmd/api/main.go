// @title                       Parking API
// @version                     1.0
// @description                 Parking lot management: clients, spots, check-in and check-out with loyalty discounts.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	_ "github.com/demopark/parking-api/docs"
	"github.com/demopark/parking-api/internal/api"
	"github.com/demopark/parking-api/internal/api/metrics"
	"github.com/demopark/parking-api/internal/core/domain"
	"github.com/demopark/parking-api/internal/core/ports"
	"github.com/demopark/parking-api/internal/core/service"
	"github.com/demopark/parking-api/internal/infrastructure/config"
	mongostore "github.com/demopark/parking-api/internal/infrastructure/db/mongo"
	pgstore "github.com/demopark/parking-api/internal/infrastructure/db/postgres"
	redisstore "github.com/demopark/parking-api/internal/infrastructure/db/redis"
	"github.com/demopark/parking-api/internal/infrastructure/http/handlers"
	"github.com/demopark/parking-api/internal/infrastructure/queue"
	"github.com/demopark/parking-api/internal/infrastructure/report"
	"github.com/demopark/parking-api/internal/infrastructure/ws"
	"github.com/demopark/parking-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// store bundles the repositories of the configured backend.
type store struct {
	tx       ports.TxManager
	users    ports.UserRepository
	clients  ports.ClientRepository
	spots    ports.SpotRepository
	sessions ports.SessionRepository
	ping     handlers.Check
	close    func(context.Context)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// logger is not configured yet
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "parking-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	tariff, err := cfg.Tariff.Parse()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close(context.WithoutCancel(ctx))
	log.Info().Str("driver", cfg.StoreDriver).Msg("store connected")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Live feed ---
	hub := ws.NewHub(logger.Component("feed"), originChecker(cfg.CORSOrigins))
	dispatcher := queue.NewDispatcher(cfg.FeedWorkers, service.NewEventService(hub, logger.Component("events")), logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Services ---
	authService := service.NewAuthService(st.users, cfg.JWTSecret, cfg.JWTTTL)
	userService := service.NewUserService(st.users, logger.Component("users"))
	clientService := service.NewClientService(st.clients, logger.Component("clients"))
	spotService := service.NewSpotService(st.spots, logger.Component("spots"))
	parkingService := service.NewParkingService(
		st.tx, st.clients, st.spots, st.sessions, tariff, logger.Component("parking"),
		service.WithIdempotency(redisstore.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)),
		service.WithEvents(dispatcher),
		service.WithLocation(loc),
	)
	reportService := service.NewReportService(st.clients, st.sessions, report.NewPDFRenderer(loc), logger.Component("reports"))

	if cfg.Admin.Username != "" && cfg.Admin.Password != "" {
		if err := userService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			return err
		}
	}

	occupied, err := spotService.List(ctx, domain.SpotOccupied)
	if err != nil {
		return err
	}
	metrics.SpotsOccupied.Set(float64(len(occupied)))

	router := api.NewRouter(api.Dependencies{
		Logger:    log,
		JWTSecret: cfg.JWTSecret,
		Auth:      authService,
		Users:     userService,
		Clients:   clientService,
		Spots:     spotService,
		Parking:   parkingService,
		Reports:   reportService,
		Feed:      hub,
		HealthChecks: map[string]handlers.Check{
			cfg.StoreDriver: st.ping,
			"redis": func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		},
		AuthRateLimit: cfg.RateLimit.RPS,
		AuthRateBurst: cfg.RateLimit.Burst,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders:   []string{"Location", "Idempotent-Replayed", "Content-Disposition"},
		AllowCredentials: !slices.Contains(cfg.CORSOrigins, "*"),
	}).Handler(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received; shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore connects the backend selected by STORE_DRIVER and makes sure its
// schema or indexes exist.
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return &store{
			tx:       mongostore.NewTxManager(client),
			users:    mongostore.NewUserRepository(db),
			clients:  mongostore.NewClientRepository(db),
			spots:    mongostore.NewSpotRepository(db),
			sessions: mongostore.NewSessionRepository(db),
			ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:    func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	default:
		pool, err := pgstore.Connect(ctx, pgstore.Config{
			URL:      cfg.Postgres.URL,
			MaxConns: cfg.Postgres.MaxConns,
			MinConns: cfg.Postgres.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := pgstore.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			tx:       pgstore.NewTxManager(pool),
			users:    pgstore.NewUserRepository(pool),
			clients:  pgstore.NewClientRepository(pool),
			spots:    pgstore.NewSpotRepository(pool),
			sessions: pgstore.NewSessionRepository(pool),
			ping:     pool.Ping,
			close:    func(context.Context) { pool.Close() },
		}, nil
	}
}

// originChecker accepts WebSocket upgrades from the configured CORS origins.
func originChecker(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
