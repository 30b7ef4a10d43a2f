package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/flexfit/storefront/internal/catalog"
	"github.com/flexfit/storefront/internal/checkout"
	"github.com/flexfit/storefront/internal/config"
	"github.com/flexfit/storefront/internal/contact"
	contactkafka "github.com/flexfit/storefront/internal/contact/kafka"
	contactmock "github.com/flexfit/storefront/internal/contact/mock"
	"github.com/flexfit/storefront/internal/event"
	handler "github.com/flexfit/storefront/internal/handler/http"
	"github.com/flexfit/storefront/internal/preference"
	"github.com/flexfit/storefront/internal/preference/memory"
	redispref "github.com/flexfit/storefront/internal/preference/redis"
	"github.com/flexfit/storefront/internal/repository"
	"github.com/flexfit/storefront/internal/repository/postgres"
	"github.com/flexfit/storefront/internal/repository/rest"
	"github.com/flexfit/storefront/internal/service"
	"github.com/flexfit/storefront/internal/session"
	"github.com/flexfit/storefront/pkg/database"
	"github.com/flexfit/storefront/pkg/health"
	"github.com/flexfit/storefront/pkg/httpclient"
	pkgkafka "github.com/flexfit/storefront/pkg/kafka"
	"github.com/flexfit/storefront/pkg/middleware"
	"github.com/flexfit/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	sessions       *session.Manager
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	healthHandler := health.NewHandler()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	cat, err := catalog.Default()
	if err != nil {
		a.closeResources()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", slog.Int("products", cat.Len()))

	prefs, err := a.initPreferences(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	repo, err := a.initRepository(ctx, healthHandler)
	if err != nil {
		a.closeResources()
		return nil, err
	}

	// Initialize Kafka producer. An unreachable broker degrades event
	// publishing but does not stop the service.
	var eventProducer *event.Producer
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := a.producer.Ping(ctx); err != nil {
			logger.Warn("kafka ping failed, continuing in degraded mode", slog.String("error", err.Error()))
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		eventProducer = event.NewProducer(a.producer, logger)
		healthHandler.Register("kafka", a.producer.Ping)
	}

	// Build the dependency graph.
	productService := service.NewProductService(repo, cat, logger)
	if cfg.SeedBackend {
		seeded, err := productService.SeedBackend(ctx)
		if err != nil {
			logger.Error("failed to seed product backend", slog.String("error", err.Error()))
		} else {
			logger.Info("product backend seed checked", slog.Bool("seeded", seeded))
		}
	}

	var sender contact.Sender = contactmock.New(cfg.ShopName, cfg.ContactRecipient, time.Second, logger)
	if cfg.ContactSender == config.ContactKafka && eventProducer != nil {
		sender = contactkafka.New(eventProducer, logger)
	}

	var events session.Events
	if eventProducer != nil {
		events = eventProducer
	}
	a.sessions = session.NewManager(session.Options{
		Catalog:     cat,
		Preferences: prefs,
		Events:      events,
		Checkout: checkout.Options{
			ProcessingDelay: cfg.CheckoutDelay(),
			OrderNumbers:    checkout.RandomOrderNumbers,
		},
		SeedCart: cfg.SeedCart,
		Logger:   logger,
	})

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.Dependencies{
		Catalog:  cat,
		Sessions: a.sessions,
		Products: productService,
		Contact:  service.NewContactService(sender, logger),
		Health:   healthHandler,
		CORS:     corsCfg,
		Logger:   logger,

		RequestTimeout: cfg.RequestTimeout(),
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initPreferences builds the preference store for the configured storage.
func (a *App) initPreferences(ctx context.Context, h *health.Handler) (preference.Store, error) {
	if a.cfg.Storage == config.StorageMemory {
		a.logger.Warn("using in-memory preference storage; carts are lost on restart")
		return preference.NewKVStore(memory.New()), nil
	}

	redisCfg := database.DefaultRedisConfig()
	if a.cfg.RedisURL != "" {
		redisCfg.URL = a.cfg.RedisURL
	}
	if a.cfg.RedisPool > 0 {
		redisCfg.PoolSize = a.cfg.RedisPool
	}
	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Info("connected to Redis", slog.Duration("preference_ttl", a.cfg.PreferenceTTL()))

	kv := redispref.New(rdb, a.cfg.PreferenceTTL())
	h.Register("redis", kv.Ping)
	return preference.NewKVStore(kv), nil
}

// initRepository builds the product repository for the configured backend.
// It returns a nil repository when no backend is configured.
func (a *App) initRepository(ctx context.Context, h *health.Handler) (repository.ProductRepository, error) {
	switch a.cfg.Backend {
	case config.BackendPostgres:
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.URL = a.cfg.PostgresURL
		pgCfg.MaxConns = a.cfg.DBMaxConns
		pgCfg.MinConns = a.cfg.DBMinConns

		pool, err := database.NewPostgresPool(ctx, pgCfg, a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		a.logger.Info("connected to PostgreSQL")

		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			a.logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
		if err := database.RunMigrations(ctx, pool, postgres.Migrations(), a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")

		h.Register("postgres", pool.Ping)
		return postgres.NewProductRepository(pool, database.QueryTracer{
			SlowThreshold: a.cfg.SlowQueryThreshold(),
			Logger:        a.logger,
		}), nil

	case config.BackendREST:
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = a.cfg.BackendTimeout()
		if a.cfg.RESTAPIKey != "" {
			clientCfg.Headers = map[string]string{
				"apikey":        a.cfg.RESTAPIKey,
				"Authorization": "Bearer " + a.cfg.RESTAPIKey,
			}
		}
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(clientCfg),
			httpclient.DefaultCircuitBreakerConfig("product-backend"),
			a.logger,
		).WithFallback(rest.CircuitOpenFallback)
		a.logger.Info("using REST product backend", slog.String("url", a.cfg.RESTURL))
		return rest.NewProductRepository(a.cfg.RESTURL, client), nil

	default:
		a.logger.Info("no product backend configured; serving the embedded catalog")
		return nil, nil
	}
}

// Run starts the HTTP server and the idle session sweeper, then blocks until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go a.runSessionSweep(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// runSessionSweep periodically evicts idle sessions from memory.
func (a *App) runSessionSweep(ctx context.Context) {
	idle := a.cfg.SessionIdle()
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sessions.Sweep(ctx, idle)
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.sessions.CloseAll()
	a.closeResources()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeResources() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
}
