package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/config"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/event"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway"
	gatewaymock "github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway/mock"
	gatewayrest "github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/gateway/rest"
	handler "github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/handler/http"
	mailermock "github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/mailer/mock"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository/postgres"
	redisrepo "github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/repository/redis"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/internal/service"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/migrations"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/database"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/health"
	pkgkafka "github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/kafka"
	"github.com/tanvirarif033/denapaona.com-webapp-sub000/pkg/tracing"
)

// App wires together all dependencies and runs the pricing service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "pricing",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.TracingEndpoint,
		SampleRate:     cfg.TracingSampler,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for report caching.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.RedisHost),
		slog.Int("port", cfg.RedisPort),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Payment gateway provider.
	var provider gateway.Provider
	switch cfg.GatewayProvider {
	case "rest":
		provider = gatewayrest.NewProvider(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout)
	default:
		provider = gatewaymock.NewProvider()
	}
	logger.Info("payment gateway initialized", slog.String("provider", provider.Name()))

	// Build the dependency graph.
	offerRepo := postgres.NewOfferRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	reportCache := redisrepo.NewReportCache(redisClient, cfg.ReportCacheTTL)

	eventProducer := event.NewProducer(producer, logger)
	mailSender := mailermock.NewSender(logger)

	discountService := service.NewDiscountService(productRepo, logger)
	offerService := service.NewOfferService(offerRepo, discountService, eventProducer, logger)
	checkoutService := service.NewCheckoutService(
		offerRepo,
		productRepo,
		orderRepo,
		userRepo,
		provider,
		mailSender,
		eventProducer,
		logger,
		cfg.GatewayCurrency,
	)
	analyticsService := service.NewAnalyticsService(orderRepo, productRepo, categoryRepo, reportCache, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(offerService, checkoutService, analyticsService, healthHandler, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
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

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain HTTP first so in-flight
// checkouts finish, flush tracer spans, then close the producer and stores.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return nil
}
