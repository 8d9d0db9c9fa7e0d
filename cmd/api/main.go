package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/adapter/storage/memory"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// ledgerStore bundles the repositories of one storage driver.
type ledgerStore struct {
	wallets    ports.WalletRepository
	operations ports.OperationRepository
	transactor ports.DBTransactor
	health     ports.HealthChecker
	close      func()
}

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("WLT_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("Wallet Ledger stopped with error")
		os.Exit(1)
	}
}

// run wires the service and blocks until shutdown. Deferred cleanup runs
// before the caller decides the exit code.
func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting Wallet Ledger")

	ctx := context.Background()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("opening %s ledger store: %w", cfg.Storage.Driver, err)
	}
	defer store.close()

	// The cache is optional: requests fall through to the store while Redis is down.
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, balance cache degraded")
	}
	defer rdb.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := service.NewMetrics(registry)

	// Initialize services
	cache := service.NewCacheGateway(
		redisStorage.NewCacheStore(rdb),
		cfg.Redis.CacheTTL,
		cfg.Redis.OpTimeout,
		metrics,
		logger.Component(log, "balance_cache"),
	)
	operationSvc := service.NewOperationService(
		store.wallets,
		store.operations,
		store.transactor,
		cache,
		metrics,
		logger.Component(log, "operations"),
	)
	walletSvc := service.NewWalletService(store.wallets, store.operations, cache, metrics, logger.Component(log, "wallets"))
	healthSvc := service.NewHealthService(store.health, redisStorage.NewHealthCheck(rdb), cfg.Health.Timeout, logger.Component(log, "health"))

	var limiter ports.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = redisStorage.NewRateLimitStore(rdb)
		log.Info().Int64("limit", cfg.RateLimit.Limit).Dur("window", cfg.RateLimit.Window).Msg("Operation rate limiting enabled")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:    walletSvc,
		OperationSvc: operationSvc,
		HealthSvc:    healthSvc,
		RateLimiter:  limiter,
		RateLimit: middleware.RateLimitRule{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window,
		},
		Registry: registry,
		Mode:     cfg.Server.Mode,
		Logger:   logger.Component(log, "http"),
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(srv, ln, quit, cfg.Server.ShutdownTimeout, log)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ledgerStore, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		mem := memory.NewStore()
		log.Warn().Msg("Using in-memory ledger store, balances are lost on restart")
		return &ledgerStore{
			wallets:    memory.NewWalletRepo(mem),
			operations: memory.NewOperationRepo(mem),
			transactor: mem,
			health:     mem,
			close:      func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Migrate {
		if err := pgStorage.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("applying migrations: %w", err)
		}
	}

	return &ledgerStore{
		wallets:    pgStorage.NewWalletRepo(pool),
		operations: pgStorage.NewOperationRepo(pool),
		transactor: pgStorage.NewTransactor(pool),
		health:     pgStorage.NewHealthCheck(pool),
		close:      pool.Close,
	}, nil
}
