package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aevon-lab/project-ledger/internal/command"
	corecfg "github.com/aevon-lab/project-ledger/internal/core/config"
	"github.com/aevon-lab/project-ledger/internal/core/eventsource"
	"github.com/aevon-lab/project-ledger/internal/core/storage"
	"github.com/aevon-lab/project-ledger/internal/core/storage/memory"
	"github.com/aevon-lab/project-ledger/internal/core/storage/postgres"
	"github.com/aevon-lab/project-ledger/internal/dispatch"
	"github.com/aevon-lab/project-ledger/internal/migrations"
	"github.com/aevon-lab/project-ledger/internal/project"
	"github.com/aevon-lab/project-ledger/internal/projection"
	"github.com/aevon-lab/project-ledger/internal/server"
	"github.com/aevon-lab/project-ledger/internal/telemetry"
	"github.com/aevon-lab/project-ledger/internal/user"
	goredis "github.com/redis/go-redis/v9"
)

// backend bundles the stores one database mode provides.
type backend struct {
	log     storage.EventLog
	offsets storage.OffsetStore
	views   projection.Store
	health  server.HealthChecker
	close   func()
}

type subscription struct {
	name     string
	decoder  dispatch.Decoder
	handlers dispatch.HandlerSet
}

func main() {
	configPath := flag.String("config", "ledger.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "config", cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Tracing
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("Failed to flush traces", "error", err)
		}
	}()

	// 3. Initialize Storage
	store, err := openBackend(cfg.Database)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.close()

	// 4. Initialize Dispatcher and Projections
	projectRegistry := project.NewRegistry()
	userRegistry := user.NewRegistry()

	dispatcher := dispatch.New(store.offsets, dispatch.Options{
		PollInterval:         cfg.Dispatch.PollInterval,
		BatchSize:            cfg.Dispatch.BatchSize,
		PerAggregateLimit:    cfg.Dispatch.PerAggregateLimit,
		WorkerCount:          cfg.Dispatch.WorkerCount,
		RetryInitialInterval: cfg.Dispatch.RetryInitialInterval,
		RetryMaxInterval:     cfg.Dispatch.RetryMaxInterval,
	})
	subscriptions := []subscription{
		{projection.ProjectProjection, projectRegistry, projection.ProjectHandlers(store.views)},
		{projection.ProjectUserProjection, projectRegistry, projection.ProjectUserHandlers(store.views)},
		{projection.UserProjection, userRegistry, projection.UserHandlers(store.views)},
	}

	if cfg.Redis.Enabled {
		rdb, err := openRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			slog.Error("Failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		bus := projection.NewEventBus(rdb, cfg.Redis.ChannelPrefix)
		for _, decoder := range []dispatch.Decoder{projectRegistry, userRegistry} {
			subscriptions = append(subscriptions, subscription{
				name:     projection.EventBusProjection + "." + decoder.AggregateType(),
				decoder:  decoder,
				handlers: bus.Handlers(),
			})
		}
	}

	for _, sub := range subscriptions {
		if err := dispatcher.Subscribe(sub.name, sub.decoder, sub.handlers); err != nil {
			slog.Error("Failed to subscribe projection", "subscriber", sub.name, "error", err)
			os.Exit(1)
		}
	}

	// 5. Initialize Repositories
	var notifier eventsource.Notifier
	if cfg.Dispatch.Enabled {
		notifier = dispatcher
	}
	repoOpts := eventsource.Options{
		MaxAttempts:   cfg.Engine.MaxAttempts,
		CacheCapacity: cfg.Engine.CacheCapacity,
		Notifier:      notifier,
	}
	projects := eventsource.NewRepository(projectRegistry, store.log, repoOpts)
	users := eventsource.NewRepository(userRegistry, store.log, repoOpts)

	// 6. Initialize Server
	commandSvc := command.NewService(projects, users, cfg.Server.MaxBodySizeMB)
	querySvc := projection.NewService(store.views, store.offsets)

	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store.health, cfg.Server.Mode)
	commandSvc.RegisterRoutes(srv.Engine)
	querySvc.RegisterRoutes(srv.Engine)

	// 7. Start Services
	dispatchDone := make(chan struct{})
	if cfg.Dispatch.Enabled {
		go func() {
			defer close(dispatchDone)
			if err := dispatcher.Start(ctx); err != nil {
				slog.Error("Dispatcher stopped with error", "error", err)
			}
		}()
	} else {
		close(dispatchDone)
		slog.Info("Dispatcher disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		cancel()
	}

	// Let the dispatcher finish its final drain before the database closes.
	<-dispatchDone
	slog.Info("Shutdown complete")
}

func openBackend(cfg corecfg.DatabaseConfig) (*backend, error) {
	if cfg.Type == "memory" {
		slog.Warn("Using in-memory event log; all data is lost on exit")
		log := memory.NewEventLog(0)
		return &backend{
			log:     log,
			offsets: log,
			views:   projection.NewMemoryStore(),
			close:   func() {},
		}, nil
	}

	adapter, err := postgres.NewAdapter(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, err
	}
	if err := migrations.RunMigrations(adapter.DB(), cfg.AutoMigrate); err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}
	if err := adapter.Prepare(); err != nil {
		_ = adapter.Close()
		return nil, err
	}

	return &backend{
		log:     adapter,
		offsets: postgres.NewOffsetAdapter(adapter.DB()),
		views:   postgres.NewReadModelAdapter(adapter.DB()),
		health:  adapter,
		close: func() {
			if err := adapter.Close(); err != nil {
				slog.Error("Failed to close database", "error", err)
			}
		},
	}, nil
}

func openRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
