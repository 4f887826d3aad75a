// Package main is the entry point of the Lingvo Hub progress API.
//
// The server wires configuration, the curriculum catalog, the progress and
// learner stores, the aggregate progress mirror and the event bus into the
// HTTP interface, and shuts everything down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lingvo-hub/lingvo-hub/config"
	"github.com/lingvo-hub/lingvo-hub/internal/application/command"
	"github.com/lingvo-hub/lingvo-hub/internal/application/eventhandler"
	"github.com/lingvo-hub/lingvo-hub/internal/application/query"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/learner"
	"github.com/lingvo-hub/lingvo-hub/internal/domain/progress"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/filesystem"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/messaging"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/persistence/memory"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/persistence/postgres"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/persistence/redis"
	"github.com/lingvo-hub/lingvo-hub/internal/infrastructure/scheduler"
	schedulerjobs "github.com/lingvo-hub/lingvo-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/lingvo-hub/lingvo-hub/internal/interface/http"
	"github.com/lingvo-hub/lingvo-hub/internal/interface/http/handlers"
	"github.com/lingvo-hub/lingvo-hub/pkg/circuitbreaker"
	"github.com/lingvo-hub/lingvo-hub/pkg/logger"
	"github.com/lingvo-hub/lingvo-hub/pkg/timeutil"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-admin-key" {
		if err := hashAdminKey(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "hash-admin-key: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	}).With(logger.String("service", cfg.App.Name))

	log.Info("starting progress API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
	)

	clock, err := timeutil.NewSystemClock(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("failed to set up clock: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Curriculum
	// ─────────────────────────────────────────────────────────────────────────
	catalog, err := filesystem.NewCatalogLoader().LoadFromFile(cfg.Curriculum.Path)
	if err != nil {
		return fmt.Errorf("failed to load curriculum: %w", err)
	}
	log.Info("curriculum loaded", logger.String("path", cfg.Curriculum.Path), logger.Int("lessons", catalog.Size()))

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Storage
	// ─────────────────────────────────────────────────────────────────────────
	var (
		learners     learner.Repository
		progressRepo progress.Repository
		mirror       progress.Mirror
	)
	if cfg.Database.URL != "" {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL, postgres.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MaxIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return err
			}
		}

		learners = postgres.NewLearnerRepository(conn)
		store := postgres.NewProgressRepository(conn)
		progressRepo = store
		mirror = postgres.NewStoreMirror(store)
		health.AddCheck("database", handlers.NewPingCheck(conn))
		log.Info("connected to PostgreSQL")
	} else {
		learners = memory.NewLearnerRepository()
		progressRepo = memory.NewProgressRepository()
		mirror = memory.NewProgressMirror()
		log.Warn("DATABASE_URL is empty, using in-memory storage")
	}

	if !cfg.Redis.Disabled {
		client, err := redis.NewClient(ctx, redis.Config{
			URL:          cfg.Redis.URL,
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			KeyPrefix:    cfg.Redis.KeyPrefix,
		})
		if err != nil {
			log.Warn("redis unavailable, admin view reads the primary store", logger.Err(err))
		} else {
			defer client.Close()
			cache := redis.NewCache(client, cfg.Redis.KeyPrefix)
			learners = redis.NewCachedLearnerRepository(learners, cache, log)
			breaker := circuitbreaker.MirrorBreaker(func(name string, from, to circuitbreaker.State) {
				log.Warn("circuit breaker state changed",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()),
				)
			})
			guarded := redis.NewGuardedMirror(redis.NewProgressMirror(client, cfg.Redis.KeyPrefix), breaker)
			if store, ok := mirror.(*postgres.StoreMirror); ok {
				guarded.WithReadFallback(store)
				n, err := guarded.Warm(ctx, store)
				if err != nil {
					log.Warn("progress mirror warm-up incomplete", logger.Int("copied", n), logger.Err(err))
				} else {
					log.Info("progress mirror warmed", logger.Int("learners", n))
				}
			}
			mirror = guarded
			health.AddCheck("redis", handlers.NewPingCheck(cache))
			log.Info("connected to Redis")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Event bus and event handlers
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	notifier := eventhandler.NewAchievementNotifier(cfg.Features, log)
	if err := notifier.Register(bus); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Background jobs
	// ─────────────────────────────────────────────────────────────────────────
	jobs := scheduler.NewScheduler(scheduler.Config{
		Logger:   log,
		Timezone: clock.Location,
		Clock:    clock,
	})
	if cfg.Jobs.StreakWatchEnabled {
		watch := schedulerjobs.NewStreakWatchJob(mirror, bus, clock, log, cfg.Jobs.StreakWatchTimeout)
		if err := jobs.Register(watch, cfg.Jobs.StreakWatchInterval); err != nil {
			return fmt.Errorf("failed to register jobs: %w", err)
		}
	}
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer func() {
		if err := jobs.Stop(); err != nil {
			log.Warn("scheduler stop failed", logger.Err(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Application handlers and HTTP
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpapi.Dependencies{
		CompletePlacement: command.NewCompletePlacementHandler(learners, progressRepo, mirror, bus, clock, log),
		CompleteLesson:    command.NewCompleteLessonHandler(catalog, learners, progressRepo, mirror, bus, cfg.Features, clock, log),
		UnlockLevel:       command.NewUnlockLevelHandler(catalog, learners, progressRepo, mirror, bus, clock, log),
		DeleteLearner:     command.NewDeleteLearnerHandler(learners, progressRepo, mirror, bus, clock, log),
		GetProgress:       query.NewGetProgressHandler(progressRepo),
		GetDashboard:      query.NewGetDashboardHandler(catalog, learners, progressRepo, clock),
		ListAllProgress:   query.NewListAllProgressHandler(mirror),
		Features:          cfg.Features,
		HealthChecker:     health,
		Logger:            log,
	}

	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverConfig.AdminKeyHash = cfg.HTTP.AdminKeyHash

	server := httpapi.NewServer(serverConfig, deps)
	errCh := server.StartAsync()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", logger.Err(err))
	}

	log.Info("progress API stopped")
	return nil
}

// hashAdminKey reads an admin API key from r and writes its bcrypt hash for
// HTTP_ADMIN_KEY_HASH to w.
func hashAdminKey(r io.Reader, w io.Writer) error {
	raw, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return err
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return errors.New("empty key on stdin")
	}
	hash, err := handlers.HashKey(key)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.HTTP.ShutdownTimeout > 0 {
		return cfg.HTTP.ShutdownTimeout
	}
	return cfg.App.ShutdownTimeout
}
