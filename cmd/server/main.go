// Package main - точка входа LearnSphere: HTTP API, сессии студентов и
// фоновые задачи (напоминания, повторное сохранение, очистка уведомлений).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/roshankumarc210506-arch/learnsphere/config"
	"github.com/roshankumarc210506-arch/learnsphere/internal/application/query"
	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/notification"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/progress"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/redis"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/scheduler"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/scheduler/jobs"
	apihttp "github.com/roshankumarc210506-arch/learnsphere/internal/interface/http"
	"github.com/roshankumarc210506-arch/learnsphere/internal/interface/http/handlers"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/circuitbreaker"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/timeutil"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.App.LogLevel),
		Format:    logger.Format(cfg.App.LogFormat),
		AddSource: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name), logger.String("version", cfg.App.Version))

	log.Info("starting LearnSphere",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("timezone", cfg.App.Timezone),
	)

	clock := timeutil.SystemClock{}
	health := handlers.NewHealthChecker(cfg.App.Version, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	store, err := openStorage(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing storage...")
		store.close()
	}()

	progressStore := store.progress
	var snapshots *redis.LeaderboardCache

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled || cfg.Features.Enabled(config.FeatureRedisCache) {
		cache, err := redis.NewCache(ctx, redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			health.AddCheck("redis", handlers.PingCheck(cache))
			breaker := circuitbreaker.CacheBreaker(
				circuitbreaker.WithIsFailure(redis.IsCacheFailure),
				circuitbreaker.WithClock(clock),
				circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
					log.Warn("circuit breaker state changed",
						logger.String("breaker", name),
						logger.String("from", from.String()),
						logger.String("to", to.String()))
				}),
			)
			guarded := redis.NewGuardedCache(cache, breaker)
			progressStore = redis.NewCachedProgressStore(progressStore, guarded, cfg.Redis.ProgressTTL, log)
			snapshots = redis.NewLeaderboardCache(cache, cfg.Redis.LeaderboardTTL)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ДВИЖОК И СЕССИИ
	// ─────────────────────────────────────────────────────────────────────────
	opts := progress.Options{
		Location:           cfg.App.Location,
		SpeedsterThreshold: cfg.Progress.SpeedsterThreshold,
		MaxFinalAttempts:   cfg.Progress.MaxFinalAttempts,
		WeakTopicThreshold: cfg.Progress.WeakTopicThreshold,
		// флаг проверяется на каждом квизе, поэтому процентный rollout работает
		RecomputeFor: func(username string) bool {
			return cfg.Features.IsEnabled(config.FeatureWeakTopicRecompute, username)
		},
	}
	engine := progress.NewEngine(store.bank, clock, opts, log)

	registry := session.NewRegistry(engine, progressStore, store.notifications, session.Config{
		Retention: notification.RetentionPolicy{
			MaxEntries: cfg.Progress.NotificationCap,
			MaxAge:     cfg.Progress.NotificationMaxAge,
		},
		SaveAttempts: cfg.Progress.SaveAttempts,
		SaveBackoff:  cfg.Progress.SaveBackoff,
	}, log)

	var leaderboard *query.GetLeaderboardHandler
	if cfg.Features.Enabled(config.FeatureLeaderboard) {
		leaderboard = query.NewGetLeaderboardHandler(progressStore, registry, clock)
		if snapshots != nil {
			leaderboard.WithCache(snapshots)
		}
	}
	today := func() string { return timeutil.ISODate(clock.Now(), cfg.App.Location) }

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := apihttp.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins

	server := apihttp.NewServer(httpCfg, apihttp.Dependencies{
		Registry:      registry,
		Bank:          store.bank,
		Notifications: store.notifications,
		Leaderboard:   leaderboard,
		Summary:       query.NewGetSummaryHandler(progressStore, registry, today),
		Quiz:          query.NewGetQuizHandler(progressStore, registry, store.bank),
		Export:        query.NewGetExportHandler(progressStore, registry),
		Health:        health,
		Clock:         clock,
		Logger:        log,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ПЛАНИРОВЩИК
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:       log,
		Clock:        clock,
		TickInterval: cfg.Scheduler.TickInterval,
		JobTimeout:   cfg.Scheduler.JobTimeout,
	})
	if err := registerJobs(sched, cfg, clock, registry, leaderboard, snapshots, log); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Scheduler.Enabled {
		if err := sched.Start(gctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	g.Go(server.Start)

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		var errs []error
		if sched.IsRunning() {
			errs = append(errs, sched.Stop())
		}
		errs = append(errs, server.Shutdown(shutdownCtx))
		if err := registry.CloseAll(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("LearnSphere stopped")
	return nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.URL = c.URL
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	rc.PoolSize = c.PoolSize
	rc.MinIdleConns = c.MinIdleConns
	rc.DialTimeout = c.DialTimeout
	rc.ReadTimeout = c.ReadTimeout
	rc.WriteTimeout = c.WriteTimeout
	rc.ProgressTTL = c.ProgressTTL
	return rc
}

// registerJobs регистрирует периодические задачи согласно флагам.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	clock timeutil.Clock,
	registry *session.Registry,
	leaderboard *query.GetLeaderboardHandler,
	snapshots *redis.LeaderboardCache,
	log *logger.Logger,
) error {
	if cfg.Features.Enabled(config.FeatureReminders) {
		ticker := session.NewReminderTicker(registry, log)
		if err := sched.Register(jobs.NewReminderTickJob(ticker, log), scheduler.Every(cfg.Scheduler.ReminderInterval)); err != nil {
			return err
		}
	}

	if err := sched.Register(jobs.NewFlushPendingJob(registry, log), scheduler.Every(cfg.Scheduler.FlushInterval)); err != nil {
		return err
	}

	retention := jobs.NewNotificationRetentionJob(registry, clock, log)
	if err := sched.Register(retention, scheduler.Every(cfg.Scheduler.RetentionInterval)); err != nil {
		return err
	}

	if leaderboard != nil && snapshots != nil {
		warm := func(ctx context.Context) error {
			_, err := leaderboard.Handle(ctx, query.GetLeaderboardQuery{})
			return err
		}
		refresh := jobs.NewRefreshLeaderboardJob(snapshots, warm, log)
		if err := sched.Register(refresh, scheduler.Every(cfg.Scheduler.LeaderboardInterval)); err != nil {
			return err
		}
	}
	return nil
}
