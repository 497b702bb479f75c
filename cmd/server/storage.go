package main

import (
	"context"
	"fmt"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/config"
	"github.com/roshankumarc210506-arch/learnsphere/internal/application/session"
	"github.com/roshankumarc210506-arch/learnsphere/internal/domain/quiz"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/memory"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/postgres"
	"github.com/roshankumarc210506-arch/learnsphere/internal/infrastructure/persistence/sqlite"
	"github.com/roshankumarc210506-arch/learnsphere/internal/interface/http/handlers"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/logger"
	"github.com/roshankumarc210506-arch/learnsphere/pkg/retry"
)

// storage - выбранное хранилище прогресса, уведомлений и банк вопросов.
type storage struct {
	progress      session.ProgressStore
	notifications session.NotificationStore
	bank          quiz.Bank
	close         func()
}

// openStorage подключает драйвер из конфигурации и регистрирует health check.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger, health *handlers.HealthChecker) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log, health)

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, log)
		if err != nil {
			return nil, err
		}
		health.AddCheck("sqlite", db.PingContext)
		return &storage{
			progress:      sqlite.NewProgressRepository(db.DB),
			notifications: sqlite.NewNotificationRepository(db.DB),
			bank:          quiz.SeedBank(),
			close:         func() { _ = db.Close() },
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory storage, progress is lost on restart")
		return &storage{
			progress:      memory.NewProgressStore(),
			notifications: memory.NewNotificationStore(),
			bank:          quiz.SeedBank(),
			close:         func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger, health *handlers.HealthChecker) (*storage, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.Host = cfg.Database.Host
	pgCfg.Port = cfg.Database.Port
	pgCfg.Database = cfg.Database.Name
	pgCfg.User = cfg.Database.User
	pgCfg.Password = cfg.Database.Password
	pgCfg.SSLMode = cfg.Database.SSLMode
	pgCfg.MaxConns = int32(cfg.Database.MaxConns)
	pgCfg.MinConns = int32(cfg.Database.MinConns)
	pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	pgCfg.ConnectTimeout = cfg.Database.ConnectTimeout

	log.Info("connecting to database...")
	var conn *postgres.Connection
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		conn, err = postgres.NewConnection(ctx, pgCfg)
		return err
	},
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithRetryIf(postgres.IsConnectionError),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not reachable, retrying",
				logger.Attempt(attempt), logger.Duration("delay", delay), logger.Err(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := postgres.NewMigrator(conn)
	applied, err := migrator.Migrate(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	status, err := migrator.Status(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	log.Info("database schema is up to date",
		logger.Int("applied", applied), logger.Int("version", postgres.SchemaVersion(status)))

	banks := postgres.NewBankRepository(conn)
	if cfg.Features.Enabled(config.FeatureSeedBank) {
		seeded, err := banks.SeedBank(ctx, quiz.SeedBank())
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to seed question bank: %w", err)
		}
		if seeded {
			log.Info("question bank seeded")
		}
	}

	var bank quiz.Bank
	loaded, err := banks.LoadBank(ctx)
	switch {
	case err != nil:
		conn.Close()
		return nil, fmt.Errorf("failed to load question bank: %w", err)
	case len(loaded.Topics()) == 0:
		log.Warn("question bank table is empty, using the built-in bank")
		bank = quiz.SeedBank()
	default:
		bank = loaded
	}

	health.AddCheck("postgres", handlers.PingCheck(conn))
	return &storage{
		progress:      postgres.NewProgressRepository(conn, log),
		notifications: postgres.NewNotificationRepository(conn),
		bank:          bank,
		close:         conn.Close,
	}, nil
}
