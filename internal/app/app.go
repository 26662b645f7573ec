package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"pgdapi/internal/config"
	"pgdapi/internal/db"
	"pgdapi/internal/domain"
	"pgdapi/internal/engine"
	"pgdapi/internal/logging"
	"pgdapi/internal/metrics"
	"pgdapi/internal/migrate"
	"pgdapi/internal/repo"
)

// App is an opened, migrated database with the engine built on top of it.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Repo    repo.Repo
	Engine  engine.Engine
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// LoadConfig reads the config file at path, or pgd.yml in the workspace when
// path is empty. A missing workspace file yields the defaults.
func LoadConfig(workspace, path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.FromFile(path)
	} else {
		cfg, err = config.LoadOptional(workspace)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if workspace != "" && cfg.Database.Workspace == "." {
		cfg.Database.Workspace = workspace
	}
	return cfg, nil
}

// Open connects to the configured database and applies pending migrations.
// A nil logger is built from cfg.Log.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		l, err := logging.New(nil, cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return nil, err
		}
		logger = l
	}
	conn, err := db.Open(db.Config{
		Driver:    cfg.Database.Driver,
		DSN:       cfg.Database.DSN,
		Workspace: cfg.Database.Workspace,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	applied, err := migrate.Migrate(conn, cfg.Database.Driver)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if applied > 0 {
		logger.InfoContext(ctx, "migrations applied", "count", applied, "driver", cfg.Database.Driver)
	}

	m := metrics.New()
	r := repo.New(conn, cfg.Database.Driver)
	return &App{
		Config:  cfg,
		DB:      conn,
		Repo:    r,
		Engine:  engine.New(r, engine.WithLogger(logger), engine.WithMetrics(m)),
		Metrics: m,
		Logger:  logger,
	}, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

// EnsureSuperuser creates the administrator unless the email is taken. The
// bool reports whether a user was created.
func (a *App) EnsureSuperuser(ctx context.Context, email, password string) (domain.User, bool, error) {
	u, err := a.Engine.CreateSuperuser(ctx, email, password)
	if errors.Is(err, engine.ErrDuplicateUser) {
		existing, findErr := a.Repo.FindUserByEmail(ctx, email)
		if findErr != nil {
			return domain.User{}, false, findErr
		}
		return existing, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}
