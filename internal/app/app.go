package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/regdraft-backend/internal/data/db"
	apphttp "github.com/yungbote/regdraft-backend/internal/http"
	"github.com/yungbote/regdraft-backend/internal/observability"
	"github.com/yungbote/regdraft-backend/internal/platform/envutil"
	"github.com/yungbote/regdraft-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Clients  Clients
	Metrics  *observability.Metrics

	dbService    *db.DatabaseService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics, err := observability.NewMetrics()
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	dbService, err := db.NewDatabaseService(log, db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbService.AutoMigrateAll(); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbService.DB()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, clients, metrics)
	if err != nil {
		clients.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(theDB, log, cfg, serviceset)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       wireServer(log, cfg, handlerset, metrics),
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start runs one-off startup work before the server accepts traffic.
func (a *App) Start(ctx context.Context) error {
	if a == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Cfg.SeedOnStart {
		if _, err := a.Services.Seeder.Run(ctx); err != nil {
			return fmt.Errorf("seed on start: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

// Close stops the server, letting in-flight requests finish until ctx
// expires, then releases everything else.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Server != nil {
		errs = append(errs, a.Server.Shutdown(ctx))
	}
	a.Clients.Close()
	if a.dbService != nil {
		errs = append(errs, a.dbService.Close())
	}
	errs = append(errs, a.Metrics.Shutdown(ctx))
	if a.otelShutdown != nil {
		errs = append(errs, a.otelShutdown(ctx))
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}
