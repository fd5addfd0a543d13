// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/ksaito/crossarb/internal/config"
	"github.com/ksaito/crossarb/internal/di"
	"github.com/ksaito/crossarb/internal/logger"
	"github.com/ksaito/crossarb/internal/postgres"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	DB() *postgres.Client
	Redis() *redis.Client
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	db        *postgres.Client
	redis     *redis.Client
	container di.Container
}

// New creates a new Monolith instance.
func New(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	db, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Storage.DSN,
		Host:     cfg.Storage.Host,
		Port:     cfg.Storage.Port,
		Database: cfg.Storage.Database,
		User:     cfg.Storage.User,
		Password: cfg.Storage.Password,
		SSLMode:  cfg.Storage.SSLMode,
		MaxConns: cfg.Storage.MaxConns,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Storage.RunMigrations {
		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			db.Close()
			return nil, err
		}
	}

	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("db", db)
	if rdb != nil {
		container.Register("redis", rdb)
	}

	return &app{
		config:    cfg,
		logger:    log,
		db:        db,
		redis:     rdb,
		container: container,
	}, nil
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) DB() *postgres.Client {
	return a.db
}

// Redis returns the hot tick cache client, or nil when disabled.
func (a *app) Redis() *redis.Client {
	return a.redis
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
