package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"todolist/internal/config"
	"todolist/internal/database"
	"todolist/internal/database/migration"
	dbpostgres "todolist/internal/database/postgres"
	"todolist/internal/domain/todo"
	"todolist/internal/domain/user"
	"todolist/internal/infrastructure/cache"
	"todolist/internal/metrics"
	"todolist/internal/pkg/jwt"
	"todolist/internal/repository"
	"todolist/internal/repository/memory"
	ucauth "todolist/internal/usecase/auth"
	uctodo "todolist/internal/usecase/todo"
	useruc "todolist/internal/usecase/user"

	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Repositories is the persistence a Container is built on.
type Repositories struct {
	Users    user.Repository
	Profiles user.ProfileRepository
	Todos    todo.Repository
	Store    Pinger
}

type Container struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	DB    database.DB // nil with the memory driver
	Redis *cache.Redis
	Repos Repositories

	Auth  *ucauth.Service
	Todos *uctodo.Service
	Users *useruc.Service
}

// NewContainer connects to the configured store, migrates Postgres and wires
// the services.
func NewContainer(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		db    database.DB
		repos Repositories
	)
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		repos = MemoryRepositories(memory.NewStore())
	case config.DriverPostgres:
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		var err error
		db, err = dbpostgres.Connect(cctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		runner := migration.Runner{Dir: cfg.Database.MigrationsDir, Logger: logger.Named("migration")}
		if _, err := runner.Run(ctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		repos = PostgresRepositories(db)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	redis := cache.NewRedis(cfg.Redis, logger.Named("redis"))
	c := Wire(cfg, logger, repos, redis)
	c.DB = db
	c.Redis = redis
	return c, nil
}

func PostgresRepositories(db database.DB) Repositories {
	return Repositories{
		Users:    repository.NewPostgresUserRepository(db),
		Profiles: repository.NewPostgresProfileRepository(db),
		Todos:    repository.NewPostgresTodoRepository(db),
		Store:    db,
	}
}

func MemoryRepositories(store *memory.Store) Repositories {
	return Repositories{Users: store, Profiles: store, Todos: store, Store: store}
}

// Wire builds the services over repos. revocations may be nil, which turns
// logout into clearing the cookie only.
func Wire(cfg config.Config, logger *zap.Logger, repos Repositories, revocations ucauth.SessionRevocations) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens := jwt.NewHMACService(cfg.Session.Secret, cfg.App.AppName, cfg.Session.TTL)
	return &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		Repos:   repos,
		Auth:    ucauth.NewService(repos.Users, tokens, revocations, cfg.Session.BcryptCost, logger.Named("auth")),
		Todos:   uctodo.NewService(repos.Todos, logger.Named("todo")),
		Users:   useruc.NewService(repos.Users, repos.Profiles, logger.Named("user")),
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
