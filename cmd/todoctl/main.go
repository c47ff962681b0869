// Command todoctl runs operator tasks against the todolist database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"todolist/internal/app"
	"todolist/internal/config"
	"todolist/internal/database"
	dbpostgres "todolist/internal/database/postgres"
	"todolist/internal/logging"
	"todolist/internal/repository/memory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	version    = "dev"
)

// session is what a command runs against: loaded config, a logger and the
// store named by DB_DRIVER.
type session struct {
	cfg    config.Config
	logger *zap.Logger
	db     database.DB // nil with the memory driver
	repos  app.Repositories
}

func (s *session) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = logging.Sync(s.logger)
}

// openSession is swapped out by tests.
var openSession = func(ctx context.Context) (*session, error) {
	cfg, err := config.LoadWithFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	s := &session{cfg: cfg, logger: logger}
	switch cfg.Database.Driver {
	case config.DriverMemory:
		s.repos = app.MemoryRepositories(memory.NewStore())
	default:
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := dbpostgres.Connect(cctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		s.db = db
		s.repos = app.PostgresRepositories(db)
	}
	return s, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todoctl",
		Short: "Operator commands for the todolist web app",
		Long: `todoctl runs maintenance tasks against the todolist database.

Configuration comes from the same environment variables as the server,
optionally preceded by a YAML file given with --config.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "optional YAML config file")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newBackfillProfilesCmd())
	root.AddCommand(newGrantStaffCmd())
	return root
}
