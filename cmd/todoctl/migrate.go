package main

import (
	"errors"
	"fmt"
	"time"

	"todolist/internal/database/migration"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Apply every migration in MIGRATIONS_DIR that has not run yet.

Migrations are versioned files named V<n>__<name>.sql. Already applied
files are verified against their recorded checksum. With --status nothing
is applied; every file is listed with the time it ran.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if s.db == nil {
				return errors.New("migrate needs DB_DRIVER=postgres")
			}

			runner := migration.Runner{Dir: s.cfg.Database.MigrationsDir, Logger: s.logger.Named("migration")}
			if status {
				return printStatus(cmd, runner, s)
			}

			applied, err := runner.Run(cmd.Context(), s.db.SQLDB())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No migrations to apply")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s): %v\n", len(applied), applied)
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "list migrations without applying them")
	return cmd
}

func printStatus(cmd *cobra.Command, runner migration.Runner, s *session) error {
	rows, err := runner.Status(cmd.Context(), s.db.SQLDB())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, st := range rows {
		state := "pending"
		if st.Applied() {
			state = "applied " + st.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(out, "%-4d %-32s %s\n", st.Version, st.Name, state)
	}
	return nil
}
