package main

import (
	"fmt"

	useruc "todolist/internal/usecase/user"

	"github.com/spf13/cobra"
)

func newBackfillProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-profiles",
		Short: "Create a profile for every user that lacks one",
		Long: `Create an empty profile for each user without one.

Safe to run repeatedly: users that already have a profile are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			svc := useruc.NewService(s.repos.Users, s.repos.Profiles, s.logger.Named("backfill"))
			res, err := svc.BackfillProfiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("backfill profiles: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Successfully created user profiles (%d created, %d users scanned)\n", res.Created, res.Scanned)
			return nil
		},
	}
}
