package main

import (
	"errors"
	"fmt"

	"todolist/internal/domain/user"
	ucauth "todolist/internal/usecase/auth"

	"github.com/spf13/cobra"
)

func newGrantStaffCmd() *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "grant-staff <username>",
		Short: "Give a user access to the operator listing",
		Long: `Set the staff flag on a user so they can open /admin/todos/.

Examples:
  todoctl grant-staff alice
  todoctl grant-staff alice --revoke`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			svc := ucauth.NewService(s.repos.Users, nil, nil, s.cfg.Session.BcryptCost, s.logger.Named("auth"))
			u, err := svc.GrantStaff(cmd.Context(), args[0], !revoke)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					return fmt.Errorf("user %q does not exist", args[0])
				}
				return err
			}

			if u.IsStaff {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now staff\n", u.Username)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is no longer staff\n", u.Username)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the staff flag instead")
	return cmd
}
