package main

import (
	"fmt"

	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/store/postgres"
	"github.com/opentrusty/taskboard/pkg/rbac"
	"github.com/spf13/cobra"
)

func newSetRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change a user's role",
		Long: `Change a user's role. Roles: Admin, Manager, TeamLead, Developer, Viewer.
Role names ignore case, spaces, dashes and underscores.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := rbac.ParseRole(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := identity.NewService(postgres.NewUserRepository(db), nil, nil,
				a.cfg.Security.LockoutMaxAttempts, a.cfg.Security.LockoutDuration)
			if err != nil {
				return err
			}

			user, err := svc.GetByEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to find %s: %w", args[0], err)
			}
			if _, err := svc.SetRole(ctx, user.ID, role); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, role)
			return nil
		},
	}
}
