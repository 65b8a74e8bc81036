package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/devhelper/internal/auth"
	"github.com/sakif/devhelper/internal/config"
	"github.com/sakif/devhelper/internal/service"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a local user (username/password)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())

			ctx := cmd.Context()
			db, err := openStore(ctx, cfg.DBPath, true)
			if err != nil {
				return err
			}
			defer db.Close()

			// Same rules as the registration form.
			users := service.NewAuthService(db, auth.NewPasswordService(), logger)
			user, err := users.Register(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
