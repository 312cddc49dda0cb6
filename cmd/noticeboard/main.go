package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"NoticeBoard/internal/bootstrap"
	"NoticeBoard/internal/config"
	"NoticeBoard/internal/identity"
	"NoticeBoard/pkg/routes"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "noticeboard",
		Short:         "University notice and event board",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			bootstrap.LoadEnv()
		},
	}
	root.AddCommand(serveCmd(), promoteAdminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				routes.EchoModules,
				fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

// promoteAdminCmd grants the admin flag by email. It is the only way to create
// the first administrator.
func promoteAdminCmd() *cobra.Command {
	var email string
	var revoke bool

	cmd := &cobra.Command{
		Use:   "promote-admin",
		Short: "Grant or revoke the admin flag for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.ToLower(strings.TrimSpace(email))
			if email == "" {
				return errors.New("--email is required")
			}

			var users *identity.UserRepository
			app := fx.New(
				fx.NopLogger,
				fx.Provide(config.Load, config.NewLogger, config.NewMongoDBClient, identity.NewUserRepository),
				fx.Populate(&users),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := app.Start(ctx); err != nil {
				return err
			}
			defer app.Stop(context.Background())

			if err := users.SetAdminByEmail(ctx, email, !revoke); err != nil {
				if errors.Is(err, identity.ErrNotFound) {
					return fmt.Errorf("no account with email %s", email)
				}
				return fmt.Errorf("updating %s: %w", email, err)
			}
			if revoke {
				fmt.Printf("%s is no longer an admin\n", email)
			} else {
				fmt.Printf("%s is now an admin\n", email)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "remove the admin flag instead")
	return cmd
}
