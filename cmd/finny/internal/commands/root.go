// Package commands implements the finny command line.
package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/finny/internal/app"
	"github.com/MrJamesThe3rd/finny/internal/config"
	"github.com/MrJamesThe3rd/finny/internal/logging"
)

// env is the state shared by the subcommands of one invocation. The app is
// opened on first use so commands that need no store never connect.
type env struct {
	cfg  *config.Config
	open func(ctx context.Context, cfg *config.Config) (*app.App, error)
	app  *app.App
}

func (e *env) App(ctx context.Context) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}

	a, err := e.open(ctx, e.cfg)
	if err != nil {
		return nil, err
	}

	e.app = a

	return a, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&env{open: app.New})
}

func newRootCommand(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finny",
		Short: "Personal finance ledger and bill tracker",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if _, err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}

			e.cfg = cfg

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.app == nil {
				return nil
			}

			return e.app.Close(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		newMigrateCommand(e),
		newBillsCommand(e),
		newImportCommand(e),
		newExportCommand(e),
	)

	return rootCmd
}
