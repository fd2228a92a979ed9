package cli

import (
	"context"

	"github.com/kolah/oclist/internal/app"
	"github.com/kolah/oclist/internal/config"
	"github.com/kolah/oclist/internal/logger"
	"github.com/spf13/cobra"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oclist",
		Short:         "oclist - browse the list endpoints of an OrderCloud-style API",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,

		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	config.BindFlags(root)
	root.PersistentFlags().Bool("dump-metrics", false, "Write collected metrics to stderr before exiting")

	root.AddCommand(
		newResourcesCmd(),
		newOperationsCmd(),
		newSearchCmd(),
		newListCmd(),
		newColumnsCmd(),
		newRefreshCmd(),
	)

	return root
}

type runFunc func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error

// withApp loads the configuration, builds the application and hands it to fn.
func withApp(fn runFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		a, err := app.New(cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				a.Logger.Warn("closing store", "err", err)
			}
		}()

		ctx := logger.WithContext(cmd.Context(), a.Logger)
		runErr := fn(ctx, cmd, a, args)

		if dump, _ := cmd.Flags().GetBool("dump-metrics"); dump {
			if err := a.DumpMetrics(cmd.ErrOrStderr()); err != nil {
				a.Logger.Warn("dumping metrics", "err", err)
			}
		}

		return runErr
	}
}
