package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run SCRIPT...",
		Short: "Run Lua settings scripts",
		Long: `Run each script in order with a fresh Lua state. Buffered files are
shared between the scripts and flushed once all of them have finished.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := opts.newApp(cmd, watch)
			if err != nil {
				return err
			}

			runErr := application.RunScripts(ctx, args)
			// Flush even when interrupted.
			shutdownErr := application.Shutdown(context.WithoutCancel(ctx))
			return errors.Join(runErr, shutdownErr)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload cached files changed by other programs")
	return cmd
}
