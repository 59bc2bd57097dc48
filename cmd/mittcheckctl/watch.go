package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	ctlCommand.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream change events",
	Long:  "This command can be used to follow the change events of all checks as they are detected by the agent.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		resp := newAPIClient().Watch(ctx)
		if err := resp.Print(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to print output: %w", err)
		}
		return nil
	},
}
