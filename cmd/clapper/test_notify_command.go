package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"clapper/internal/daemonctl"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Ask the daemon to send a test notification",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := daemonctl.NewClientFromConfig(ctx.configValue())
			resp, err := client.TestNotification(cmd.Context())
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				return fmt.Errorf("daemon is not running; start it with `clapper daemon start`")
			}
			if err != nil {
				return err
			}
			switch {
			case resp.Message != "":
				fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			case resp.Sent:
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
			}
			return nil
		},
	}
}
