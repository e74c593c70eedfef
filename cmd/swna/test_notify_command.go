package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Notifications disabled (notifications.ntfy_topic is empty)")
				return nil
			}
			svc := notifications.NewService(cfg)
			if err := svc.Publish(cmd.Context(), notifications.EventTestNotification, nil); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		},
	}
}
