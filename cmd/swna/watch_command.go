package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/intake"
	"github.com/RabowNicholas/swna-automation/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox and file letters as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := ctx.openRuntime(signalCtx, "watch")
			if err != nil {
				return err
			}

			totals := map[string]int{}
			err = intake.Watch(rt.session.Context(signalCtx), intake.WatchOptions{
				Dir:         rt.cfg.Paths.InboxDir,
				Debounce:    rt.cfg.WatchDebounce(),
				InitialScan: rt.cfg.Watch.InitialScan,
				Logger:      rt.logger,
			}, func(batchCtx context.Context, paths []string) {
				summary := rt.orch.Run(batchCtx, paths)
				for key, value := range summary.SessionCounts() {
					if n, ok := value.(int); ok {
						totals[key] += n
					}
				}
				printSummary(cmd.OutOrStdout(), summary)
			})

			counts := make(map[string]any, len(totals))
			for key, n := range totals {
				counts[key] = n
			}
			if closeErr := rt.close(signalCtx, counts); closeErr != nil {
				rt.logger.Warn("session close failed", logging.Error(closeErr))
			}
			if err != nil {
				return fmt.Errorf("watch inbox: %w", err)
			}
			return nil
		},
	}
}
