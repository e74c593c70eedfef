package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/intake"
	"github.com/RabowNicholas/swna-automation/internal/logging"
	"github.com/RabowNicholas/swna-automation/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "process [file...]",
		Short: "File every letter in the inbox (or the given files) once",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			rt, err := ctx.openRuntime(signalCtx, "process")
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths, err = intake.Scan(rt.cfg.Paths.InboxDir)
				if err != nil {
					_ = rt.close(signalCtx, nil)
					return err
				}
			}

			summary := rt.orch.Run(rt.session.Context(signalCtx), paths)
			if err := rt.close(signalCtx, summary.SessionCounts()); err != nil {
				rt.logger.Warn("session close failed", logging.Error(err))
			}

			if jsonOut {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
			} else {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if summary.Inconsistent > 0 {
				return fmt.Errorf("%d document(s) left inconsistent; see `swna ledger reconcile`", summary.Inconsistent)
			}
			if signalCtx.Err() != nil {
				return context.Canceled
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s pipeline.Summary) {
	if len(s.Outcomes) > 0 {
		rows := make([][]string, 0, len(s.Outcomes))
		for _, out := range s.Outcomes {
			rows = append(rows, outcomeRow(out))
		}
		fmt.Fprintln(w, renderTable(w,
			[]string{"File", "Outcome", "Type", "Client", "Detail"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
	}
	fmt.Fprintf(w, "Filed %d, ignored %d, failed %d", s.Committed, s.Ignored, s.Failed)
	if s.Inconsistent > 0 {
		fmt.Fprintf(w, " (%d inconsistent)", s.Inconsistent)
	}
	if s.Unprocessed > 0 {
		fmt.Fprintf(w, ", %d not started", s.Unprocessed)
	}
	fmt.Fprintf(w, " in %s\n", s.Duration.Round(time.Millisecond))
}

func outcomeRow(out pipeline.Outcome) []string {
	detail := out.Reason
	switch {
	case out.Kind == pipeline.KindSuccess:
		detail = filepath.Base(out.Destination)
	case out.Kind == pipeline.KindIgnored:
		detail = out.Reason + " (" + strconv.FormatFloat(out.Confidence, 'f', 2, 64) + ")"
	case out.Inconsistent:
		detail = "INCONSISTENT: " + out.Reason
	case out.Stage != "":
		detail = out.Stage + ": " + out.Reason
	}
	return []string{out.Document.Name, string(out.Kind), out.Label, out.ClientName, detail}
}
