package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/audit"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Read session audit logs",
	}
	auditCmd.AddCommand(newAuditShowCommand(ctx))
	return auditCmd
}

func newAuditShowCommand(ctx *commandContext) *cobra.Command {
	var file string
	var filter audit.Filter
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show events from the latest (or a given) audit file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				files, err := audit.Files(cfg.AuditDir())
				if err != nil {
					return err
				}
				if len(files) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audit files yet")
					return nil
				}
				path = files[0]
			}
			events, err := audit.ReadLast(path, limit, filter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, events)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(events))
			for _, e := range events {
				rows = append(rows, []string{
					e.Timestamp.Local().Format("15:04:05"),
					e.DocumentID,
					e.Action,
					e.Level,
					e.Outcome,
					e.Reason,
					strconv.FormatInt(e.DurationMS, 10),
				})
			}
			fmt.Fprintln(out, path)
			fmt.Fprintln(out, renderTable(out,
				[]string{"Time", "Document", "Action", "Level", "Outcome", "Reason", "ms"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Audit file to read (default: newest)")
	cmd.Flags().StringVar(&filter.DocumentID, "document", "", "Only events for this document id")
	cmd.Flags().StringVar(&filter.Action, "action", "", "Only events with this action type")
	cmd.Flags().StringVar(&filter.Level, "level", "", "Only events at this level")
	cmd.Flags().StringVar(&filter.Client, "client", "", "Only documents filed for a matching client name")
	cmd.Flags().StringVar(&filter.CaseID, "case-id", "", "Only documents carrying this case id")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Maximum events to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print events as JSON")
	return cmd
}
