package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external binaries used for text extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.ExtractionRequirements(cfg.Extraction))
			rows := make([][]string, 0, len(statuses))
			for _, s := range statuses {
				state := "ok"
				if !s.Available {
					state = "missing"
					if s.Optional {
						state = "missing (optional)"
					}
				}
				detail := s.Detail
				if detail == "" {
					detail = s.Command
				}
				rows = append(rows, []string{s.Name, state, s.Description, detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Binary", "Status", "Purpose", "Detail"}, rows, nil))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required binary(ies) missing", len(missing))
			}
			return nil
		},
	}
}
