package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/deps"
	"github.com/RabowNicholas/swna-automation/internal/preflight"
	"github.com/RabowNicholas/swna-automation/internal/registry"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var skipRegistry bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check folders, registry access and extraction binaries",
		// Must not create the directories it checks.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			var reg registry.Client
			if !skipRegistry && cfg.ValidateForCommit() == nil {
				client, err := newRegistryClient(cfg)
				if err != nil {
					return err
				}
				reg = client
			}
			results := preflight.RunAll(cmd.Context(), cfg, reg)
			for _, s := range deps.CheckBinaries(deps.ExtractionRequirements(cfg.Extraction)) {
				r := preflight.Result{Name: s.Name, Passed: s.Available || s.Optional, Detail: s.Command}
				if !s.Available {
					r.Detail = s.Detail
				}
				results = append(results, r)
			}

			if jsonOutput {
				return writeJSON(cmd, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, statusLabel(r.Passed), r.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&skipRegistry, "offline", false, "Skip the registry lookup")
	return cmd
}

func statusLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "FAIL"
}
