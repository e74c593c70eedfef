package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/classifier"
)

func newSignaturesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "signatures",
		Short:       "List the letter types swna recognizes",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sigs := classifier.DefaultTable().Signatures()
			rows := make([][]string, 0, len(sigs))
			for i, sig := range sigs {
				label := sig.Label
				if sig.LabelTemplate != "" {
					label = sig.LabelTemplate
				}
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					sig.TypeID,
					label,
					strconv.Itoa(len(sig.Anchors)),
					strings.Join(sig.RequiredFields(), ", "),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Type", "Label", "Anchors", "Required"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}
