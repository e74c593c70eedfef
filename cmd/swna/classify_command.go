package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/classifier"
	"github.com/RabowNicholas/swna-automation/internal/extractor"
	"github.com/RabowNicholas/swna-automation/internal/resolver"
	"github.com/RabowNicholas/swna-automation/internal/services"
)

type classifyPreview struct {
	File       string             `json:"file"`
	Status     string             `json:"status"`
	TypeID     string             `json:"type_id,omitempty"`
	Label      string             `json:"label,omitempty"`
	Confidence float64            `json:"confidence"`
	Candidates []classifier.Match `json:"candidates,omitempty"`
	CaseID     string             `json:"case_id,omitempty"`
	ClientName string             `json:"client_name,omitempty"`
	RecordID   string             `json:"record_id,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var resolve bool

	cmd := &cobra.Command{
		Use:   "classify FILE...",
		Short: "Preview classification and extraction without filing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			text := newTextExtractor(cfg)
			c := newClassifier(cfg)
			var res *resolver.Resolver
			if resolve {
				client, err := newRegistryClient(cfg)
				if err != nil {
					return err
				}
				res = resolver.New(client)
			}

			previews := make([]classifyPreview, 0, len(args))
			for _, path := range args {
				p := classifyPreview{File: filepath.Base(path)}
				doc, err := text.Extract(cmd.Context(), path)
				if err != nil {
					p.Status = "unreadable"
					p.Error = err.Error()
					previews = append(previews, p)
					continue
				}
				result := c.Classify(doc.Text)
				p.Status = string(result.Status)
				p.TypeID = result.TypeID
				p.Label = result.Label
				p.Confidence = result.Confidence
				p.Candidates = result.Candidates
				if result.Status == classifier.StatusClassified {
					sig, _ := c.Table().Lookup(result.TypeID)
					fields, err := extractor.Extract(doc.Text, sig)
					if err != nil {
						p.Error = err.Error()
					} else {
						p.Label = fields.Label
						p.CaseID = fields.CaseID
						p.ClientName = fields.ClientName
						if res != nil {
							rec, err := res.Resolve(cmd.Context(), fields.ClientName)
							if err != nil {
								p.Error = services.Code(err) + ": " + err.Error()
							} else {
								p.RecordID = rec.ID
							}
						}
					}
				}
				previews = append(previews, p)
			}

			if jsonOut {
				return writeJSON(cmd, previews)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(previews))
			for _, p := range previews {
				detail := p.Error
				if detail == "" && p.RecordID != "" {
					detail = "record " + p.RecordID
				}
				rows = append(rows, []string{
					p.File, p.Status, p.Label,
					strconv.FormatFloat(p.Confidence, 'f', 2, 64),
					p.CaseID, p.ClientName, detail,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"File", "Status", "Type", "Score", "Case ID", "Client", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
			))
			for _, p := range previews {
				if p.Error != "" {
					return errors.New("one or more documents would fail; see Detail")
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Also look the client up in the registry (read-only)")
	return cmd
}
