package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RabowNicholas/swna-automation/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect recorded outcomes and the reconciliation queue",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerReconcileCommand(ctx))
	ledgerCmd.AddCommand(newLedgerResolveCommand(ctx))
	return ledgerCmd
}

func (c *commandContext) withLedger(fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var state string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent outcomes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				entries, err := store.List(cmd.Context(), ledger.ListOptions{
					State: strings.TrimSpace(state),
					Limit: limit,
				})
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, entries)
				}
				printEntries(cmd.OutOrStdout(), entries)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Only show this state (committed, ignored, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print rows as JSON")
	return cmd
}

func newLedgerReconcileCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "List outcomes flagged for manual reconciliation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				entries, err := store.PendingReconciliation(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Nothing awaiting reconciliation")
					return nil
				}
				printEntries(out, entries)
				fmt.Fprintln(out, "Fix each item by hand, then run `swna ledger resolve ID --note ...`")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print rows as JSON")
	return cmd
}

func newLedgerResolveCommand(ctx *commandContext) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "resolve ID",
		Short: "Clear a reconciliation flag after fixing it by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid ledger id %q", args[0])
			}
			if strings.TrimSpace(note) == "" {
				return errors.New("--note is required")
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				if err := store.Resolve(cmd.Context(), id, note); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ledger entry %d resolved\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "What was done to reconcile the entry")
	return cmd
}

func printEntries(w io.Writer, entries []*ledger.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		detail := e.Reason
		if e.State == "committed" {
			detail = e.Destination
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.SourcePath,
			e.State,
			e.Label,
			e.ClientName,
			yesNo(e.NeedsReconciliation),
			detail,
		})
	}
	fmt.Fprintln(w, renderTable(w,
		[]string{"ID", "When", "Source", "State", "Type", "Client", "Review", "Detail"},
		rows,
		[]columnAlignment{alignRight},
	))
}
