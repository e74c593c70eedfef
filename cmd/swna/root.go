package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "swna",
		Short:         "File scanned DOL letters into client folders and the client registry",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newProcessCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newClassifyCommand(ctx))
	rootCmd.AddCommand(newSignaturesCommand())
	rootCmd.AddCommand(newLedgerCommand(ctx))
	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
