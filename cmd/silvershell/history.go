package main

import (
	"github.com/aretw0/silvershell/internal/cli"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show recorded sessions",
	Long:  `Lists the sessions in the configured journal, or prints the entries of one session.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		asJSON, _ := cmd.Flags().GetBool("json")

		opts := cli.HistoryOptions{ConfigPath: configPath, JSON: asJSON}
		if len(args) > 0 {
			opts.SessionID = args[0]
		}
		return cli.RunHistory(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Bool("json", false, "Print entries as JSON")
}
