package main

import (
	"github.com/aretw0/silvershell"
	"github.com/aretw0/silvershell/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interactive shell",
	Long: `Starts the interactive loop. Lines starting with ! run as shell commands,
anything else is sent to the assistant. Type exit or quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		sessionID, _ := cmd.Flags().GetString("session")
		noColor, _ := cmd.Flags().GetBool("no-color")

		return cli.RunSession(cli.RunOptions{
			ConfigPath:  configPath,
			Debug:       debug,
			MetricsAddr: metricsAddr,
			SessionID:   sessionID,
			NoColor:     noColor,
			Version:     silvershell.Version,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("metrics-addr", "", "Serve metrics and the HTTP API on this address (e.g. :9090)")
	runCmd.Flags().StringP("session", "s", "", "Session ID for the journal (default: random)")
	runCmd.Flags().Bool("no-color", false, "Disable colours and markdown rendering")

	// Plain `silvershell` starts the shell.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
	rootCmd.RunE = runCmd.RunE
}
