package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "silvershell",
	Short: "SilverShell is an AI-assisted reconnaissance shell",
	Long: `SilverShell runs shell commands behind a safety gate, suggests follow-up
reconnaissance commands from their output and asks a language model to analyse
the results in the background.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default ./config.json)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.SilenceErrors = true
}
