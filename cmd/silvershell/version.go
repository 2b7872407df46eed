package main

import (
	"fmt"

	"github.com/aretw0/silvershell"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of silvershell",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "silvershell version %s\n", silvershell.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
