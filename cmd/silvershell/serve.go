package main

import (
	"github.com/aretw0/silvershell"
	"github.com/aretw0/silvershell/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Serves the safety gate, reconnaissance rules, metrics and session journal as a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		debug, _ := cmd.Flags().GetBool("debug")
		addr, _ := cmd.Flags().GetString("addr")

		return cli.RunServe(cli.ServeOptions{
			ConfigPath: configPath,
			Debug:      debug,
			Addr:       addr,
			Version:    silvershell.Version,
		}, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
