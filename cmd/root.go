package cmd

import (
	"fmt"
	"os"

	"mpdfm/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mpdfm",
	Short: "mpdfm bridges an MPD daemon to websocket and HTTP clients.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
