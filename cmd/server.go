package cmd

import (
	"mpdfm/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the mpdfm server",
	Long:  `Start the HTTP/websocket server and connect to the MPD daemon.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
