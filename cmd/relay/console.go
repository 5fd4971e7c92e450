package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console [flags] -- argv...",
	Short: "Dispatch a command with confirmation answered over HTTP",
	Long: `Like 'run', but the confirmation prompt is published on an embedded HTTP
server instead of the local terminal. A remote operator fetches the pending
prompt from /confirmations/pending and posts the verdict back. The server
also exposes Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		opts := cli.ConsoleOptions{
			Run:  runOptionsFromFlags(cmd, args),
			Addr: addr,
		}
		return cli.ExecuteConsole(opts)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	addRunFlags(consoleCmd)
	consoleCmd.Flags().String("addr", ":8080", "Address for the operator console")
}
