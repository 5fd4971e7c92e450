package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
)

// Exit codes: 1 for general failures, 2 when the transport could not be
// opened at all. A command that ran and printed something unexpected still
// exits 0; the transcript is the caller's problem.
const exitOpenFailure = 2

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay dispatches commands over process, SSH and serial transports",
	Long: `Relay sends a single command over a chosen transport, captures the output
until the line goes quiet or the deadline fires, and prints the decoded
transcript. Dangerous commands can be gated behind an operator confirmation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var open *cli.OpenFailure
		if errors.As(err, &open) {
			os.Exit(exitOpenFailure)
		}
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress system messages, print transcript only")
}
