package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/relay/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [flags] -- argv...",
	Short: "Dispatch a single command and print its transcript",
	Long: `Runs one command over the chosen transport. The argv after '--' is executed
verbatim, never through a shell. With --file, the command is read from a YAML
file instead and the argv is ignored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptionsFromFlags(cmd, args)
		return cli.Execute(opts)
	},
}

func runOptionsFromFlags(cmd *cobra.Command, args []string) cli.RunOptions {
	file, _ := cmd.Flags().GetString("file")
	transport, _ := cmd.Flags().GetString("transport")
	mode, _ := cmd.Flags().GetString("mode")
	timeout, _ := cmd.Flags().GetString("timeout")
	reference, _ := cmd.Flags().GetString("reference")
	params, _ := cmd.Flags().GetString("params")
	confirm, _ := cmd.Flags().GetBool("confirm")
	jsonMode, _ := cmd.Flags().GetBool("json")
	debug, _ := cmd.Flags().GetBool("debug")
	quiet, _ := cmd.Flags().GetBool("quiet")

	return cli.RunOptions{
		File:      file,
		Argv:      args,
		Transport: transport,
		Mode:      mode,
		Timeout:   timeout,
		Reference: reference,
		Params:    params,
		Confirm:   confirm,
		JSON:      jsonMode,
		Debug:     debug,
		Quiet:     quiet,
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "YAML command file (overrides argv and flags)")
	cmd.Flags().StringP("transport", "t", "process", "Transport to use: process, session, serial")
	cmd.Flags().StringP("mode", "m", "", "Dispatch mode: plain, at, confirm")
	cmd.Flags().String("timeout", "", "Deadline as a duration, e.g. 2s (default 1s for process)")
	cmd.Flags().String("reference", "", "Path to reference material shown with the confirmation prompt")
	cmd.Flags().String("params", "", "Transport parameters as a JSON object")
	cmd.Flags().Bool("confirm", false, "Require an operator verdict before reporting the result")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}
