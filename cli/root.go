// Package cli provides the command-line interface of yardsim.
package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the yardsim command and all of its sub-commands.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "yardsim",
		Short: "yardsim runs and audits a container yard scheduler.",
		Long: `yardsim stores incoming containers in a yard of stacked ` +
			`columns, sells them inside their delivery windows, and writes ` +
			`every move to an event log that can be replayed and checked.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newCheckCmd(),
		newShowCmd(),
		newEventsCmd(),
	)

	return rootCmd
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	return ExecuteArgs(os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteArgs runs the command line with the given arguments and outputs.
func ExecuteArgs(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}
