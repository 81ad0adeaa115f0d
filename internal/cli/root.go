// Package cli provides the command-line interface for unitgen.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute creates and runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command; cancelling ctx stops a running
// generate or watch.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the unitgen command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "unitgen",
		Short:        "Derive unit companion types for tagged unions and records",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
