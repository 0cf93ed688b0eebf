// Package cmd implements the hkdweb command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configDir string
}

// NewRootCommand builds the command tree. A fresh tree per call keeps flag
// state out of package globals.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "hkdweb",
		Short:         "Backend for the association's bilingual website",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "Directory containing the optional .env file")

	root.AddCommand(
		newServeCommand(opts),
		newI18nCommand(),
		newPresetsCommand(),
	)
	return root
}

// Execute runs the CLI. It is called by main.main().
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
