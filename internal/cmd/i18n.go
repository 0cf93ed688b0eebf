package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hkd-kulturverein/website/portal/i18n"
)

func newI18nCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "i18n",
		Short: "Inspect the translation dictionaries",
	}
	cmd.AddCommand(newI18nMissingCommand())
	return cmd
}

func newI18nMissingCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "missing",
		Short: "List keys defined in one language but not another",
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle := i18n.NewBundle(i18n.DefaultRegistry(), zap.NewNop())
			if err := bundle.Load(cmd.Context()); err != nil {
				return err
			}
			return renderMissingKeys(cmd, bundle, strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when any key is missing")
	return cmd
}

func renderMissingKeys(cmd *cobra.Command, bundle *i18n.Bundle, strict bool) error {
	w := cmd.OutOrStdout()
	missing := bundle.MissingKeys()

	total := 0
	for _, keys := range missing {
		total += len(keys)
	}
	if total == 0 {
		_, _ = fmt.Fprintln(w, "All dictionaries define the same keys.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Language", "Missing key"})
	for _, lang := range bundle.Registry().Languages() {
		for _, key := range missing[lang] {
			t.AppendRow(table.Row{string(lang), key})
		}
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d missing", total)})
	t.Render()

	if strict {
		return fmt.Errorf("%d translation keys missing", total)
	}
	return nil
}
