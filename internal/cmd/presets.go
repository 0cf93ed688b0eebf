package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hkd-kulturverein/website/portal/middleware/ratelimiter"
)

func newPresetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "Show the built-in rate limit presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Preset", "Limit", "Window"})
			for _, name := range ratelimiter.PresetNames() {
				cfg, _ := ratelimiter.Preset(name)
				t.AppendRow(table.Row{name, cfg.Limit, cfg.Window.String()})
			}
			t.Render()
			return nil
		},
	}
}
