package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zalepa/infractions/render"
)

var vizState stateFlags

var vizCmd = &cobra.Command{
	Use:   "viz [page...]",
	Short: "Print pages as terminal tables and charts",
	Long: `Print one or more dashboard pages (rq1..rq5, default all) to the terminal.

Line pages with several series print a sparkline table; a single series prints
an ASCII line chart. Other pages print a bar table.`,
	Example: `  infractions viz rq1 --set year=2023 --enabled NSW
  infractions viz rq3 --set mode=police --sort rate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadPages(cmd.Context(), args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, p := range ps {
			s, err := vizState.state(p)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := render.Terminal(out, p.Describe(s)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	vizState.register(vizCmd)
	rootCmd.AddCommand(vizCmd)
}
