package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zalepa/infractions/export"
)

var (
	exportState  stateFlags
	exportDir    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [page...]",
	Short: "Export the values shown by pages as JSON, CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadPages(cmd.Context(), args)
		if err != nil {
			return err
		}
		for _, p := range ps {
			s, err := exportState.state(p)
			if err != nil {
				return err
			}
			path, err := export.Save(exportDir, exportFormat, p, s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

func init() {
	exportState.register(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", export.JSON, "json, csv or xlsx")
	rootCmd.AddCommand(exportCmd)
}
