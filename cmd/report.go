package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zalepa/infractions/render"
	"github.com/zalepa/infractions/series"
)

var (
	reportState stateFlags
	reportOut   string
)

var reportCmd = &cobra.Command{
	Use:   "report [page...]",
	Short: "Write a multi-page PDF report",
	Long: `Write a PDF with a summary page followed by one page per dashboard page
(default all). The file is read back to check its page count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadPages(cmd.Context(), args)
		if err != nil {
			return err
		}
		bounds, err := loadBoundaries()
		if err != nil {
			return err
		}

		ds := make([]series.Description, 0, len(ps))
		for _, p := range ps {
			s, err := reportState.state(p)
			if err != nil {
				return err
			}
			ds = append(ds, p.Describe(s))
		}
		return render.WriteReport(reportOut, ds, bounds)
	},
}

func init() {
	reportState.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "infractions-report.pdf", "output PDF path")
	rootCmd.AddCommand(reportCmd)
}
