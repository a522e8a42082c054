package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/render"
)

var (
	chartState  stateFlags
	chartOut    string
	chartFormat string
)

var chartCmd = &cobra.Command{
	Use:   "chart <page>",
	Short: "Save a page as a PNG, SVG or PDF chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := loadPages(cmd.Context(), args)
		if err != nil {
			return err
		}
		p := ps[0]
		s, err := chartState.state(p)
		if err != nil {
			return err
		}
		bounds, err := loadBoundaries()
		if err != nil {
			return err
		}

		path := chartOut
		if path == "" {
			path = filepath.Join(".", p.ID()+"."+chartFormat)
		}
		if err := render.Save(path, p.Describe(s), bounds, cfg.Render.Size()); err != nil {
			return err
		}
		zap.L().Info("chart written", zap.String("page", p.ID()), zap.String("path", path))
		return nil
	},
}

func init() {
	chartState.register(chartCmd)
	chartCmd.Flags().StringVarP(&chartOut, "out", "o", "", "output file; the extension picks the format")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "format when --out is not given: png, svg or pdf")
	rootCmd.AddCommand(chartCmd)
}
