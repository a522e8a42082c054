package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zalepa/infractions/dataset"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load every configured dataset and report usable and dropped rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := cfg.Data.Sources()
		out := cmd.OutOrStdout()
		ctx := cmd.Context()

		failed := 0
		for _, ok := range []bool{
			checkDataset[dataset.MonthlyFine](ctx, out, "monthly fines (Q1)", src.Monthly),
			checkDataset[dataset.MonthlyFine](ctx, out, "monthly fines by year (Q2)", src.MonthlyByYear),
			checkDataset[dataset.Efficiency](ctx, out, "efficiency index", src.Efficiency),
			checkDataset[dataset.Detection](ctx, out, "detection (Q3)", src.Detection),
			checkDataset[dataset.AgeOffence](ctx, out, "age offences (Q4)", src.AgeOffences),
			checkDataset[dataset.AgeInfraction](ctx, out, "age infractions", src.AgeInfractions),
		} {
			if !ok {
				failed++
			}
		}
		if failed > 0 {
			return eris.Errorf("%d datasets unavailable", failed)
		}
		return nil
	},
}

// checkDataset loads one dataset without fallback and prints a summary line.
// A dataset that is not configured is skipped.
func checkDataset[T dataset.Row](ctx context.Context, w io.Writer, name string, src dataset.Source) bool {
	if src == nil {
		fmt.Fprintf(w, "%-28s not configured\n", name)
		return true
	}
	res, err := dataset.Load[T](ctx, src, nil)
	if err != nil {
		fmt.Fprintf(w, "%-28s %s: %v\n", name, src, err)
		return false
	}
	fmt.Fprintf(w, "%-28s %s: %d rows, %d dropped\n", name, res.Source, len(res.Rows), res.Dropped)
	return true
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
