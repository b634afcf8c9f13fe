package cmd

import (
	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/chart"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	trendSel selFlags
	trendOut string
)

var trendCmd = &cobra.Command{
	Use:   "trend <file>",
	Short: "Show Mite by SMW for each selected year",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer trendSel.reset(cmd)
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		view, err := pipeline.FilterStage(ds, trendSel.selection(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		series := analysis.Trends(view)
		if len(series) == 0 {
			render.Warn(out, "No observations in the current selection")
			return nil
		}
		render.TrendTable(out, series)
		if trendOut != "" {
			if err := chart.TrendPNG(series, trendOut, chartSize()); err != nil {
				return err
			}
			render.Success(out, "Wrote trend chart to %s", trendOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendSel.bind(trendCmd, false)
	trendCmd.Flags().StringVarP(&trendOut, "out", "o", "", "optional PNG path for the line chart")
}
