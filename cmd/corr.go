package cmd

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/chart"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	corrSel     selFlags
	corrHeatmap string
)

var corrCmd = &cobra.Command{
	Use:   "corr <file>",
	Short: "Print the correlation matrix of the numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer corrSel.reset(cmd)
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		view, err := pipeline.FilterStage(ds, corrSel.selection(cmd))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		cols := view.NumericColumns()
		if view.Len() < 2 || len(cols) < 2 {
			render.Warn(out, "Not enough numeric data to compute correlations (%d rows)", view.Len())
			return nil
		}
		m := analysis.Correlations(view, cols)
		render.CorrelationTable(out, m)

		if with := m.With(dataset.ColMite); len(with) > 0 {
			render.Heading(out, "Correlation with Mite")
			for _, p := range with {
				if math.IsNaN(p.R) {
					fmt.Fprintf(out, "  %s: nan\n", p.B)
					continue
				}
				fmt.Fprintf(out, "  %s: %+.3f\n", p.B, p.R)
			}
		}
		if corrHeatmap != "" {
			if err := chart.HeatmapPNG(m, corrHeatmap, chartSize()); err != nil {
				return err
			}
			render.Success(out, "Wrote heatmap to %s", corrHeatmap)
		}
		return nil
	},
}

func chartSize() chart.Size {
	if cfg == nil {
		return chart.DefaultSize()
	}
	return chart.SizeInches(cfg.ChartWidthIn, cfg.ChartHeightIn)
}

func init() {
	rootCmd.AddCommand(corrCmd)
	corrSel.bind(corrCmd, false)
	corrCmd.Flags().StringVar(&corrHeatmap, "heatmap", "", "optional PNG path for a correlation heatmap")
}
