package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/chart"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	reportSel       selFlags
	reportOutput    string
	reportChartsDir string
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Compute every analysis tab and write one Markdown report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer reportSel.reset(cmd)
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		a := pipeline.Run(ds, reportSel.selection(cmd), analysis.DefaultOptions(), logger)
		out := cmd.OutOrStdout()
		if reportChartsDir != "" && a.Err == nil {
			base := "."
			if reportOutput != "" {
				base = filepath.Dir(reportOutput)
			}
			a.Charts = renderCharts(a, reportChartsDir, base, func(err error) {
				render.Warn(out, "%v", err)
			})
		}
		md := a.Markdown()
		if reportOutput == "" {
			fmt.Fprintln(out, md)
			return nil
		}
		if err := os.WriteFile(reportOutput, []byte(md), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		render.Success(out, "Wrote report to %s", reportOutput)
		return nil
	},
}

// renderCharts writes the trend, heatmap and residual charts of a into dir.
// Paths in the returned refs are relative to base. Charts that cannot be drawn
// are reported through warn and skipped.
func renderCharts(a *pipeline.Analysis, dir, base string, warn func(error)) []pipeline.ChartRef {
	size := chartSize()
	jobs := []struct {
		title string
		file  string
		draw  func(path string) error
	}{
		{"Mite by SMW", "trend.png", func(p string) error { return chart.TrendPNG(a.Trends, p, size) }},
		{"Correlation matrix", "correlation.png", func(p string) error { return chart.HeatmapPNG(a.Corr, p, size) }},
		{"Residuals vs fitted", "residuals.png", func(p string) error { return chart.ResidualsPNG(a.Model.Fit, p, size) }},
	}
	var refs []pipeline.ChartRef
	for _, j := range jobs {
		path := filepath.Join(dir, j.file)
		if err := j.draw(path); err != nil {
			if !errors.Is(err, chart.ErrNoData) {
				warn(fmt.Errorf("%s: %w", j.title, err))
			}
			continue
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			rel = path
		}
		refs = append(refs, pipeline.ChartRef{Title: j.title, Path: filepath.ToSlash(rel)})
	}
	logger.WithField("charts", len(refs)).Debug("charts rendered")
	return refs
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportSel.bind(reportCmd, true)
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "optional path to write the report (Markdown)")
	reportCmd.Flags().StringVar(&reportChartsDir, "charts", "", "directory to render PNG charts into and embed in the report")
}
