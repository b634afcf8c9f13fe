package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	descSel        selFlags
	descOutputPath string
	descSampleRows int
	descNoGroups   bool
	descOutliers   bool
	descOutlierThr float64
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarise the selected years of a dataset as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer descSel.reset(cmd)
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		view, err := pipeline.FilterStage(ds, descSel.selection(cmd))
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if descSampleRows > 0 {
			opt.SampleRows = descSampleRows
		}
		opt.GroupByYear = !descNoGroups
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		md := analysis.Describe(view, opt).Markdown()

		if descOutputPath != "" {
			if err := os.WriteFile(descOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			render.Success(cmd.OutOrStdout(), "Wrote summary to %s", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descSel.bind(describeCmd, false)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of sample rows to include")
	describeCmd.Flags().BoolVar(&descNoGroups, "no-groups", false, "skip the per-year summary")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
