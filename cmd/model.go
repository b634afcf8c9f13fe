package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/chart"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var (
	modelSel       selFlags
	modelResiduals string
	modelSummary   bool
)

var modelCmd = &cobra.Command{
	Use:   "model <file>",
	Short: "Fit an OLS model of Mite on the selected weather factors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer modelSel.reset(cmd)
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		sel := modelSel.selection(cmd)
		view, err := pipeline.FilterStage(ds, sel)
		if err != nil {
			return err
		}
		features, err := pipeline.FeatureStage(ds, sel)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Candidate factors: %s\n", strings.Join(pipeline.CandidateFeatures(ds), ", "))

		res := pipeline.ModelStage(view, features)
		switch res.State {
		case pipeline.StateNeutral:
			render.Warn(out, "%s", res.Message)
			return nil
		case pipeline.StateFailed:
			return res.Err
		}
		fmt.Fprintf(out, "Formula: %s\n", res.Formula.String())
		if modelSummary {
			fmt.Fprintln(out, res.Fit.Summary())
		} else {
			render.CoefficientTable(out, res.Fit)
			fmt.Fprintf(out, "R-squared: %.3f  Adj. R-squared: %.3f  N: %d\n", res.Fit.RSquared, res.Fit.AdjRSquared, res.Fit.NObs)
		}
		if len(res.Significant) == 0 {
			render.Warn(out, "%s", res.Message)
		} else {
			render.Success(out, "%s", res.Message)
		}
		if modelResiduals != "" {
			if err := chart.ResidualsPNG(res.Fit, modelResiduals, chartSize()); err != nil {
				return err
			}
			render.Success(out, "Wrote residual plot to %s", modelResiduals)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelSel.bind(modelCmd, true)
	modelCmd.Flags().BoolVar(&modelSummary, "summary", false, "print the full regression summary instead of the coefficient table")
	modelCmd.Flags().StringVar(&modelResiduals, "residuals", "", "optional PNG path for a residuals-vs-fitted plot")
}
