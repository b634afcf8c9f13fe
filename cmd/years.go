package cmd

import (
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/spf13/cobra"
)

var yearsCmd = &cobra.Command{
	Use:   "years <file>",
	Short: "List the years present in a dataset with their row counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		counts := ds.YearCounts()
		if len(counts) == 0 {
			render.Warn(out, "%s has no rows", ds.Name())
			return nil
		}
		render.YearsTable(out, counts)
		render.Success(out, "%d years, %d rows", len(counts), ds.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(yearsCmd)
}
