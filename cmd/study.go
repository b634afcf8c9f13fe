package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/KaramelBytes/mitelab-cli/internal/render"
	"github.com/KaramelBytes/mitelab-cli/internal/study"
	"github.com/KaramelBytes/mitelab-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	studyName        string
	studyDescription string
	studyAll         bool
	studyDefault     bool
	studyNoCharts    bool
)

var studyCmd = &cobra.Command{
	Use:   "study",
	Short: "Manage saved studies (a dataset plus a year and factor selection)",
}

var studyInitCmd = &cobra.Command{
	Use:   "init <study-name>",
	Short: "Initialize a new study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := validateStudyName(name); err != nil {
			return err
		}
		root, err := studiesDir()
		if err != nil {
			return err
		}
		dir := filepath.Join(root, name)
		// Refuse to overwrite an existing study.
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if study.Exists(dir) {
				return fmt.Errorf("study already exists at %s", dir)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("inspect study directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize study", dir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat study directory: %w", err)
		}
		s := study.NewStudy(name, studyDescription, dir)
		if err := s.Save(); err != nil {
			return err
		}
		render.Success(cmd.OutOrStdout(), "Study initialized: %s", dir)
		return nil
	},
}

var studyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List studies",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := studiesDir()
		if err != nil {
			return err
		}
		names, err := study.List(root)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "(no studies)")
			return nil
		}
		for _, n := range names {
			fmt.Fprintf(out, "- %s\n", n)
		}
		return nil
	},
}

var studyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a study's data, selection and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Study: %s (%s)\n", s.Name, s.ID)
		if s.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", s.Description)
		}
		if s.Data == nil {
			fmt.Fprintln(out, "Data: (none)")
		} else {
			fmt.Fprintf(out, "Data: %s (%d rows, years %s)\n", s.Data.Path, s.Data.Rows, strings.Join(s.Data.Years, ", "))
			if changed, err := s.DataChanged(); err != nil {
				render.Warn(out, "Data file unavailable: %v", err)
			} else if changed {
				render.Warn(out, "Data file changed since it was attached")
			}
		}
		sel := s.Selection()
		years := "all"
		if sel.YearsSet {
			years = listOrNone(sel.Years)
		}
		features := "default (first three candidates)"
		if sel.Features != nil {
			features = listOrNone(sel.Features)
		}
		fmt.Fprintf(out, "Years: %s\nFeatures: %s\n", years, features)
		if len(s.Runs) == 0 {
			fmt.Fprintln(out, "Runs: (none)")
			return nil
		}
		fmt.Fprintln(out, "Runs:")
		start := len(s.Runs) - 5
		if start < 0 {
			start = 0
		}
		for _, r := range s.Runs[start:] {
			line := fmt.Sprintf("- %s %s %s", r.At.Format(time.RFC3339), r.State, r.Formula)
			if r.ReportFile != "" {
				line += " -> " + r.ReportFile
			}
			fmt.Fprintln(out, strings.TrimRight(line, " "))
		}
		return nil
	},
}

var studySetDataCmd = &cobra.Command{
	Use:   "set-data <file>",
	Short: "Attach a dataset file to a study",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy()
		if err != nil {
			return err
		}
		ds, err := loadData(args[0])
		if err != nil {
			return err
		}
		hadYears := s.Selection().YearsSet
		if err := s.SetData(args[0], ds); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if hadYears && !s.Selection().YearsSet {
			render.Warn(out, "Year selection cleared: not all selected years are present in the new data")
		}
		render.Success(out, "Attached %s (%d rows) to %s", ds.Name(), ds.Len(), s.Name)
		return nil
	},
}

var studySetYearsCmd = &cobra.Command{
	Use:   "set-years [year...]",
	Short: "Choose the years a study analyses (no years = none, --all = every year)",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { studyAll = false }()
		s, err := openStudy()
		if err != nil {
			return err
		}
		if studyAll {
			s.ClearYears()
		} else if err := s.SetYears(cleanList(splitArgs(args))); err != nil {
			return err
		}
		if err := s.Save(); err != nil {
			return err
		}
		if studyAll {
			render.Success(cmd.OutOrStdout(), "%s now uses every year", s.Name)
		} else {
			render.Success(cmd.OutOrStdout(), "%s years: %s", s.Name, listOrNone(s.Selection().Years))
		}
		return nil
	},
}

var studySetFeaturesCmd = &cobra.Command{
	Use:   "set-features [factor...]",
	Short: "Choose the weather factors of a study's model (no factors = none, --default = first three)",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer func() { studyDefault = false }()
		s, err := openStudy()
		if err != nil {
			return err
		}
		if studyDefault {
			s.ClearFeatures()
		} else {
			s.SetFeatures(cleanList(splitArgs(args)))
		}
		if err := s.Save(); err != nil {
			return err
		}
		if studyDefault {
			render.Success(cmd.OutOrStdout(), "%s uses the default factors", s.Name)
		} else {
			render.Success(cmd.OutOrStdout(), "%s factors: %s", s.Name, listOrNone(s.Selection().Features))
		}
		return nil
	},
}

var studyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every analysis tab for a study and save the report in its directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStudy()
		if err != nil {
			return err
		}
		if s.Data == nil {
			return fmt.Errorf("study %s has no data file; run 'mitelab study set-data' first", s.Name)
		}
		out := cmd.OutOrStdout()
		if changed, err := s.DataChanged(); err == nil && changed {
			render.Warn(out, "Data file changed since it was attached; results reflect the current content")
		}
		ds, err := loadData(s.Data.Path)
		if err != nil {
			return err
		}
		a := pipeline.Run(ds, s.Selection(), analysis.DefaultOptions(), logger)

		stamp := time.Now().UTC().Format("20060102T150405Z")
		reportsDir := filepath.Join(s.RootDir(), "reports")
		if err := utils.EnsureDir(reportsDir); err != nil {
			return err
		}
		if !studyNoCharts && a.Err == nil {
			a.Charts = renderCharts(a, filepath.Join(reportsDir, stamp+"-charts"), reportsDir, func(err error) {
				render.Warn(out, "%v", err)
			})
		}
		reportFile := filepath.Join(reportsDir, stamp+".md")
		if err := utils.SafeWriteFile(reportFile, []byte(a.Markdown())); err != nil {
			return err
		}
		rel, _ := filepath.Rel(s.RootDir(), reportFile)
		run := s.RecordRun(a, filepath.ToSlash(rel))
		if err := s.Save(); err != nil {
			return err
		}

		switch {
		case a.Err != nil:
			render.Fail(out, "%s", pipeline.UserMessage(a.Err))
		case run.State == string(pipeline.StateFailed):
			render.Fail(out, "%s", run.Message)
		case run.State == string(pipeline.StateFitted) && len(run.Significant) > 0:
			render.Success(out, "%s", run.Message)
		default:
			render.Warn(out, "%s", run.Message)
		}
		render.Success(out, "Wrote report to %s", reportFile)
		return nil
	},
}

// studiesDir returns the configured studies root, creating it if needed.
func studiesDir() (string, error) {
	dir := "~/.mitelab/studies"
	if cfg != nil && cfg.StudiesDir != "" {
		dir = cfg.StudiesDir
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// openStudy loads the study named by --study, or the one enclosing the
// working directory when the flag is empty.
func openStudy() (*study.Study, error) {
	var dir string
	if studyName == "" {
		root, err := utils.FindStudyRoot("")
		if err != nil {
			return nil, fmt.Errorf("--study is required outside a study directory: %w", err)
		}
		dir = root
	} else {
		if err := validateStudyName(studyName); err != nil {
			return nil, err
		}
		root, err := studiesDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(root, studyName)
	}
	return study.LoadStudy(dir)
}

// validateStudyName rejects names that would resolve outside the studies root.
func validateStudyName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid study name: %q", name)
	}
	return nil
}

// splitArgs accepts both "2019 2020" and "2019,2020".
func splitArgs(args []string) []string {
	var out []string
	for _, a := range args {
		out = append(out, strings.Split(a, ",")...)
	}
	return out
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}

func init() {
	rootCmd.AddCommand(studyCmd)
	studyCmd.AddCommand(studyInitCmd, studyListCmd, studyShowCmd, studySetDataCmd, studySetYearsCmd, studySetFeaturesCmd, studyRunCmd)

	studyCmd.PersistentFlags().StringVarP(&studyName, "study", "s", "", "study name (default: the study enclosing the working directory)")
	studyInitCmd.Flags().StringVarP(&studyDescription, "desc", "d", "", "study description")
	studySetYearsCmd.Flags().BoolVar(&studyAll, "all", false, "select every year")
	studySetFeaturesCmd.Flags().BoolVar(&studyDefault, "default", false, "use the default factor policy")
	studyRunCmd.Flags().BoolVar(&studyNoCharts, "no-charts", false, "skip rendering PNG charts")
}
