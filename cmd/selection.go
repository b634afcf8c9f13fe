package cmd

import (
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

// selFlags holds the --years/--features flags of one command.
type selFlags struct {
	years    []string
	features []string
}

func (s *selFlags) bind(c *cobra.Command, withFeatures bool) {
	c.Flags().StringSliceVar(&s.years, "years", nil, "comma-separated years to include (default all; --years= selects none)")
	if withFeatures {
		c.Flags().StringSliceVar(&s.features, "features", nil, "comma-separated weather factors for the model (default first three; --features= selects none)")
	}
}

// selection builds the pipeline selection from the flags that were set.
func (s *selFlags) selection(c *cobra.Command) pipeline.Selection {
	var sel pipeline.Selection
	if c.Flags().Changed("years") {
		sel = sel.WithYears(cleanList(s.years)...)
	}
	if f := c.Flags().Lookup("features"); f != nil && f.Changed {
		sel = sel.WithFeatures(cleanList(s.features)...)
	}
	return sel
}

// reset clears the values and Changed state so a command can run twice in one process.
func (s *selFlags) reset(c *cobra.Command) {
	s.years, s.features = nil, nil
	for _, name := range []string{"years", "features"} {
		if f := c.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

func cleanList(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x = strings.TrimSpace(x); x != "" {
			out = append(out, x)
		}
	}
	return out
}
