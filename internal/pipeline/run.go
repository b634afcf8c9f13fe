package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/sirupsen/logrus"
)

// ChartRef points at a rendered chart to embed in the Markdown report.
type ChartRef struct {
	Title string
	Path  string
}

// Analysis is every tab of the dashboard computed for one selection.
type Analysis struct {
	Dataset    *dataset.Dataset
	Selection  Selection
	Years      []string
	View       *dataset.Dataset
	Overview   *analysis.Report
	Trends     []analysis.TrendSeries
	Corr       *analysis.CorrMatrix
	Candidates []string
	Model      ModelOutcome
	Charts     []ChartRef
	// Err is set when the selection itself is invalid; no tab is computed then.
	Err error
}

// Run computes every tab for sel over ds. Tabs fail independently: a model
// error is reported in Model while the other tabs are still filled in.
func Run(ds *dataset.Dataset, sel Selection, opt analysis.Options, log logrus.FieldLogger) *Analysis {
	log = orDiscard(log)
	a := &Analysis{Dataset: ds, Selection: sel, Candidates: CandidateFeatures(ds)}

	years, err := ResolveYears(ds, sel)
	if err != nil {
		a.Err = err
		log.WithError(err).Warn("year selection rejected")
		return a
	}
	a.Years = years
	a.View = ds.FilterYears(years)
	log.WithFields(logrus.Fields{"years": len(years), "rows": a.View.Len()}).Debug("filtered view")

	a.Overview = analysis.Describe(a.View, opt)
	a.Trends = analysis.Trends(a.View)
	a.Corr = a.Overview.Corr

	features, err := FeatureStage(ds, sel)
	if err != nil {
		a.Model = failed(ModelOutcome{}, err)
	} else {
		a.Model = ModelStage(a.View, features)
	}
	fields := logrus.Fields{"state": a.Model.State, "features": len(a.Model.Features)}
	if a.Model.Err != nil {
		log.WithFields(fields).WithError(a.Model.Err).Warn("model tab failed")
	} else {
		log.WithFields(fields).Debug("model tab done")
	}
	return a
}

// Markdown renders the whole analysis as one document.
func (a *Analysis) Markdown() string {
	var b strings.Builder
	b.WriteString("# Mite Population & Weather Analysis\n\n")
	if a.Dataset != nil {
		b.WriteString(fmt.Sprintf("Data: %s (%d rows)\n", a.Dataset.Name(), a.Dataset.Len()))
	}
	if a.Err != nil {
		b.WriteString("\n> ✗ " + UserMessage(a.Err) + "\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Selected years: %s\n", listOrNone(a.Years)))
	b.WriteString(fmt.Sprintf("Rows in view: %d\n", a.View.Len()))

	b.WriteString("\n## Overview\n\n")
	b.WriteString(a.Overview.Markdown())

	b.WriteString("\n## Trends\n\n")
	if len(a.Trends) == 0 {
		b.WriteString("No observations in the current selection.\n")
	}
	for _, s := range a.Trends {
		if peak, ok := s.Peak(); ok {
			b.WriteString(fmt.Sprintf("- %s: %d weeks, peak %.4g at SMW %g\n", s.Year, len(s.Points), peak.Mite, peak.SMW))
		} else {
			b.WriteString(fmt.Sprintf("- %s: no complete observations\n", s.Year))
		}
	}

	b.WriteString("\n## Correlations\n\n")
	if a.Corr == nil {
		b.WriteString("Not enough numeric data to compute correlations.\n")
	} else {
		writeCorrTable(&b, a.Corr)
	}

	b.WriteString("\n## Statistical Model\n\n")
	b.WriteString(fmt.Sprintf("Candidate factors: %s\n", listOrNone(a.Candidates)))
	switch a.Model.State {
	case StateNeutral:
		b.WriteString("\n> " + a.Model.Message + "\n")
	case StateFailed:
		b.WriteString("\n> ✗ " + a.Model.Message + "\n")
	case StateFitted:
		b.WriteString(fmt.Sprintf("Formula: `%s`\n\n", a.Model.Formula.String()))
		b.WriteString("```\n" + a.Model.Fit.Summary() + "```\n\n")
		if len(a.Model.Significant) == 0 {
			b.WriteString("> " + a.Model.Message + "\n")
		} else {
			b.WriteString("> ✓ " + a.Model.Message + "\n")
		}
	}

	if len(a.Charts) > 0 {
		b.WriteString("\n## Charts\n\n")
		for _, c := range a.Charts {
			b.WriteString(fmt.Sprintf("![%s](%s)\n", c.Title, c.Path))
		}
	}
	return b.String()
}

func writeCorrTable(b *strings.Builder, m *analysis.CorrMatrix) {
	b.WriteString("| |")
	for _, c := range m.Columns {
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n|---|")
	for range m.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, c := range m.Columns {
		b.WriteString("| " + c + " |")
		for j := range m.Columns {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				b.WriteString(" nan |")
				continue
			}
			b.WriteString(fmt.Sprintf(" %.2f |", r))
		}
		b.WriteString("\n")
	}
}

func listOrNone(xs []string) string {
	if len(xs) == 0 {
		return "(none)"
	}
	return strings.Join(xs, ", ")
}
