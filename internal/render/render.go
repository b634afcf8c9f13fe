// Package render prints analysis results to a terminal.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed)
	headColor = color.New(color.FgCyan, color.Bold)
)

// Success prints a ✓ status line.
func Success(w io.Writer, format string, a ...interface{}) {
	okColor.Fprintf(w, "✓ "+format+"\n", a...)
}

// Warn prints a ⚠ status line.
func Warn(w io.Writer, format string, a ...interface{}) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

// Fail prints a ✗ status line.
func Fail(w io.Writer, format string, a ...interface{}) {
	failColor.Fprintf(w, "✗ "+format+"\n", a...)
}

// Heading prints a section title.
func Heading(w io.Writer, title string) {
	headColor.Fprintf(w, "\n%s\n", title)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetHeader(header)
	return t
}

// YearsTable lists the row count per year.
func YearsTable(w io.Writer, counts []dataset.YearCount) {
	t := newTable(w, []string{"Year", "Rows"})
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, c := range counts {
		t.Append([]string{c.Year, strconv.Itoa(c.Rows)})
	}
	t.Render()
}

// CorrelationTable prints a correlation matrix with two decimals.
func CorrelationTable(w io.Writer, m *analysis.CorrMatrix) {
	t := newTable(w, append([]string{""}, m.Columns...))
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, c := range m.Columns {
		row := []string{c}
		for j := range m.Columns {
			row = append(row, num(m.Values[i][j], "%.2f"))
		}
		t.Append(row)
	}
	t.Render()
}

// CoefficientTable prints the coefficient estimates of a fit, marking
// terms below the significance level.
func CoefficientTable(w io.Writer, fit *model.Fit) {
	t := newTable(w, []string{"Term", "Estimate", "Std. Err", "t", "P>|t|", "95% CI", ""})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range fit.Coefficients {
		mark := ""
		if !model.IsIntercept(c.Name) && c.P < model.SignificanceLevel {
			mark = "*"
		}
		t.Append([]string{
			c.Name,
			num(c.Estimate, "%.4f"),
			num(c.StdErr, "%.4f"),
			num(c.T, "%.3f"),
			num(c.P, "%.4f"),
			fmt.Sprintf("[%s, %s]", num(c.CILow, "%.3f"), num(c.CIHigh, "%.3f")),
			mark,
		})
	}
	t.Render()
}

// TrendTable prints one row per year with its peak week.
func TrendTable(w io.Writer, series []analysis.TrendSeries) {
	t := newTable(w, []string{"Year", "Weeks", "Peak Mite", "Peak SMW"})
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range series {
		peak, ok := s.Peak()
		if !ok {
			t.Append([]string{s.Year, "0", "-", "-"})
			continue
		}
		t.Append([]string{s.Year, strconv.Itoa(len(s.Points)), num(peak.Mite, "%.4g"), num(peak.SMW, "%g")})
	}
	t.Render()
}

func num(v float64, format string) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf(format, v)
}
