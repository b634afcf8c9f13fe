// Package analysis computes the descriptive views of a dataset: per-column
// statistics, per-year summaries, the correlation matrix and the trend series.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// Options controls analysis behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupByYear computes per-year summaries of numeric columns.
	GroupByYear bool
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		GroupByYear:      true,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly analysis of a dataset or filtered view.
type Report struct {
	Name     string
	Rows     int
	Years    []dataset.YearCount
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    dataset.Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min, Q1, Median, Q3, Max float64
	Mean, Std                float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics for one Year.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// Describe summarizes every column of ds. An empty view yields a report with
// zero rows and a note rather than an error.
func Describe(ds *dataset.Dataset, opt Options) *Report {
	rep := &Report{Name: ds.Name(), Rows: ds.Len(), Years: ds.YearCounts()}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	for i := 0; i < ds.Len() && i < sampleRows; i++ {
		rep.Samples = append(rep.Samples, ds.Row(i))
	}
	if ds.Len() == 0 {
		rep.Warnings = append(rep.Warnings, "no rows in the current selection")
	}

	for _, name := range ds.Columns() {
		rep.Cols = append(rep.Cols, summarizeColumn(ds, name, opt))
	}

	if opt.GroupByYear && ds.Len() > 0 {
		rep.Groups = groupByYear(ds)
	}
	if opt.Correlations {
		numeric := ds.NumericColumns()
		if len(numeric) >= 2 && ds.Len() >= 2 {
			rep.Corr = Correlations(ds, numeric)
		}
	}
	return rep
}

func summarizeColumn(ds *dataset.Dataset, name string, opt Options) ColumnSummary {
	s := ColumnSummary{Name: name, Kind: ds.Kind(name)}
	if s.Kind == dataset.KindNumeric {
		vals := present(ds.Floats(name))
		s.NonNull = len(vals)
		s.Missing = ds.Len() - len(vals)
		if len(vals) == 0 {
			return s
		}
		uniq := make(map[float64]struct{}, len(vals))
		for _, v := range vals {
			uniq[v] = struct{}{}
		}
		s.Unique = len(uniq)
		sorted := make([]float64, len(vals))
		copy(sorted, vals)
		sort.Float64s(sorted)
		s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
		s.Q1 = quantile(sorted, 0.25)
		s.Median = quantile(sorted, 0.5)
		s.Q3 = quantile(sorted, 0.75)
		if len(vals) > 1 {
			s.Mean, s.Std = stat.MeanStdDev(vals, nil)
		} else {
			s.Mean = vals[0]
		}
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			median, mad := medianMAD(vals)
			s.OutlierThreshold = thr
			if mad > 0 {
				for _, v := range vals {
					az := math.Abs(0.6745 * (v - median) / mad)
					if az > thr {
						s.OutliersCount++
					}
					if az > s.OutliersMaxAbsZ {
						s.OutliersMaxAbsZ = az
					}
				}
			}
		}
		return s
	}

	cats := map[string]int{}
	for i := 0; i < ds.Len(); i++ {
		v := ds.Value(i, name)
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		cats[v]++
	}
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	s.TopValues = tops
	s.Unique = len(cats)
	return s
}

func groupByYear(ds *dataset.Dataset) []GroupResult {
	numeric := ds.NumericColumns()
	var out []GroupResult
	for _, yc := range ds.YearCounts() {
		view := ds.FilterYears([]string{yc.Year})
		gr := GroupResult{Key: fmt.Sprintf("%s=%s", dataset.ColYear, yc.Year), Size: yc.Rows, Metrics: map[string]NumSummary{}}
		for _, col := range numeric {
			if col == dataset.ColYear {
				continue
			}
			vals := present(view.Floats(col))
			if len(vals) == 0 {
				continue
			}
			ns := NumSummary{Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1), Mean: stat.Mean(vals, nil)}
			for _, v := range vals {
				ns.Min = math.Min(ns.Min, v)
				ns.Max = math.Max(ns.Max, v)
			}
			gr.Metrics[col] = ns
		}
		out = append(out, gr)
	}
	return out
}

// present drops NaN entries.
func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Markdown renders a compact report suitable for the terminal or a document.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	if len(r.Years) > 0 {
		parts := make([]string, len(r.Years))
		for i, y := range r.Years {
			parts[i] = fmt.Sprintf("%s(%d)", y.Year, y.Rows)
		}
		b.WriteString(fmt.Sprintf("Years: %s\n", strings.Join(parts, ", ")))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case dataset.KindNumeric:
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" — mean %.4g, std %.4g, min %.4g, 25%% %.4g, 50%% %.4g, 75%% %.4g, max %.4g",
					c.Mean, c.Std, c.Min, c.Q1, c.Median, c.Q3, c.Max))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case dataset.KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[PER-YEAR SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		pairs := r.Corr.TopPairs(10)
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
		if with := r.Corr.With(dataset.ColMite); len(with) > 0 {
			b.WriteString(fmt.Sprintf("\n[CORRELATION WITH %s]\n", strings.ToUpper(dataset.ColMite)))
			for _, p := range with {
				b.WriteString(fmt.Sprintf("- %s: r=%s\n", p.B, fmtR(p.R)))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func fmtR(r float64) string {
	if math.IsNaN(r) {
		return "nan"
	}
	return fmt.Sprintf("%.3f", r)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between order statistics.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
