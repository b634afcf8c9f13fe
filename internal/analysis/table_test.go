package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
)

var csvRows = []string{
	"Year,SMW,Mite,Tmax,RH,Site",
	"2019,1,2.0,28,80,north",
	"2019,2,4.0,30,76,north",
	"2019,3,6.0,32,72,south",
	"2020,1,1.0,27,85,north",
	"2020,2,3.0,29,81,south",
	"2020,3,,31,77,south",
	"2021,2,5.0,33,70,east",
	"2021,1,7.0,35,66,east",
	"2021,3,40.0,36,60,east",
}

func loadFixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(strings.Join(csvRows, "\n")), "mites.csv", dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return ds
}

func TestDescribeAndMarkdown(t *testing.T) {
	ds := loadFixture(t)
	opt := DefaultOptions()
	opt.SampleRows = 3

	rep := Describe(ds, opt)
	if rep.Name != "mites.csv" {
		t.Fatalf("name = %q", rep.Name)
	}
	if rep.Rows != 9 {
		t.Fatalf("rows = %d, want 9", rep.Rows)
	}
	if len(rep.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(rep.Samples))
	}
	if len(rep.Groups) != 3 || rep.Groups[0].Key != "Year=2019" || rep.Groups[0].Size != 3 {
		t.Fatalf("groups = %#v", rep.Groups)
	}
	if _, ok := rep.Groups[0].Metrics["Year"]; ok {
		t.Fatalf("Year must not be summarized within its own group")
	}
	if m := rep.Groups[1].Metrics["Mite"]; m.Count != 2 || !almostEqual(m.Mean, 2, 1e-12) {
		t.Fatalf("2020 Mite metrics = %#v", m)
	}

	mite := columnByName(t, rep, "Mite")
	if mite.Kind != dataset.KindNumeric || mite.NonNull != 8 || mite.Missing != 1 {
		t.Fatalf("mite summary = %#v", mite)
	}
	if !almostEqual(mite.Min, 1, 1e-12) || !almostEqual(mite.Max, 40, 1e-12) {
		t.Fatalf("mite min/max = %v/%v", mite.Min, mite.Max)
	}
	if !almostEqual(mite.Median, 4.5, 1e-12) {
		t.Fatalf("mite median = %v", mite.Median)
	}
	if mite.OutliersCount != 1 {
		t.Fatalf("mite outliers = %d, want 1", mite.OutliersCount)
	}

	site := columnByName(t, rep, "Site")
	if site.Kind != dataset.KindCategorical || site.Unique != 3 {
		t.Fatalf("site summary = %#v", site)
	}
	if site.TopValues[0].Value != "east" && site.TopValues[0].Value != "north" && site.TopValues[0].Value != "south" {
		t.Fatalf("unexpected top value %#v", site.TopValues)
	}

	if rep.Corr == nil {
		t.Fatalf("expected correlation matrix")
	}
	for _, c := range rep.Corr.Columns {
		if c == "Site" {
			t.Fatalf("categorical column in correlation matrix")
		}
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: mites.csv",
		"Rows: 9",
		"Years: 2019(3), 2020(3), 2021(3)",
		"- Mite: numeric (non-null 8, missing 11.1%)",
		"- Site: categorical",
		"[PER-YEAR SUMMARY]",
		"- Year=2020 (n=3)",
		"[CORRELATIONS]",
		"[CORRELATION WITH MITE]",
		"[HEAD AND SAMPLE ROWS]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestDescribeEmptyView(t *testing.T) {
	ds := loadFixture(t).FilterYears(nil)
	rep := Describe(ds, DefaultOptions())
	if rep.Rows != 0 || rep.Corr != nil || len(rep.Groups) != 0 {
		t.Fatalf("empty view report = %#v", rep)
	}
	if len(rep.Cols) != 6 {
		t.Fatalf("cols = %d, want 6", len(rep.Cols))
	}
	md := rep.Markdown()
	if !strings.Contains(md, "no rows in the current selection") {
		t.Fatalf("markdown missing empty note:\n%s", md)
	}
}

func TestCorrelationsPerfectAndPairwise(t *testing.T) {
	ds := loadFixture(t)
	m := Correlations(ds, []string{"Tmax", "RH", "SMW"})
	r, ok := m.At("Tmax", "Tmax")
	if !ok || r != 1 {
		t.Fatalf("diagonal = %v", r)
	}
	r, _ = m.At("Tmax", "RH")
	if r > -0.95 {
		t.Fatalf("Tmax~RH r = %v, want strongly negative", r)
	}
	r2, _ := m.At("RH", "Tmax")
	if r != r2 {
		t.Fatalf("matrix not symmetric: %v vs %v", r, r2)
	}

	// Mite has one missing value; the pair uses the 8 complete rows only.
	full := Correlations(ds, []string{"Mite", "Tmax"})
	var xs, ys []float64
	mite, tmax := ds.Floats("Mite"), ds.Floats("Tmax")
	for i := range mite {
		if !math.IsNaN(mite[i]) {
			xs = append(xs, mite[i])
			ys = append(ys, tmax[i])
		}
	}
	want := naivePearson(xs, ys)
	got, _ := full.At("Mite", "Tmax")
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("pairwise r = %v, want %v", got, want)
	}
}

func TestCorrelationsConstantColumnIsNaN(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader("Year,SMW,Mite,Calm\n2019,1,1,0\n2019,2,2,0\n2019,3,4,0\n"), "c.csv", dataset.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	m := Correlations(ds, []string{"Mite", "Calm"})
	r, _ := m.At("Mite", "Calm")
	if !math.IsNaN(r) {
		t.Fatalf("r = %v, want NaN", r)
	}
	if len(m.TopPairs(5)) != 0 {
		t.Fatalf("NaN pairs must not be listed")
	}
}

func TestTrends(t *testing.T) {
	series := Trends(loadFixture(t))
	if len(series) != 3 {
		t.Fatalf("series = %d, want 3", len(series))
	}
	if series[1].Year != "2020" || len(series[1].Points) != 2 {
		t.Fatalf("2020 series = %#v", series[1])
	}
	last := series[2]
	for i := 1; i < len(last.Points); i++ {
		if last.Points[i-1].SMW > last.Points[i].SMW {
			t.Fatalf("points not sorted by SMW: %#v", last.Points)
		}
	}
	peak, ok := last.Peak()
	if !ok || peak.Mite != 40 || peak.SMW != 3 {
		t.Fatalf("peak = %#v", peak)
	}
	if _, ok := (TrendSeries{}).Peak(); ok {
		t.Fatalf("empty series has no peak")
	}
}

func TestQuantileAndMAD(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if q := quantile(sorted, 0.5); !almostEqual(q, 2.5, 1e-12) {
		t.Fatalf("median = %v", q)
	}
	med, mad := medianMAD([]float64{1, 1, 2, 2, 4, 6, 9})
	if med != 2 || mad != 1 {
		t.Fatalf("median/mad = %v/%v", med, mad)
	}
}

func columnByName(t *testing.T, rep *Report, name string) ColumnSummary {
	t.Helper()
	for _, c := range rep.Cols {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("column %q not found", name)
	return ColumnSummary{}
}

func naivePearson(x, y []float64) float64 {
	n := float64(len(x))
	var mx, my float64
	for i := range x {
		mx += x[i] / n
		my += y[i] / n
	}
	var sxy, sxx, syy float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
		syy += (y[i] - my) * (y[i] - my)
	}
	return sxy / math.Sqrt(sxx*syy)
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
