package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { color.NoColor = true }

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "loaded %d rows", 12)
	Warn(&buf, "no factor is significant")
	Fail(&buf, "model error: %s", "singular")
	assert.Equal(t, "✓ loaded 12 rows\n⚠ no factor is significant\n✗ model error: singular\n", buf.String())
}

func TestYearsTable(t *testing.T) {
	var buf bytes.Buffer
	YearsTable(&buf, []dataset.YearCount{{Year: "2019", Rows: 3}, {Year: "2020", Rows: 5}})
	out := buf.String()
	assert.Contains(t, out, "Year")
	assert.Contains(t, out, "2019")
	assert.Contains(t, out, "5")
}

func TestCorrelationTableNaN(t *testing.T) {
	var buf bytes.Buffer
	CorrelationTable(&buf, &analysis.CorrMatrix{
		Columns: []string{"Mite", "Calm"},
		Values:  [][]float64{{1, math.NaN()}, {math.NaN(), math.NaN()}},
	})
	out := buf.String()
	assert.Contains(t, out, "1.00")
	assert.Equal(t, 3, strings.Count(out, "nan"))
}

func TestCoefficientTableMarksSignificant(t *testing.T) {
	ds, err := dataset.ReadCSV(strings.NewReader(
		"Year,SMW,Mite,Tmax\n2020,1,10,30\n2020,2,13,31\n2020,3,16.2,32\n2020,4,18.9,33\n2020,5,22,34\n"),
		"c.csv", dataset.LoadOptions{})
	require.NoError(t, err)
	f, err := model.BuildFormula(dataset.ColMite, []string{"Tmax"})
	require.NoError(t, err)
	fit, err := model.FitOLS(ds, f)
	require.NoError(t, err)

	var buf bytes.Buffer
	CoefficientTable(&buf, fit)
	out := buf.String()
	assert.Contains(t, out, "Intercept")
	assert.Contains(t, out, "Tmax")
	assert.Equal(t, 1, strings.Count(out, "*"))
}

func TestTrendTable(t *testing.T) {
	var buf bytes.Buffer
	TrendTable(&buf, []analysis.TrendSeries{
		{Year: "2020", Points: []analysis.TrendPoint{{SMW: 1, Mite: 4}, {SMW: 2, Mite: 9}}},
		{Year: "2021"},
	})
	out := buf.String()
	assert.Contains(t, out, "2020")
	assert.Contains(t, out, "9")
	assert.Contains(t, out, "2021")
}
