package pipeline

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/mitelab-cli/internal/analysis"
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureCSV builds three seasons of weekly counts where Mite tracks Tmax
// closely and RH is noise.
func fixtureCSV() string {
	rng := rand.New(rand.NewSource(7))
	var b strings.Builder
	b.WriteString(" Year , SMW ,Mite,Tmax,Tmin,RH,Wind Speed,Site\n")
	for _, year := range []int{2019, 2020, 2021} {
		for w := 1; w <= 12; w++ {
			tmax := 25 + float64(w) + rng.Float64()
			tmin := 12 + rng.Float64()*4
			rh := 60 + rng.Float64()*30
			ws := 2 + rng.Float64()*3
			mite := 3*tmax - 60 + rng.NormFloat64()*0.5
			fmt.Fprintf(&b, "%d,%d,%.3f,%.3f,%.3f,%.3f,%.3f,plot%d\n", year, w, mite, tmax, tmin, rh, ws, w%2)
		}
	}
	return b.String()
}

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(fixtureCSV()), "mite_weather.csv", dataset.LoadOptions{})
	require.NoError(t, err)
	return ds
}

func TestResolveYearsDefaultAndExplicit(t *testing.T) {
	ds := fixture(t)

	years, err := ResolveYears(ds, Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2019", "2020", "2021"}, years)

	view, err := FilterStage(ds, Selection{})
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), view.Len())

	view, err = FilterStage(ds, Selection{}.WithYears("2020"))
	require.NoError(t, err)
	assert.Equal(t, 12, view.Len())

	view, err = FilterStage(ds, Selection{}.WithYears())
	require.NoError(t, err)
	assert.Equal(t, 0, view.Len())

	_, err = FilterStage(ds, Selection{}.WithYears("1999"))
	assert.Equal(t, KindConfig, ErrorKind(err))
}

func TestFeatureStageUsesNumericCandidates(t *testing.T) {
	ds := fixture(t)
	assert.Equal(t, []string{"Tmax", "Tmin", "RH", "Wind Speed"}, CandidateFeatures(ds))

	got, err := FeatureStage(ds, Selection{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tmax", "Tmin", "RH"}, got)

	_, err = FeatureStage(ds, Selection{}.WithFeatures("Site"))
	var ce *model.ConfigError
	require.True(t, errors.As(err, &ce))
}

func TestModelStageEmptyFeaturesIsNeutral(t *testing.T) {
	ds := fixture(t)
	out := ModelStage(ds, nil)
	assert.Equal(t, StateNeutral, out.State)
	assert.Equal(t, MsgNoFeatures, out.Message)
	assert.Nil(t, out.Fit)
	assert.NoError(t, out.Err)
	assert.Equal(t, model.Formula{}, out.Formula, "formula builder must not run")

	a := Run(ds, Selection{}.WithFeatures(), analysis.DefaultOptions(), nil)
	assert.Equal(t, StateNeutral, a.Model.State)
	assert.NotContains(t, a.Markdown(), "Mite ~ ")
}

func TestModelStageFitsAndSummarizes(t *testing.T) {
	ds := fixture(t)
	out := ModelStage(ds, []string{"Tmax", "Wind Speed"})
	require.Equal(t, StateFitted, out.State, out.Message)
	assert.Equal(t, "Mite ~ Tmax + Q('Wind Speed')", out.Formula.String())
	assert.Contains(t, out.Significant, "Tmax")
	assert.NotContains(t, out.Significant, model.Intercept)
	assert.Contains(t, out.Message, "Tmax")
}

func TestModelStageNoSignificantFactors(t *testing.T) {
	rows := "Year,SMW,Mite,Noise\n" +
		"2020,1,5,1\n2020,2,3,2\n2020,3,6,3\n2020,4,2,4\n2020,5,5,5\n2020,6,4,6\n"
	ds, err := dataset.ReadCSV(strings.NewReader(rows), "n.csv", dataset.LoadOptions{})
	require.NoError(t, err)
	out := ModelStage(ds, []string{"Noise"})
	require.Equal(t, StateFitted, out.State)
	assert.Empty(t, out.Significant)
	assert.Equal(t, MsgNoSignificant, out.Message)
}

func TestModelStageErrorsAreTyped(t *testing.T) {
	ds := fixture(t)

	out := ModelStage(ds.FilterYears(nil), []string{"Tmax"})
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, KindEmptySelection, ErrorKind(out.Err))

	rows := "Year,SMW,Mite,A,B\n2020,1,1,1,2\n2020,2,2,2,4\n2020,3,3,3,6\n2020,4,5,4,8\n"
	collinear, err := dataset.ReadCSV(strings.NewReader(rows), "c.csv", dataset.LoadOptions{})
	require.NoError(t, err)
	out = ModelStage(collinear, []string{"A", "B"})
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, KindFit, ErrorKind(out.Err))
	assert.True(t, strings.HasPrefix(out.Message, "Model error:"))
}

func TestRunEmptyYearSelectionPropagates(t *testing.T) {
	ds := fixture(t)
	a := Run(ds, Selection{}.WithYears(), analysis.DefaultOptions(), nil)
	require.NoError(t, a.Err)
	assert.Equal(t, 0, a.View.Len())
	assert.Empty(t, a.Trends)
	assert.Nil(t, a.Corr)
	assert.Equal(t, StateFailed, a.Model.State)
	assert.Equal(t, KindEmptySelection, ErrorKind(a.Model.Err))

	md := a.Markdown()
	assert.Contains(t, md, "Rows in view: 0")
	assert.Contains(t, md, "No observations in the current selection.")
	assert.Contains(t, md, "Nothing to analyse")
}

func TestRunInvalidYearsStopsEarly(t *testing.T) {
	a := Run(fixture(t), Selection{}.WithYears("2030"), analysis.DefaultOptions(), nil)
	require.Error(t, a.Err)
	assert.Nil(t, a.View)
	assert.Contains(t, a.Markdown(), "Invalid selection")
}

func TestRunFullReport(t *testing.T) {
	a := Run(fixture(t), Selection{}.WithYears("2019", "2021").WithFeatures("Tmax", "RH"), analysis.DefaultOptions(), nil)
	require.NoError(t, a.Err)
	assert.Equal(t, 24, a.View.Len())
	assert.Len(t, a.Trends, 2)
	require.NotNil(t, a.Corr)
	assert.Equal(t, StateFitted, a.Model.State)

	a.Charts = []ChartRef{{Title: "Trend", Path: "charts/trend.png"}}
	md := a.Markdown()
	for _, want := range []string{
		"Selected years: 2019, 2021",
		"## Overview",
		"## Trends",
		"## Correlations",
		"| Mite |",
		"Formula: `Mite ~ Tmax + RH`",
		"OLS Regression Results",
		"![Trend](charts/trend.png)",
	} {
		assert.Contains(t, md, want)
	}
}

func TestLoaderMemoizesByContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "obs.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV()), 0o644))

	l := NewLoader(dataset.LoadOptions{}, nil)
	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	hits, misses := l.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	require.NoError(t, os.WriteFile(path, []byte("Year,SMW,Mite\n2022,1,4\n"), 0o644))
	third, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, 1, third.Len())

	_, err = l.Load(filepath.Join(dir, "missing.csv"))
	assert.Equal(t, KindIngestion, ErrorKind(err))
}

func TestDigestMatchesContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("Year,SMW,Mite\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("Year,SMW,Mite\n"), 0o644))
	da, err := Digest(a)
	require.NoError(t, err)
	db, err := Digest(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
	assert.Len(t, da, 64)
}

func TestErrorKindAndMessages(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{&dataset.IngestionError{Path: "x", Err: errors.New("boom")}, KindIngestion},
		{&dataset.SchemaError{Missing: []string{"SMW"}}, KindSchema},
		{fmt.Errorf("wrapped: %w", &model.EmptySelectionError{What: "rows"}), KindEmptySelection},
		{&model.FitError{Reason: "singular"}, KindFit},
		{&model.ConfigError{Field: "features", Invalid: []string{"X"}}, KindConfig},
		{errors.New("other"), ""},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, ErrorKind(tc.err))
	}
	assert.Equal(t, "", UserMessage(nil))
	assert.Contains(t, UserMessage(&dataset.SchemaError{Missing: []string{"SMW"}}), "missing required columns: SMW")
}
