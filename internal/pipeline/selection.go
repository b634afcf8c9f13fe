// Package pipeline wires the dataset, analysis and model stages together.
// Every stage takes the immutable Selection explicitly and returns a value or
// a typed error; nothing is kept between calls except the Loader's cache.
package pipeline

import (
	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"github.com/KaramelBytes/mitelab-cli/internal/model"
)

// Selection is the user's current choice of years and weather factors.
type Selection struct {
	// Years is honoured only when YearsSet is true; otherwise every year is selected.
	Years    []string
	YearsSet bool
	// Features is the explicit predictor choice; nil applies the default policy.
	Features []string
}

// WithYears returns a copy of s restricted to years. An empty list is an
// explicit empty selection.
func (s Selection) WithYears(years ...string) Selection {
	out := s
	out.Years = append([]string{}, years...)
	out.YearsSet = true
	return out
}

// WithFeatures returns a copy of s with an explicit feature choice.
func (s Selection) WithFeatures(features ...string) Selection {
	out := s
	out.Features = append([]string{}, features...)
	return out
}

// ResolveYears returns the years the selection stands for over ds. Years not
// present in ds are a *model.ConfigError.
func ResolveYears(ds *dataset.Dataset, sel Selection) ([]string, error) {
	all := ds.DistinctYears()
	if !sel.YearsSet {
		return all, nil
	}
	known := make(map[string]struct{}, len(all))
	for _, y := range all {
		known[y] = struct{}{}
	}
	var invalid []string
	for _, y := range sel.Years {
		if _, ok := known[y]; !ok {
			invalid = append(invalid, y)
		}
	}
	if len(invalid) > 0 {
		return nil, &model.ConfigError{Field: "years", Invalid: invalid, Allowed: all}
	}
	out := make([]string, len(sel.Years))
	copy(out, sel.Years)
	return out, nil
}

// FilterStage applies the year selection.
func FilterStage(ds *dataset.Dataset, sel Selection) (*dataset.Dataset, error) {
	years, err := ResolveYears(ds, sel)
	if err != nil {
		return nil, err
	}
	return ds.FilterYears(years), nil
}

// CandidateFeatures lists the numeric non-reserved columns of ds in file order.
func CandidateFeatures(ds *dataset.Dataset) []string {
	var out []string
	for _, c := range model.Candidates(ds.Columns()) {
		if ds.Kind(c) == dataset.KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// FeatureStage applies the feature selection policy to ds.
func FeatureStage(ds *dataset.Dataset, sel Selection) ([]string, error) {
	return model.SelectFeatures(CandidateFeatures(ds), sel.Features)
}
