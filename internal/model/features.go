package model

import (
	"fmt"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
)

// DefaultFeatureCount is how many candidates are selected when the caller
// does not choose features explicitly.
const DefaultFeatureCount = 3

// Reserved columns are identifiers or the response and never predictors.
var Reserved = []string{dataset.ColYear, dataset.ColSMW, dataset.ColMite}

// Candidates returns columns minus the reserved set, preserving order.
func Candidates(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if isReserved(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SelectFeatures applies the selection policy over candidates. A nil override
// selects the first DefaultFeatureCount candidates (all of them if fewer).
// A non-nil override must be a duplicate-free subset of candidates and keeps
// its own order.
func SelectFeatures(candidates, override []string) ([]string, error) {
	if override == nil {
		n := DefaultFeatureCount
		if len(candidates) < n {
			n = len(candidates)
		}
		out := make([]string, n)
		copy(out, candidates[:n])
		return out, nil
	}
	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c] = struct{}{}
	}
	seen := make(map[string]struct{}, len(override))
	var invalid, dups []string
	out := make([]string, 0, len(override))
	for _, f := range override {
		if _, ok := allowed[f]; !ok {
			invalid = append(invalid, f)
			continue
		}
		if _, ok := seen[f]; ok {
			dups = append(dups, f)
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(invalid) > 0 {
		return nil, &ConfigError{Field: "features", Invalid: invalid, Allowed: candidates}
	}
	if len(dups) > 0 {
		return nil, &ConfigError{Field: "features", Invalid: dups, Reason: fmt.Sprintf("duplicate feature names %q", dups)}
	}
	return out, nil
}

func isReserved(col string) bool {
	for _, r := range Reserved {
		if col == r {
			return true
		}
	}
	return false
}
