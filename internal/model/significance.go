package model

import "sort"

// SignificanceLevel is the p-value below which a predictor is reported.
const SignificanceLevel = 0.05

// IsIntercept reports whether name labels the constant term of a Fit.
func IsIntercept(name string) bool {
	return name == Intercept
}

// Significant returns the names whose p-value is strictly below threshold,
// in input order. The intercept is never reported.
func Significant(coefs []Coefficient, threshold float64) []string {
	var out []string
	for _, c := range coefs {
		if IsIntercept(c.Name) {
			continue
		}
		if c.P < threshold {
			out = append(out, c.Name)
		}
	}
	return out
}

// SignificantPValues is Significant over a name to p-value mapping. Names are
// ordered by ascending p-value, ties by name.
func SignificantPValues(pvalues map[string]float64, threshold float64) []string {
	coefs := make([]Coefficient, 0, len(pvalues))
	for name, p := range pvalues {
		coefs = append(coefs, Coefficient{Name: name, P: p})
	}
	sort.Slice(coefs, func(i, j int) bool {
		if coefs[i].P == coefs[j].P {
			return coefs[i].Name < coefs[j].Name
		}
		return coefs[i].P < coefs[j].P
	})
	return Significant(coefs, threshold)
}
