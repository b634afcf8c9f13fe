package model

import (
	"fmt"
	"strings"
)

const summaryWidth = 78

// Summary renders the fit as a fixed-width text report.
func (f *Fit) Summary() string {
	var b strings.Builder
	rule := strings.Repeat("=", summaryWidth)
	thin := strings.Repeat("-", summaryWidth)

	b.WriteString(center("OLS Regression Results", summaryWidth))
	b.WriteString("\n" + rule + "\n")
	pairs := [][4]string{
		{"Dep. Variable:", f.Formula.Target, "R-squared:", fmtStat(f.RSquared, "%.3f")},
		{"Model:", "OLS", "Adj. R-squared:", fmtStat(f.AdjRSquared, "%.3f")},
		{"Method:", "Least Squares", "F-statistic:", fmtStat(f.FStat, "%.4g")},
		{"No. Observations:", fmt.Sprintf("%d", f.NObs), "Prob (F-statistic):", fmtStat(f.FPValue, "%.3g")},
		{"Df Residuals:", fmt.Sprintf("%d", f.DfResid), "Log-Likelihood:", fmtStat(f.LogLik, "%.4g")},
		{"Df Model:", fmt.Sprintf("%d", f.DfModel), "AIC:", fmtStat(f.AIC, "%.4g")},
		{"Rows Dropped:", fmt.Sprintf("%d", f.Dropped), "BIC:", fmtStat(f.BIC, "%.4g")},
	}
	for _, p := range pairs {
		b.WriteString(fmt.Sprintf("%-20s%18s   %-20s%17s\n", p[0], truncate(p[1], 18), p[2], p[3]))
	}
	b.WriteString(rule + "\n")

	nameW := 14
	for _, c := range f.Coefficients {
		if l := len(QuoteName(c.Name)); l > nameW {
			nameW = l
		}
	}
	if nameW > 30 {
		nameW = 30
	}
	b.WriteString(fmt.Sprintf("%-*s %10s %10s %8s %7s %10s %10s\n", nameW, "", "coef", "std err", "t", "P>|t|", "[0.025", "0.975]"))
	b.WriteString(thin + "\n")
	for _, c := range f.Coefficients {
		b.WriteString(fmt.Sprintf("%-*s %10.4f %10.3f %8s %7s %10.3f %10.3f\n",
			nameW, truncate(QuoteName(c.Name), nameW), c.Estimate, c.StdErr,
			fmtStat(c.T, "%.3f"), fmtStat(c.P, "%.3f"), c.CILow, c.CIHigh))
	}
	b.WriteString(rule + "\n")
	b.WriteString("Formula: " + f.Formula.String() + "\n")
	return b.String()
}

func fmtStat(v float64, format string) string {
	if v != v {
		return "nan"
	}
	return fmt.Sprintf(format, v)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", (width-len(s))/2) + s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
