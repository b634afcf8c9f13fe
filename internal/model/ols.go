package model

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/mitelab-cli/internal/dataset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Intercept names the constant term every fit includes.
const Intercept = "Intercept"

// singularTol is the smallest accepted ratio between the smallest and the
// largest singular value of the design matrix.
const singularTol = 1e-10

// Coefficient is one estimated term of a fit.
type Coefficient struct {
	Name     string
	Estimate float64
	StdErr   float64
	T        float64
	P        float64
	CILow    float64
	CIHigh   float64
}

// Fit is the result of an ordinary least squares regression.
type Fit struct {
	Formula      Formula
	NObs         int
	Dropped      int // rows skipped for a missing value in any model column
	DfModel      int
	DfResid      int
	Coefficients []Coefficient
	RSquared     float64
	AdjRSquared  float64
	FStat        float64
	FPValue      float64
	LogLik       float64
	AIC          float64
	BIC          float64
	Fitted       []float64
	Residuals    []float64
}

// FitOLS regresses f.Target on f.Terms plus an intercept over the rows of ds
// that have a value in every model column.
func FitOLS(ds *dataset.Dataset, f Formula) (*Fit, error) {
	if len(f.Terms) == 0 {
		return nil, &EmptySelectionError{What: "features"}
	}
	expr := f.String()
	cols := append([]string{f.Target}, f.Terms...)
	for _, c := range cols {
		if !ds.Has(c) {
			return nil, &FitError{Formula: expr, Reason: fmt.Sprintf("unknown column %q", c)}
		}
		if ds.Kind(c) != dataset.KindNumeric {
			return nil, &FitError{Formula: expr, Reason: fmt.Sprintf("column %q is not numeric", c)}
		}
	}
	if ds.Len() == 0 {
		return nil, &EmptySelectionError{What: "rows"}
	}

	p := len(f.Terms) + 1
	var xs, ys []float64
	dropped := 0
rows:
	for i := 0; i < ds.Len(); i++ {
		y, ok := ds.Float(i, f.Target)
		if !ok {
			dropped++
			continue
		}
		row := make([]float64, p)
		row[0] = 1
		for k, t := range f.Terms {
			x, ok := ds.Float(i, t)
			if !ok {
				dropped++
				continue rows
			}
			row[k+1] = x
		}
		xs = append(xs, row...)
		ys = append(ys, y)
	}
	n := len(ys)
	if n == 0 {
		return nil, &EmptySelectionError{What: "complete rows"}
	}
	if n <= p {
		return nil, &FitError{Formula: expr, Reason: fmt.Sprintf("%d complete rows is not enough for %d parameters", n, p)}
	}

	X := mat.NewDense(n, p, xs)
	y := mat.NewVecDense(n, ys)

	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDNone) {
		return nil, &FitError{Formula: expr, Reason: "singular value decomposition did not converge"}
	}
	sv := svd.Values(nil)
	if sv[len(sv)-1] <= singularTol*sv[0] {
		return nil, &FitError{Formula: expr, Reason: "design matrix is singular (collinear or constant features)"}
	}

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(p, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, &FitError{Formula: expr, Err: err}
	}

	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, &FitError{Formula: expr, Err: err}
	}

	var yhat mat.VecDense
	yhat.MulVec(X, beta)
	fitted := make([]float64, n)
	resid := make([]float64, n)
	var ssr, ybar float64
	for i := 0; i < n; i++ {
		fitted[i] = yhat.AtVec(i)
		resid[i] = ys[i] - fitted[i]
		ssr += resid[i] * resid[i]
		ybar += ys[i]
	}
	ybar /= float64(n)
	var sst float64
	for _, v := range ys {
		sst += (v - ybar) * (v - ybar)
	}

	fit := &Fit{
		Formula:   f,
		NObs:      n,
		Dropped:   dropped,
		DfModel:   p - 1,
		DfResid:   n - p,
		Fitted:    fitted,
		Residuals: resid,
	}
	sigma2 := ssr / float64(fit.DfResid)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(fit.DfResid)}
	crit := tdist.Quantile(0.975)
	names := append([]string{Intercept}, f.Terms...)
	for j, name := range names {
		b := beta.AtVec(j)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		c := Coefficient{Name: name, Estimate: b, StdErr: se, T: math.NaN(), P: math.NaN()}
		if se > 0 {
			c.T = b / se
			c.P = 2 * tdist.Survival(math.Abs(c.T))
		}
		c.CILow = b - crit*se
		c.CIHigh = b + crit*se
		fit.Coefficients = append(fit.Coefficients, c)
	}

	fit.RSquared = math.NaN()
	fit.AdjRSquared = math.NaN()
	fit.FStat = math.NaN()
	fit.FPValue = math.NaN()
	if sst > 0 {
		fit.RSquared = 1 - ssr/sst
		fit.AdjRSquared = 1 - (1-fit.RSquared)*float64(n-1)/float64(fit.DfResid)
	}
	if sst > 0 && sigma2 > 0 {
		fit.FStat = ((sst - ssr) / float64(fit.DfModel)) / sigma2
		fdist := distuv.F{D1: float64(fit.DfModel), D2: float64(fit.DfResid)}
		fit.FPValue = fdist.Survival(fit.FStat)
	}
	nf := float64(n)
	fit.LogLik = -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
	fit.AIC = -2*fit.LogLik + 2*float64(p)
	fit.BIC = -2*fit.LogLik + float64(p)*math.Log(nf)
	return fit, nil
}

// PValues maps each term, including the intercept, to its p-value.
func (f *Fit) PValues() map[string]float64 {
	out := make(map[string]float64, len(f.Coefficients))
	for _, c := range f.Coefficients {
		out[c.Name] = c.P
	}
	return out
}

// Coefficient returns the named term.
func (f *Fit) Coefficient(name string) (Coefficient, bool) {
	for _, c := range f.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// SignificantFactors returns the predictors significant at threshold, in term order.
func (f *Fit) SignificantFactors(threshold float64) []string {
	return Significant(f.Coefficients, threshold)
}
