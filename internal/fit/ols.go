package fit

import (
	"math"

	"gopower/domain/trial"
	"gopower/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// residualFloor is the residual variance below which a fit is treated as
// inestimable rather than producing meaningless near-zero standard errors.
const residualFloor = 1e-10

// olsFit holds one fitted ordinary-least-squares model.
type olsFit struct {
	beta []float64
	se   []float64
	sse  float64
	df   int // residual degrees of freedom
}

// Evaluate fits the three fixed models for a 2x2 factorial trial and extracts
// p-values, significance flags, and Cohen's f effect sizes:
//
//  1. response ~ iv1
//  2. response ~ iv2
//  3. response ~ iv1 * iv2 (p-value and partial f of the interaction term only)
//
// A degenerate sample (zero total or residual variance) fails the whole trial
// with a DEGENERATE_FIT error instead of returning placeholder values.
func Evaluate(ds *trial.Dataset, alpha float64) (trial.Result, error) {
	var res trial.Result

	if ds == nil || ds.Len() == 0 {
		return res, errors.InvalidInput("empty dataset")
	}

	y := ds.Response
	x1, x2 := ds.Codes()

	sst := totalSumSquares(y)
	if sst <= residualFloor {
		return res, errors.DegenerateFit("response has zero variance")
	}

	m1, err := solveOLS([][]float64{x1}, y)
	if err != nil {
		return res, err
	}
	m2, err := solveOLS([][]float64{x2}, y)
	if err != nil {
		return res, err
	}

	x12 := make([]float64, len(x1))
	for i := range x1 {
		x12[i] = x1[i] * x2[i]
	}
	full, err := solveOLS([][]float64{x1, x2, x12}, y)
	if err != nil {
		return res, err
	}
	additive, err := solveOLS([][]float64{x1, x2}, y)
	if err != nil {
		return res, err
	}

	res.PIV1 = coefficientPValue(m1, 1)
	res.PIV2 = coefficientPValue(m2, 1)
	res.PInteraction = coefficientPValue(full, 3)

	res.SigIV1 = res.PIV1 < alpha
	res.SigIV2 = res.PIV2 < alpha
	res.SigInter = res.PInteraction < alpha

	res.ESIV1, err = overallCohensF(sst, m1.sse)
	if err != nil {
		return trial.Result{}, err
	}
	res.ESIV2, err = overallCohensF(sst, m2.sse)
	if err != nil {
		return trial.Result{}, err
	}
	res.ESInter, err = partialCohensF(additive.sse, full.sse)
	if err != nil {
		return trial.Result{}, err
	}

	return res, nil
}

// solveOLS fits y on the given predictor columns plus an intercept via QR
// decomposition and returns coefficients with their standard errors.
func solveOLS(cols [][]float64, y []float64) (*olsFit, error) {
	n := len(y)
	p := len(cols) + 1

	df := n - p
	if df <= 0 {
		return nil, errors.DegenerateFit("not enough observations for model degrees of freedom")
	}

	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		for j, col := range cols {
			x.Set(i, j+1, col[i])
		}
	}
	yv := mat.NewDense(n, 1, nil)
	for i, v := range y {
		yv.Set(i, 0, v)
	}

	var qr mat.QR
	qr.Factorize(x)

	var betaM mat.Dense
	if err := qr.SolveTo(&betaM, false, yv); err != nil {
		return nil, errors.DegenerateFit("design matrix is rank deficient")
	}

	var pred mat.Dense
	pred.Mul(x, &betaM)

	sse := 0.0
	for i := 0; i < n; i++ {
		r := y[i] - pred.At(i, 0)
		sse += r * r
	}

	sigma2 := sse / float64(df)
	if sigma2 <= residualFloor {
		return nil, errors.DegenerateFit("residual variance is zero")
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, errors.DegenerateFit("normal equations are singular")
	}

	fitted := &olsFit{
		beta: make([]float64, p),
		se:   make([]float64, p),
		sse:  sse,
		df:   df,
	}
	for j := 0; j < p; j++ {
		fitted.beta[j] = betaM.At(j, 0)
		fitted.se[j] = math.Sqrt(sigma2 * xtxInv.At(j, j))
	}
	return fitted, nil
}

// coefficientPValue returns the two-sided t-test p-value for one coefficient.
func coefficientPValue(f *olsFit, j int) float64 {
	t := f.beta[j] / f.se[j]
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(f.df)}
	return 2 * dist.CDF(-math.Abs(t))
}

// overallCohensF converts a single-predictor model's explained variance into
// Cohen's f: f = sqrt(eta2 / (1 - eta2)) with eta2 = (SST - SSE) / SST.
func overallCohensF(sst, sse float64) (float64, error) {
	if sse <= residualFloor {
		return 0, errors.DegenerateFit("effect size undefined for a saturated fit")
	}
	ssModel := sst - sse
	if ssModel < 0 {
		ssModel = 0
	}
	return math.Sqrt(ssModel / sse), nil
}

// partialCohensF isolates the interaction term's contribution: the residual
// sum of squares dropped when adding the interaction to the additive model,
// scaled against the full model's residual variance.
func partialCohensF(sseAdditive, sseFull float64) (float64, error) {
	if sseFull <= residualFloor {
		return 0, errors.DegenerateFit("effect size undefined for a saturated fit")
	}
	ssInteraction := sseAdditive - sseFull
	if ssInteraction < 0 {
		ssInteraction = 0
	}
	return math.Sqrt(ssInteraction / sseFull), nil
}

func totalSumSquares(y []float64) float64 {
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	sst := 0.0
	for _, v := range y {
		d := v - mean
		sst += d * d
	}
	return sst
}
