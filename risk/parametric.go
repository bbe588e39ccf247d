package risk

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ZScore returns the standard normal inverse CDF at the given confidence
// level, e.g. ZScore(0.99) ~= 2.326.
func ZScore(confidence float64) float64 {
	return distuv.Normal{Mu: 0, Sigma: 1}.Quantile(confidence)
}

// ParametricVaR computes the variance-covariance VaR:
//
//	VaR = portfolioValue x z x sqrt(w' Sigma w)
//
// The weight vector is reindexed onto the covariance matrix's instrument
// ordering; an instrument absent from the matrix contributes weight 0, so a
// position with no return history adds no variance. The quadratic form is
// non-negative by the PSD-ness of Sigma; tiny negative values from floating
// point are clamped to zero. The figure is one-day; horizon scaling is the
// caller's job via ScaleHorizon.
func ParametricVaR(w WeightVector, cov *CovarianceMatrix, zScore, portfolioValue float64) float64 {
	n := cov.Dim()
	if n == 0 {
		return 0
	}
	vec := mat.NewVecDense(n, nil)
	for i, k := range cov.Keys {
		if wt, ok := w.W[k]; ok {
			vec.SetVec(i, wt)
		}
	}

	var sv mat.VecDense
	sv.MulVec(cov.Sigma, vec)
	quad := mat.Dot(vec, &sv)
	if quad < 0 {
		quad = 0
	}
	return portfolioValue * zScore * math.Sqrt(quad)
}

// ScaleHorizon scales a 1-day VaR to a T-day horizon by sqrt(T).
func ScaleHorizon(oneDayVaR, horizonDays float64) float64 {
	return oneDayVaR * math.Sqrt(horizonDays)
}
