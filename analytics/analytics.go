// Package analytics provides stateless risk and return statistics over daily
// time series.
//
// Every function operates on plain float64 slices so the same code serves the
// portfolio total series and any instrument close series. Numeric
// degeneracies (zero variance, no negative returns) follow floating-point
// semantics and yield NaN or Inf; callers are expected to check for
// non-finite results rather than recover from panics.
package analytics

import (
	"math"
)

// DailyReturn converts a value series to a daily return series.
//
// r[0] is 0 by convention, r[t] = values[t]/values[t-1] - 1.
func DailyReturn(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	r := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		r[i] = values[i]/values[i-1] - 1
	}
	return r
}

// Normalized rescales a value series so that it starts at 1.
func Normalized(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / values[0]
	}
	return out
}

// Mean returns the arithmetic mean of xs, NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Std returns the population standard deviation of xs.
func Std(xs []float64) float64 {
	m := Mean(xs)
	if math.IsNaN(m) {
		return math.NaN()
	}
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// sampleCov returns the sample covariance (N-1 normalization) of xs and ys.
func sampleCov(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var sum float64
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n-1)
}

// AnnualizedSharpe returns the annualized raw-return Sharpe ratio,
// sqrt(k) * mean(returns) / std(returns). k is the number of trading
// sessions per year, conventionally 252.
func AnnualizedSharpe(returns []float64, k float64) float64 {
	return math.Sqrt(k) * Mean(returns) / Std(returns)
}

// SharpeRatio returns the excess-return Sharpe ratio,
// mean(excess) / std(excess), with no annualization applied.
func SharpeRatio(returns, riskFree []float64) float64 {
	excess := ExcessReturn(returns, riskFree)
	return Mean(excess) / Std(excess)
}

// Sortino returns the Sortino ratio: sqrt(k) * mean(returns) divided by the
// standard deviation of the negative returns only. With no negative session
// the downside deviation is NaN and so is the ratio.
func Sortino(returns []float64, k float64) float64 {
	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	return Mean(returns) / Std(negative) * math.Sqrt(k)
}

// ExcessReturn subtracts the daily risk-free rate from each return.
func ExcessReturn(returns, riskFree []float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - riskFree[i]
	}
	return out
}

// ExcessRisk is the standard deviation of the excess return.
func ExcessRisk(returns, riskFree []float64) float64 {
	return Std(ExcessReturn(returns, riskFree))
}

// ActiveReturn subtracts the benchmark return from each return.
func ActiveReturn(returns, benchmark []float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - benchmark[i]
	}
	return out
}

// ActiveRisk is the standard deviation of the active return.
func ActiveRisk(returns, benchmark []float64) float64 {
	return Std(ActiveReturn(returns, benchmark))
}

// InfoRatio is the mean active return divided by the active risk.
func InfoRatio(returns, benchmark []float64) float64 {
	active := ActiveReturn(returns, benchmark)
	return Mean(active) / Std(active)
}

// Beta regresses the series returns against the benchmark returns using the
// 2x2 covariance matrix: beta = C[0][1] / C[0][0] where row 0 is the
// benchmark. A series measured against itself has a beta of 1.
func Beta(benchmark, returns []float64) float64 {
	return sampleCov(benchmark, returns) / sampleCov(benchmark, benchmark)
}

// BetaAlpha fits returns = beta*benchmark + alpha by degree-1 least squares
// and returns the slope and intercept.
func BetaAlpha(benchmark, returns []float64) (beta, alpha float64) {
	beta = Beta(benchmark, returns)
	alpha = Mean(returns) - beta*Mean(benchmark)
	return beta, alpha
}

// ResidualReturn is the excess return minus beta times the benchmark excess
// return.
func ResidualReturn(returns, benchmark, riskFree []float64) []float64 {
	beta := Beta(benchmark, returns)
	self := ExcessReturn(returns, riskFree)
	bench := ExcessReturn(benchmark, riskFree)
	out := make([]float64, len(self))
	for i := range self {
		out[i] = self[i] - beta*bench[i]
	}
	return out
}

// ResidualRisk is the standard deviation of the residual return.
func ResidualRisk(returns, benchmark, riskFree []float64) float64 {
	return Std(ResidualReturn(returns, benchmark, riskFree))
}

// AppraisalRatio is the mean residual return divided by the residual risk.
func AppraisalRatio(returns, benchmark, riskFree []float64) float64 {
	residual := ResidualReturn(returns, benchmark, riskFree)
	return Mean(residual) / Std(residual)
}

// MaxDrawdown returns the largest peak-to-trough decline over the whole
// series, as a fraction of the peak.
func MaxDrawdown(values []float64) float64 {
	var mdd, dd float64
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		} else {
			dd = (peak - v) / peak
		}
		if dd > mdd {
			mdd = dd
		}
	}
	return mdd
}

// UpRatio returns the fraction of up sessions over the trailing days ending
// at index at. A flat session counts as up.
func UpRatio(values []float64, at, days int) float64 {
	var up, dn float64
	for i := at - days; i <= at; i++ {
		if i < 1 || i >= len(values) {
			continue
		}
		if values[i] < values[i-1] {
			dn++
		} else {
			up++
		}
	}
	return up / (up + dn)
}

// DnRatio returns the fraction of down sessions over the trailing days
// ending at index at.
func DnRatio(values []float64, at, days int) float64 {
	return 1.0 - UpRatio(values, at, days)
}
