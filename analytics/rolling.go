package analytics

import (
	"math"

	"github.com/markcheno/go-talib"
)

// This file holds the rolling-window statistics. They all take a merged
// series: warmup history first, then the simulation window, with preLen the
// number of warmup points. Results are aligned to the simulation window so
// the first in-window session already has a full trailing window behind it.

// Drawdown returns, for each in-window session, the fractional decline from
// the highest value within the trailing window (window sessions plus the
// current one) to the current value. The window is clamped at the start of
// the merged series.
func Drawdown(values []float64, preLen, window int) []float64 {
	out := make([]float64, 0, len(values)-preLen)
	for i := preLen; i < len(values); i++ {
		lo := i - window
		if lo < 0 {
			lo = 0
		}
		peak := math.Inf(-1)
		for _, v := range values[lo : i+1] {
			if v > peak {
				peak = v
			}
		}
		out = append(out, (peak-values[i])/peak)
	}
	return out
}

// MovingAverage returns the rolling mean of the merged series over window
// sessions, aligned to the in-window part. Sessions without a full window
// behind them are NaN.
func MovingAverage(values []float64, preLen, window int) []float64 {
	sma := talib.Sma(values, window)
	blankLeading(sma, window-1)
	return sma[preLen:]
}

// Bands holds the Bollinger band series, aligned to the simulation window.
type Bands struct {
	Mid   []float64 // rolling mean
	Upper []float64 // mid + k*sigma
	Lower []float64 // mid - k*sigma
	BA    []float64 // (price - mid) / (k*sigma), position within the band
}

// BollingerBand computes the Bollinger bands of the merged series with a
// rolling window and a band width of k standard deviations.
func BollingerBand(values []float64, preLen, window int, k float64) Bands {
	mid := talib.Sma(values, window)
	sigma := talib.StdDev(values, window, 1.0)
	blankLeading(mid, window-1)
	blankLeading(sigma, window-1)

	n := len(values) - preLen
	b := Bands{
		Mid:   make([]float64, n),
		Upper: make([]float64, n),
		Lower: make([]float64, n),
		BA:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		j := preLen + i
		b.Mid[i] = mid[j]
		b.Upper[i] = mid[j] + k*sigma[j]
		b.Lower[i] = mid[j] - k*sigma[j]
		b.BA[i] = (values[j] - mid[j]) / (k * sigma[j])
	}
	return b
}

const rsiPeriod = 14

// RSI computes the relative strength index with Wilder smoothing: the seed
// averages are the plain mean of the first 14 gains and losses, then
// avg = (prev*13 + current)/14. When the average loss is exactly zero the
// RSI is 100. The result is aligned to the in-window part of the series;
// warmup history (conventionally 250 sessions) makes every in-window value
// defined.
func RSI(values []float64, preLen int) []float64 {
	rsi := make([]float64, len(values))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if len(values) > rsiPeriod {
		var avgGain, avgLoss float64
		for i := 1; i <= rsiPeriod; i++ {
			avgGain += gain(values, i)
			avgLoss += loss(values, i)
		}
		avgGain /= rsiPeriod
		avgLoss /= rsiPeriod
		rsi[rsiPeriod] = rsiValue(avgGain, avgLoss)
		for i := rsiPeriod + 1; i < len(values); i++ {
			avgGain = (avgGain*(rsiPeriod-1) + gain(values, i)) / rsiPeriod
			avgLoss = (avgLoss*(rsiPeriod-1) + loss(values, i)) / rsiPeriod
			rsi[i] = rsiValue(avgGain, avgLoss)
		}
	}
	return rsi[preLen:]
}

func gain(values []float64, i int) float64 {
	if d := values[i] - values[i-1]; d > 0 {
		return d
	}
	return 0
}

func loss(values []float64, i int) float64 {
	if d := values[i] - values[i-1]; d < 0 {
		return -d
	}
	return 0
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MaxRise returns the change from the trailing-window minimum to the value
// at index at, as a fraction of the current value. The window covers the
// window sessions strictly before at.
func MaxRise(values []float64, at, window int) float64 {
	lo := at - window
	if lo < 0 {
		lo = 0
	}
	if lo >= at {
		return math.NaN()
	}
	m := math.Inf(1)
	for _, v := range values[lo:at] {
		if v < m {
			m = v
		}
	}
	return (values[at] - m) / values[at]
}

// MaxFall returns the span between the trailing-window maximum and minimum,
// as a fraction of the value at index at.
func MaxFall(values []float64, at, window int) float64 {
	lo := at - window
	if lo < 0 {
		lo = 0
	}
	if lo >= at {
		return math.NaN()
	}
	mx, mn := math.Inf(-1), math.Inf(1)
	for _, v := range values[lo:at] {
		if v > mx {
			mx = v
		}
		if v < mn {
			mn = v
		}
	}
	return (mx - mn) / values[at]
}

// blankLeading replaces the first n values, where the rolling window is not
// yet full, with NaN.
func blankLeading(xs []float64, n int) {
	if n > len(xs) {
		n = len(xs)
	}
	for i := 0; i < n; i++ {
		xs[i] = math.NaN()
	}
}
