package finpy

import (
	"fmt"
	"math"

	"github.com/blacksburg98/finpy/analytics"
)

// Equity is the per-instrument ledger of a portfolio: the price frame over
// the simulation sessions, an optional warmup frame of history strictly
// before them, and the shares, buy and sell columns owned by the simulation.
//
// The shares column is a sparse step function while orders are applied: a
// value is written only on sessions with a trade, and the gaps are
// forward-filled on demand. Buy and sell columns record traded quantities
// per session.
type Equity struct {
	ticker string
	frame  *Frame
	warmup *Frame

	shares []float64
	buys   []float64
	sells  []float64
}

// NewEquity returns an Equity over the given price frame, holding
// initialShares at the first session.
func NewEquity(ticker string, frame *Frame, initialShares float64) *Equity {
	n := frame.Len()
	e := &Equity{
		ticker: ticker,
		frame:  frame,
		shares: make([]float64, n),
		buys:   make([]float64, n),
		sells:  make([]float64, n),
	}
	for i := 1; i < n; i++ {
		e.shares[i] = math.NaN()
	}
	e.shares[0] = initialShares
	return e
}

// SetWarmup attaches pre-session history used by rolling statistics. The
// warmup frame must end strictly before the first simulation session.
func (e *Equity) SetWarmup(f *Frame) error {
	if f.Len() > 0 && !f.Day(f.Len()-1).Before(e.frame.Day(0)) {
		return fmt.Errorf("%s: warmup history overlaps the simulation window: %w", e.ticker, ErrConfig)
	}
	e.warmup = f
	return nil
}

// Ticker returns the instrument symbol.
func (e *Equity) Ticker() string { return e.ticker }

// Frame returns the price frame over the simulation sessions.
func (e *Equity) Frame() *Frame { return e.frame }

// Shares returns the shares column. Values between trades are NaN until
// filled.
func (e *Equity) Shares() []float64 { return e.shares }

// Column returns the values of any field, price or ledger.
func (e *Equity) Column(field Field) ([]float64, error) {
	switch field {
	case Shares:
		return e.shares, nil
	case BuyQty:
		return e.buys, nil
	case SellQty:
		return e.sells, nil
	default:
		return e.frame.Column(field)
	}
}

// FillShares forward-fills the shares column up to and including session i
// from the last session with a known position. With no prior known position
// the holding is zero.
func (e *Equity) FillShares(i int) {
	last := -1
	for j := i; j >= 0; j-- {
		if !math.IsNaN(e.shares[j]) {
			last = j
			break
		}
	}
	v, start := 0.0, 0
	if last >= 0 {
		v, start = e.shares[last], last
	}
	for j := start; j <= i; j++ {
		e.shares[j] = v
	}
}

// fillSharesRange overwrites shares over [start, end] with the value at
// start. Used by the portfolio-level fill, where start is known dense.
func (e *Equity) fillSharesRange(start, end int) {
	v := e.shares[start]
	for j := start; j <= end; j++ {
		e.shares[j] = v
	}
}

// Buy adds shares to the position at session i and returns the cost at the
// given price.
func (e *Equity) Buy(i int, shares, price float64) float64 {
	e.FillShares(i)
	e.buys[i] += shares
	e.shares[i] += shares
	return shares * price
}

// Sell removes shares from the position at session i and returns the
// proceeds at the given price. Short positions are allowed.
func (e *Equity) Sell(i int, shares, price float64) float64 {
	e.FillShares(i)
	e.sells[i] += shares
	e.shares[i] -= shares
	return shares * price
}

// merged returns warmup close history followed by the in-window close
// series, with the number of warmup points.
func (e *Equity) merged() (values []float64, preLen int) {
	if e.warmup == nil {
		return e.frame.Close(), 0
	}
	pre := e.warmup.Close()
	out := make([]float64, 0, len(pre)+e.frame.Len())
	out = append(out, pre...)
	out = append(out, e.frame.Close()...)
	return out, len(pre)
}

// DailyReturn returns the close-to-close daily return series.
func (e *Equity) DailyReturn() []float64 {
	return analytics.DailyReturn(e.frame.Close())
}

// Normalized returns the close series rescaled to start at 1.
func (e *Equity) Normalized() []float64 {
	return analytics.Normalized(e.frame.Close())
}

// ReturnRatio is the last close divided by the first.
func (e *Equity) ReturnRatio() float64 {
	c := e.frame.Close()
	return c[len(c)-1] / c[0]
}

// AvgDailyReturn is the mean of the daily return series.
func (e *Equity) AvgDailyReturn() float64 {
	return analytics.Mean(e.DailyReturn())
}

// Std is the population standard deviation of the daily returns.
func (e *Equity) Std() float64 {
	return analytics.Std(e.DailyReturn())
}

// AnnualizedSharpe is the annualized raw-return Sharpe ratio with k sessions
// per year.
func (e *Equity) AnnualizedSharpe(k float64) float64 {
	return analytics.AnnualizedSharpe(e.DailyReturn(), k)
}

// Sortino is the Sortino ratio with k sessions per year.
func (e *Equity) Sortino(k float64) float64 {
	return analytics.Sortino(e.DailyReturn(), k)
}

// MaxDrawdown is the largest peak-to-trough decline of the close series.
func (e *Equity) MaxDrawdown() float64 {
	return analytics.MaxDrawdown(e.frame.Close())
}

// Drawdown returns the trailing-window drawdown per session, using warmup
// history when attached.
func (e *Equity) Drawdown(window int) []float64 {
	values, preLen := e.merged()
	return analytics.Drawdown(values, preLen, window)
}

// MovingAverage returns the rolling mean of the close over window sessions.
// Without enough warmup history the leading values are NaN.
func (e *Equity) MovingAverage(window int) []float64 {
	values, preLen := e.merged()
	return analytics.MovingAverage(values, preLen, window)
}

// BollingerBand returns the Bollinger bands of the close with a band width
// of k standard deviations.
func (e *Equity) BollingerBand(window int, k float64) analytics.Bands {
	values, preLen := e.merged()
	return analytics.BollingerBand(values, preLen, window, k)
}

// RSI returns the 14-session Wilder relative strength index per session.
func (e *Equity) RSI() []float64 {
	values, preLen := e.merged()
	return analytics.RSI(values, preLen)
}

// MaxRise is the rise from the trailing-window minimum to the close at
// session i, as a fraction of that close.
func (e *Equity) MaxRise(i, window int) float64 {
	values, preLen := e.merged()
	return analytics.MaxRise(values, preLen+i, window)
}

// MaxFall is the trailing-window peak-to-trough span as a fraction of the
// close at session i.
func (e *Equity) MaxFall(i, window int) float64 {
	values, preLen := e.merged()
	return analytics.MaxFall(values, preLen+i, window)
}

// UpRatio is the fraction of up sessions over the trailing days ending at
// session i.
func (e *Equity) UpRatio(i, days int) float64 {
	values, preLen := e.merged()
	return analytics.UpRatio(values, preLen+i, days)
}

// DnRatio is the fraction of down sessions over the trailing days ending at
// session i.
func (e *Equity) DnRatio(i, days int) float64 {
	values, preLen := e.merged()
	return analytics.DnRatio(values, preLen+i, days)
}
