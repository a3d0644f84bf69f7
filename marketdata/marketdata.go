// Package marketdata loads price history for a set of instruments and
// repairs it for simulation.
//
// A Provider returns one price frame per ticker, aligned to the requested
// trading sessions. Degraded data never aborts a run: gaps are repaired by
// the fill policy and logged.
package marketdata

import (
	"fmt"
	"math"

	"github.com/blacksburg98/finpy"
	"github.com/blacksburg98/finpy/date"
)

// Provider serves aligned price frames.
type Provider interface {
	// GetData returns a frame per ticker, indexed by exactly the given
	// sessions, with the requested price fields filled.
	GetData(sessions []date.Date, tickers []string, fields []finpy.Field) (map[string]*finpy.Frame, error)
}

// Fill repairs the given price fields of a frame in place: missing values
// take the last prior observation, leading gaps take the first later one,
// and a field with no observation at all becomes 1.0 throughout. It returns
// the number of values that had to be repaired.
func Fill(f *finpy.Frame, fields []finpy.Field) (int, error) {
	repaired := 0
	for _, field := range fields {
		col, err := f.Column(field)
		if err != nil {
			return repaired, err
		}
		repaired += fillColumn(col)
	}
	return repaired, nil
}

func fillColumn(xs []float64) int {
	n := 0
	last := math.NaN()
	for i, v := range xs {
		if math.IsNaN(v) {
			if !math.IsNaN(last) {
				xs[i] = last
				n++
			}
		} else {
			last = v
		}
	}
	next := math.NaN()
	for i := len(xs) - 1; i >= 0; i-- {
		if math.IsNaN(xs[i]) {
			if !math.IsNaN(next) {
				xs[i] = next
				n++
			}
		} else {
			next = xs[i]
		}
	}
	for i, v := range xs {
		if math.IsNaN(v) {
			xs[i] = 1.0
			n++
		}
	}
	return n
}

// Static is an in-memory Provider backed by prepared frames, mostly for
// tests and examples.
type Static map[string]*finpy.Frame

// GetData returns the prepared frame for each ticker. The frames must be
// aligned to the requested sessions.
func (s Static) GetData(sessions []date.Date, tickers []string, fields []finpy.Field) (map[string]*finpy.Frame, error) {
	out := make(map[string]*finpy.Frame, len(tickers))
	for _, tick := range tickers {
		f, ok := s[tick]
		if !ok {
			return nil, fmt.Errorf("no prepared data for ticker %q", tick)
		}
		if !f.Aligned(sessions) {
			return nil, fmt.Errorf("prepared data for %q is not aligned to the requested sessions", tick)
		}
		out[tick] = f
	}
	return out, nil
}
