package finpy

import (
	"fmt"
	"math"
	"sort"

	"github.com/blacksburg98/finpy/date"
)

// Frame is a dense table of price fields indexed by trading session. Every
// price field has one value per session, NaN when the market data provider
// has no observation.
//
// The session index is strictly increasing, checked at construction.
type Frame struct {
	days []date.Date
	cols [numPriceFields][]float64
}

// NewFrame returns a Frame over the given sessions with every value NaN.
func NewFrame(days []date.Date) (*Frame, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("empty session index: %w", ErrConfig)
	}
	for i := 1; i < len(days); i++ {
		if !days[i-1].Before(days[i]) {
			return nil, fmt.Errorf("session index not strictly increasing at %s: %w", days[i], ErrConfig)
		}
	}
	f := &Frame{days: append([]date.Date(nil), days...)}
	for c := range f.cols {
		col := make([]float64, len(days))
		for i := range col {
			col[i] = math.NaN()
		}
		f.cols[c] = col
	}
	return f, nil
}

// Len returns the number of sessions.
func (f *Frame) Len() int { return len(f.days) }

// Days returns the session index. The caller must not mutate it.
func (f *Frame) Days() []date.Date { return f.days }

// Day returns the date of session i.
func (f *Frame) Day(i int) date.Date { return f.days[i] }

// Index returns the position of day in the session index.
func (f *Frame) Index(day date.Date) (int, bool) {
	i := sort.Search(len(f.days), func(i int) bool { return !f.days[i].Before(day) })
	if i < len(f.days) && f.days[i] == day {
		return i, true
	}
	return 0, false
}

// Column returns the values of a price field. The slice is the Frame's own
// storage.
func (f *Frame) Column(field Field) ([]float64, error) {
	if !field.IsPrice() {
		return nil, fmt.Errorf("field %s is not a price field", field)
	}
	return f.cols[field], nil
}

// Close returns the close column.
func (f *Frame) Close() []float64 { return f.cols[Close] }

// At returns the value of a price field at session i.
func (f *Frame) At(field Field, i int) float64 { return f.cols[field][i] }

// Set stores a value for a price field at session i.
func (f *Frame) Set(field Field, i int, v float64) { f.cols[field][i] = v }

// SetColumn replaces the values of a price field. The length must match the
// session index.
func (f *Frame) SetColumn(field Field, values []float64) error {
	if !field.IsPrice() {
		return fmt.Errorf("field %s is not a price field", field)
	}
	if len(values) != len(f.days) {
		return fmt.Errorf("column length %d does not match %d sessions", len(values), len(f.days))
	}
	copy(f.cols[field], values)
	return nil
}

// Aligned reports whether the Frame is indexed by exactly the given sessions.
func (f *Frame) Aligned(days []date.Date) bool {
	if len(f.days) != len(days) {
		return false
	}
	for i := range days {
		if f.days[i] != days[i] {
			return false
		}
	}
	return true
}
