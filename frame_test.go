package finpy

import (
	"errors"
	"math"
	"testing"

	"github.com/blacksburg98/finpy/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrameStartsUnobserved(t *testing.T) {
	f, err := NewFrame(testSessions())
	require.NoError(t, err)
	for _, field := range PriceFields() {
		col, err := f.Column(field)
		require.NoError(t, err)
		for i, v := range col {
			assert.True(t, math.IsNaN(v), "%s[%d]", field, i)
		}
	}
}

func TestNewFrameRejectsBadIndex(t *testing.T) {
	_, err := NewFrame(nil)
	assert.True(t, errors.Is(err, ErrConfig))

	days := []date.Date{date.New(2012, 1, 4), date.New(2012, 1, 3)}
	_, err = NewFrame(days)
	assert.True(t, errors.Is(err, ErrConfig))

	days = []date.Date{date.New(2012, 1, 3), date.New(2012, 1, 3)}
	_, err = NewFrame(days)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestFrameIndex(t *testing.T) {
	f, err := NewFrame(testSessions())
	require.NoError(t, err)

	i, ok := f.Index(date.New(2012, 1, 5))
	require.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = f.Index(date.New(2012, 1, 7))
	assert.False(t, ok)
}

func TestFrameRejectsLedgerFields(t *testing.T) {
	f, err := NewFrame(testSessions())
	require.NoError(t, err)

	_, err = f.Column(Shares)
	assert.Error(t, err)
	assert.Error(t, f.SetColumn(BuyQty, []float64{0, 0, 0, 0}))
}

func TestParseField(t *testing.T) {
	for _, field := range []Field{Open, High, Low, Close, Volume, ActualClose, BuyQty, SellQty, Shares} {
		got, err := ParseField(field.String())
		require.NoError(t, err)
		assert.Equal(t, field, got)
	}
	_, err := ParseField("vwap")
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for _, in := range []string{"Buy", "buy", "BUY"} {
		a, err := ParseAction(in)
		require.NoError(t, err)
		assert.Equal(t, Buy, a)
	}
	a, err := ParseAction("Sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, a)
	_, err = ParseAction("hold")
	assert.Error(t, err)
}
