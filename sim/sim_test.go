package sim

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/blacksburg98/finpy"
	"github.com/blacksburg98/finpy/date"
	"github.com/blacksburg98/finpy/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	simFrom = date.New(2012, 1, 3)
	simTo   = date.New(2012, 1, 6)
)

func testProvider(t *testing.T) marketdata.Static {
	t.Helper()
	sessions, err := date.TradingDays(simFrom, simTo)
	require.NoError(t, err)
	require.Len(t, sessions, 4)

	mk := func(closes []float64) *finpy.Frame {
		f, err := finpy.NewFrame(sessions)
		require.NoError(t, err)
		require.NoError(t, f.SetColumn(finpy.Close, closes))
		require.NoError(t, f.SetColumn(finpy.ActualClose, closes))
		_, err = marketdata.Fill(f, finpy.PriceFields())
		require.NoError(t, err)
		return f
	}
	return marketdata.Static{
		"AAPL": mk([]float64{100, 105, 95, 110}),
		"GOOG": mk([]float64{200, 210, 190, 220}),
	}
}

func TestRunBuyAndHold(t *testing.T) {
	r := &Runner{Provider: testProvider(t), Cash: 1_000_000, MaxConcurrent: 2}
	results, err := r.Run(context.Background(), simFrom, simTo, []string{"AAPL", "GOOG"}, BuyAndHold(1000))
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "AAPL", results[0].Ticker)
	assert.Equal(t, "GOOG", results[1].Ticker)
	assert.InDelta(t, 1.01, results[0].ReturnRatio, 1e-6)
	assert.InDelta(t, 1.02, results[1].ReturnRatio, 1e-6)

	assert.NotEmpty(t, results[0].RunID)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestRunSerialMatchesConcurrent(t *testing.T) {
	concurrent := &Runner{Provider: testProvider(t), Cash: 1_000_000}
	serial := &Runner{Provider: testProvider(t), Cash: 1_000_000, MaxConcurrent: 1}

	a, err := concurrent.Run(context.Background(), simFrom, simTo, []string{"AAPL", "GOOG"}, BuyAndHold(10))
	require.NoError(t, err)
	b, err := serial.Run(context.Background(), simFrom, simTo, []string{"AAPL", "GOOG"}, BuyAndHold(10))
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i].Ticker, b[i].Ticker)
		assert.InDelta(t, a[i].ReturnRatio, b[i].ReturnRatio, 1e-9)
	}
}

func TestRunIsolatesUnitFailures(t *testing.T) {
	algo := func(ctx context.Context, tick string, sessions []date.Date, frame *finpy.Frame) ([]finpy.Order, error) {
		if tick == "GOOG" {
			return nil, errors.New("no signal")
		}
		return BuyAndHold(100)(ctx, tick, sessions, frame)
	}

	r := &Runner{Provider: testProvider(t), Cash: 100_000}
	results, err := r.Run(context.Background(), simFrom, simTo, []string{"AAPL", "GOOG"}, algo)
	require.NoError(t, err, "one bad unit must not fail the run")

	assert.NoError(t, results[0].Err)
	assert.InDelta(t, 1.01, results[0].ReturnRatio, 1e-6)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "GOOG")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Provider: testProvider(t), Cash: 100_000, MaxConcurrent: 1}
	_, err := r.Run(ctx, simFrom, simTo, []string{"AAPL", "GOOG"}, BuyAndHold(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunExports(t *testing.T) {
	dir := t.TempDir()
	r := &Runner{Provider: testProvider(t), Cash: 100_000, ExportDir: dir}
	results, err := r.Run(context.Background(), simFrom, simTo, []string{"AAPL"}, BuyAndHold(10))
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	body, err := os.ReadFile(filepath.Join(dir, results[0].RunID+".csv"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "Date,Total,Cash,AAPLclose,AAPLshares")
	assert.Contains(t, string(body), "2012-01-03")
}

func TestRunBadCalendar(t *testing.T) {
	r := &Runner{Provider: testProvider(t), Cash: 100_000}
	_, err := r.Run(context.Background(), simTo, simFrom, []string{"AAPL"}, BuyAndHold(1))
	assert.Error(t, err)
}

func TestBuyAndHoldNeedsTwoSessions(t *testing.T) {
	sessions, err := date.TradingDays(simFrom, simFrom)
	require.NoError(t, err)
	_, err = BuyAndHold(1)(context.Background(), "AAPL", sessions, nil)
	assert.Error(t, err)
}
