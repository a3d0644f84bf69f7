package finpy

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	p := buySellPortfolio(t)
	require.NoError(t, p.Sim())

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf, []Field{Close, Shares}, true, true))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, []string{"Date", "Total", "Cash", "AAPLclose", "AAPLshares"}, records[0])
	assert.Equal(t, []string{"2012-01-03", "1000000.00", "900000.00", "100.00", "1000.00"}, records[1])
	assert.Equal(t, []string{"2012-01-06", "1010000.00", "1010000.00", "110.00", "0.00"}, records[4])
}

func TestWriteCSVRoundsHalfUp(t *testing.T) {
	sessions := testSessions()
	frames := map[string]*Frame{
		"AAPL": testFrame(t, sessions, []float64{1.005, 2.004, 3.115, 4}),
	}
	p, err := New(frames, 0, sessions, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf, []Field{Close}, false, false))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "1.01", records[1][1])
	assert.Equal(t, "2.00", records[2][1])
	assert.Equal(t, "3.12", records[3][1])
}

func TestWriteCSVBlanksUnfilled(t *testing.T) {
	// Without a simulation run, cash past the first session is unknown.
	p := buySellPortfolio(t)

	var buf bytes.Buffer
	require.NoError(t, p.WriteCSV(&buf, nil, false, true))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "1000000.00", records[1][1])
	assert.Equal(t, "", records[2][1])
}

func TestOrderCSVRoundTrip(t *testing.T) {
	p := buySellPortfolio(t)

	var buf bytes.Buffer
	require.NoError(t, p.WriteOrderCSV(&buf))

	got, err := ReadOrders(&buf)
	require.NoError(t, err)
	want := p.Orders()
	require.Len(t, got, len(want))
	for i := range got {
		assert.Equal(t, want[i].Day, got[i].Day)
		assert.Equal(t, want[i].Ticker, got[i].Ticker)
		assert.Equal(t, want[i].Action, got[i].Action)
		assert.Equal(t, want[i].Shares, got[i].Shares)
		// Prices are not serialized: a reloaded order executes at close.
		assert.True(t, math.IsNaN(got[i].Price))
	}
}

func TestReadOrders(t *testing.T) {
	in := "2012-01-03,AAPL,Buy,1000\n2012-01-06,AAPL,sell,1000\n"
	orders, err := ReadOrders(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, Buy, orders[0].Action)
	assert.Equal(t, Sell, orders[1].Action)
	assert.Equal(t, 1000.0, orders[0].Shares)
	assert.Equal(t, "2012-01-06", orders[1].Day.String())
}

func TestReadOrdersRejectsGarbage(t *testing.T) {
	cases := []string{
		"2012-01-03,AAPL,Hold,1000\n",
		"2012-13-03,AAPL,Buy,1000\n",
		"2012-01-03,AAPL,Buy,lots\n",
	}
	for _, in := range cases {
		_, err := ReadOrders(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
}
