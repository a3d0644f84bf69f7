package finpy

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	p := buySellPortfolio(t)
	require.NoError(t, p.Sim())

	s := p.Summary()
	assert.Equal(t, "2012-01-03", s.From.String())
	assert.Equal(t, "2012-01-06", s.To.String())
	assert.Equal(t, "$1,000,000.00", s.Initial.Display())
	assert.Equal(t, "$1,010,000.00", s.Final.Display())
	assert.InDelta(t, 1.01, s.ReturnRatio, tolerance)
	// One losing session out of three: 995000/1005000 - 1.
	assert.InDelta(t, 10_000.0/1_005_000.0, s.MaxDrawdown, tolerance)
}

func TestSummaryWrite(t *testing.T) {
	p := buySellPortfolio(t)
	require.NoError(t, p.Sim())

	var buf bytes.Buffer
	require.NoError(t, p.Summary().Write(&buf))

	out := buf.String()
	assert.Contains(t, out, "2012-01-03 to 2012-01-06")
	assert.Contains(t, out, "$1,010,000.00")
	assert.Contains(t, out, "Return ratio    1.0100")
}
