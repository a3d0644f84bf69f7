package marketdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blacksburg98/finpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appleHistory = `Date,Open,High,Low,Close,Volume,Adj Close
2012-01-06,101,112,99,110,1200,55
2012-01-04,101,106,100,105,1100,52.5
2012-01-03,99,101,98,100,1000,50
`

func writeHistory(t *testing.T, dir, tick, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, tick+".csv"), []byte(body), 0o644))
}

func testStore(t *testing.T) *CSVStore {
	t.Helper()
	dir := t.TempDir()
	writeHistory(t, dir, "AAPL", appleHistory)
	return NewCSVStore(Config{RootDir: dir, CacheTTL: time.Hour})
}

func TestCSVStoreGetData(t *testing.T) {
	s := testStore(t)
	frames, err := s.GetData(testSessions(), []string{"AAPL"}, finpy.PriceFields())
	require.NoError(t, err)

	f := frames["AAPL"]
	require.NotNil(t, f)
	// Close carries the adjusted close, ActualClose the published one.
	assert.Equal(t, 50.0, f.At(finpy.Close, 0))
	assert.Equal(t, 100.0, f.At(finpy.ActualClose, 0))
	assert.Equal(t, 1000.0, f.At(finpy.Volume, 0))

	// 2012-01-05 is absent from the file: forward-filled from the 4th.
	assert.Equal(t, 52.5, f.At(finpy.Close, 2))
	assert.Equal(t, 105.0, f.At(finpy.ActualClose, 2))

	assert.Equal(t, 55.0, f.At(finpy.Close, 3))
}

func TestCSVStoreMissingTickerDegrades(t *testing.T) {
	s := testStore(t)
	frames, err := s.GetData(testSessions(), []string{"GOOG"}, finpy.PriceFields())
	require.NoError(t, err, "a missing file must degrade, not fail")
	assert.Equal(t, []float64{1, 1, 1, 1}, frames["GOOG"].Close())
}

func TestCSVStoreSkipsBadRows(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, "AAPL", strings.Join([]string{
		"Date,Open,High,Low,Close,Volume,Adj Close",
		"2012-01-03,99,101,98,100,1000,50",
		"not-a-date,1,1,1,1,1,1",
		"2012-01-04,101,106,100,broken,1100,52.5",
		"",
	}, "\n"))
	s := NewCSVStore(Config{RootDir: dir, CacheTTL: time.Hour})

	frames, err := s.GetData(testSessions(), []string{"AAPL"}, []finpy.Field{finpy.Close})
	require.NoError(t, err)
	// Only the first row survives; everything else is repaired from it.
	assert.Equal(t, []float64{50, 50, 50, 50}, frames["AAPL"].Close())
}

func TestCSVStoreRejectsUnknownLayout(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, "AAPL", "Timestamp,Price\n2012-01-03,50\n")
	s := NewCSVStore(Config{RootDir: dir, CacheTTL: time.Hour})

	frames, err := s.GetData(testSessions(), []string{"AAPL"}, []finpy.Field{finpy.Close})
	require.NoError(t, err)
	// Unusable layout degrades like a missing file.
	assert.Equal(t, []float64{1, 1, 1, 1}, frames["AAPL"].Close())
}

func TestCSVStoreCachesWithinTTL(t *testing.T) {
	dir := t.TempDir()
	writeHistory(t, dir, "AAPL", appleHistory)
	s := NewCSVStore(Config{RootDir: dir, CacheTTL: time.Hour})

	_, err := s.GetData(testSessions(), []string{"AAPL"}, []finpy.Field{finpy.Close})
	require.NoError(t, err)

	// Rewriting the file is invisible while the cache entry is fresh.
	writeHistory(t, dir, "AAPL", "Date,Open,High,Low,Close,Volume,Adj Close\n2012-01-03,1,1,1,1,1,999\n")
	frames, err := s.GetData(testSessions(), []string{"AAPL"}, []finpy.Field{finpy.Close})
	require.NoError(t, err)
	assert.Equal(t, 50.0, frames["AAPL"].At(finpy.Close, 0))

	// An expired entry is re-read.
	s.cache["AAPL"] = cacheEntry{rows: s.cache["AAPL"].rows, loadedAt: time.Now().Add(-2 * time.Hour)}
	frames, err = s.GetData(testSessions(), []string{"AAPL"}, []finpy.Field{finpy.Close})
	require.NoError(t, err)
	assert.Equal(t, 999.0, frames["AAPL"].At(finpy.Close, 0))
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.RootDir)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.NotEmpty(t, cfg.ScratchDir)

	t.Setenv("FINPY_ROOT_DIR", "/srv/history")
	t.Setenv("FINPY_CACHE_TTL", "30m")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/history", cfg.RootDir)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "finpy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root_dir: /var/data\ncache_ttl: 1h\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/data", cfg.RootDir)
	assert.Equal(t, time.Hour, cfg.CacheTTL)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
