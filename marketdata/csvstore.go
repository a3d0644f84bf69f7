package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blacksburg98/finpy"
	"github.com/blacksburg98/finpy/date"
)

// CSVStore serves price frames from a directory of per-ticker history files
// in the usual Yahoo export layout:
//
//	Date,Open,High,Low,Close,Volume,Adj Close
//
// The Close field of the returned frames carries the adjusted close, and
// ActualClose the unadjusted one. Parsed files are cached in memory for the
// configured TTL.
//
// A missing or unreadable file degrades to an all-1.0 frame rather than
// failing the run; the condition is logged.
type CSVStore struct {
	cfg Config

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	rows     map[date.Date]bar
	loadedAt time.Time
}

type bar struct {
	open, high, low, close, volume, adjClose float64
}

// NewCSVStore returns a store reading from cfg.RootDir.
func NewCSVStore(cfg Config) *CSVStore {
	return &CSVStore{cfg: cfg, cache: make(map[string]cacheEntry)}
}

// GetData implements Provider.
func (s *CSVStore) GetData(sessions []date.Date, tickers []string, fields []finpy.Field) (map[string]*finpy.Frame, error) {
	for _, field := range fields {
		if !field.IsPrice() {
			return nil, fmt.Errorf("store serves price fields only, not %s", field)
		}
	}
	out := make(map[string]*finpy.Frame, len(tickers))
	for _, tick := range tickers {
		f, err := finpy.NewFrame(sessions)
		if err != nil {
			return nil, err
		}
		rows, err := s.load(tick)
		if err != nil {
			log.Printf("marketdata: no history for %s, serving constant prices: %v", tick, err)
		}
		for i, day := range sessions {
			b, ok := rows[day]
			if !ok {
				continue
			}
			for _, field := range fields {
				f.Set(field, i, b.value(field))
			}
		}
		repaired, err := Fill(f, fields)
		if err != nil {
			return nil, err
		}
		if repaired > 0 {
			log.Printf("marketdata: repaired %d missing values for %s", repaired, tick)
		}
		out[tick] = f
	}
	return out, nil
}

func (b bar) value(field finpy.Field) float64 {
	switch field {
	case finpy.Open:
		return b.open
	case finpy.High:
		return b.high
	case finpy.Low:
		return b.low
	case finpy.Close:
		return b.adjClose
	case finpy.Volume:
		return b.volume
	case finpy.ActualClose:
		return b.close
	}
	return 0
}

// load returns the parsed history of one ticker, from cache when fresh.
func (s *CSVStore) load(tick string) (map[date.Date]bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.cache[tick]; ok && time.Since(e.loadedAt) < s.cfg.CacheTTL {
		return e.rows, nil
	}

	path := filepath.Join(s.cfg.RootDir, tick+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	rows, err := parseHistory(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.cache[tick] = cacheEntry{rows: rows, loadedAt: time.Now()}
	return rows, nil
}

// parseHistory reads a Yahoo history CSV. Column order follows the header;
// rows with unparsable values are skipped and logged.
func parseHistory(r io.Reader) (map[date.Date]bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"date", "close", "adj close"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	rows := make(map[date.Date]bar)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		day, err := date.Parse(rec[col["date"]])
		if err != nil {
			log.Printf("marketdata: skipping row with bad date %q", rec[col["date"]])
			continue
		}
		b, err := parseBar(rec, col)
		if err != nil {
			log.Printf("marketdata: skipping %s: %v", day, err)
			continue
		}
		rows[day] = b
	}
	return rows, nil
}

func parseBar(rec []string, col map[string]int) (bar, error) {
	get := func(name string) (float64, error) {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return 0, fmt.Errorf("missing %s", name)
		}
		return strconv.ParseFloat(rec[i], 64)
	}
	var b bar
	var err error
	if b.open, err = get("open"); err != nil {
		return b, err
	}
	if b.high, err = get("high"); err != nil {
		return b, err
	}
	if b.low, err = get("low"); err != nil {
		return b, err
	}
	if b.close, err = get("close"); err != nil {
		return b, err
	}
	if b.volume, err = get("volume"); err != nil {
		return b, err
	}
	if b.adjClose, err = get("adj close"); err != nil {
		return b, err
	}
	return b, nil
}
