// Package sim runs independent single-instrument backtests concurrently.
//
// Every ticker is one unit of work: its price history is loaded, a strategy
// turns it into orders, and a portfolio simulation values the result. Units
// never share state, so one failing ticker only marks its own result.
package sim

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/blacksburg98/finpy"
	"github.com/blacksburg98/finpy/date"
	"github.com/blacksburg98/finpy/marketdata"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Algo turns one instrument's price history into orders.
type Algo func(ctx context.Context, tick string, sessions []date.Date, frame *finpy.Frame) ([]finpy.Order, error)

// Result is the outcome of one backtest unit. When Err is set the other
// fields are zero.
type Result struct {
	RunID  string
	Ticker string

	ReturnRatio float64
	Sharpe      float64
	MaxDrawdown float64

	Err error
}

// Runner backtests a strategy over many tickers.
type Runner struct {
	// Provider serves the price history.
	Provider marketdata.Provider
	// Cash is the starting balance of every unit.
	Cash float64
	// MaxConcurrent bounds the number of units in flight; zero or less
	// means no bound.
	MaxConcurrent int
	// ExportDir, when set, receives one <RunID>.csv portfolio export per
	// completed unit.
	ExportDir string
}

// Run backtests every ticker over the trading sessions between from and to.
// Results are positionally aligned with tickers; per-unit failures land in
// Result.Err. The returned error is non-nil only when the run as a whole
// could not proceed or the context was cancelled.
func (r *Runner) Run(ctx context.Context, from, to date.Date, tickers []string, algo Algo) ([]Result, error) {
	sessions, err := date.TradingDays(from, to)
	if err != nil {
		return nil, err
	}
	frames, err := r.Provider.GetData(sessions, tickers, finpy.PriceFields())
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(tickers))
	g, ctx := errgroup.WithContext(ctx)
	if r.MaxConcurrent > 0 {
		g.SetLimit(r.MaxConcurrent)
	}
	for i, tick := range tickers {
		i, tick := i, tick
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = r.runOne(ctx, tick, sessions, frames[tick], algo)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// runOne executes a single backtest unit.
func (r *Runner) runOne(ctx context.Context, tick string, sessions []date.Date, frame *finpy.Frame, algo Algo) Result {
	res := Result{RunID: uuid.NewString(), Ticker: tick}

	orders, err := algo(ctx, tick, sessions, frame)
	if err != nil {
		res.Err = fmt.Errorf("%s: strategy: %w", tick, err)
		return res
	}
	p, err := finpy.New(map[string]*finpy.Frame{tick: frame}, r.Cash, sessions, orders)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", tick, err)
		return res
	}
	if err := p.Sim(); err != nil {
		res.Err = fmt.Errorf("%s: %w", tick, err)
		return res
	}

	res.ReturnRatio, _ = p.ReturnRatio("")
	res.Sharpe, _ = p.AnnualizedSharpe("")
	res.MaxDrawdown, _ = p.MaxDrawdown("")

	if r.ExportDir != "" {
		if err := export(p, filepath.Join(r.ExportDir, res.RunID+".csv")); err != nil {
			log.Printf("sim: export %s: %v", res.RunID, err)
		}
	}
	log.Printf("sim: %s %s return=%.4f", res.RunID, tick, res.ReturnRatio)
	return res
}

func export(p *finpy.Portfolio, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := p.WriteCSV(file, []finpy.Field{finpy.Close, finpy.Shares}, true, true); err != nil {
		return err
	}
	return file.Close()
}

// BuyAndHold is the reference strategy: buy the given number of shares at
// the first session's close and sell them at the last.
func BuyAndHold(shares float64) Algo {
	return func(ctx context.Context, tick string, sessions []date.Date, frame *finpy.Frame) ([]finpy.Order, error) {
		if len(sessions) < 2 {
			return nil, fmt.Errorf("need at least two sessions, got %d", len(sessions))
		}
		return []finpy.Order{
			finpy.MarketOrder(sessions[0], tick, finpy.Buy, shares),
			finpy.MarketOrder(sessions[len(sessions)-1], tick, finpy.Sell, shares),
		}, nil
	}
}
