package finpy

import (
	"fmt"
	"io"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/blacksburg98/finpy/analytics"
	"github.com/blacksburg98/finpy/date"
)

// Summary condenses one simulation into the figures a backtest report
// prints.
type Summary struct {
	From, To date.Date

	Initial *money.Money
	Final   *money.Money

	ReturnRatio    float64
	AvgDailyReturn float64
	Std            float64
	Sharpe         float64
	Sortino        float64
	MaxDrawdown    float64
}

// Summary computes the report figures over the portfolio total. The
// portfolio must have been simulated so the total series is dense.
func (p *Portfolio) Summary() *Summary {
	total := p.total
	r := analytics.DailyReturn(total)
	return &Summary{
		From:           p.sessions[0],
		To:             p.sessions[len(p.sessions)-1],
		Initial:        moneyFromFloat(total[0]),
		Final:          moneyFromFloat(total[len(total)-1]),
		ReturnRatio:    total[len(total)-1] / total[0],
		AvgDailyReturn: analytics.Mean(r),
		Std:            analytics.Std(r),
		Sharpe:         analytics.AnnualizedSharpe(r, p.annual),
		Sortino:        analytics.Sortino(r, p.annual),
		MaxDrawdown:    analytics.MaxDrawdown(total),
	}
}

// Write renders the summary as a plain text report.
func (s *Summary) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Period          %s to %s\n"+
			"Initial value   %s\n"+
			"Final value     %s\n"+
			"Return ratio    %.4f\n"+
			"Avg daily ret   %.6f\n"+
			"Daily std       %.6f\n"+
			"Sharpe          %.4f\n"+
			"Sortino         %.4f\n"+
			"Max drawdown    %.2f%%\n",
		s.From, s.To,
		s.Initial.Display(), s.Final.Display(),
		s.ReturnRatio, s.AvgDailyReturn, s.Std,
		s.Sharpe, s.Sortino, 100*s.MaxDrawdown)
	return err
}

// moneyFromFloat rounds a dollar amount to cents.
func moneyFromFloat(v float64) *money.Money {
	return money.New(int64(math.Round(v*100)), money.USD)
}
