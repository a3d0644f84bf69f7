package finpy

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"

	"github.com/blacksburg98/finpy/analytics"
	"github.com/blacksburg98/finpy/date"
)

// DefaultTradingDaysPerYear is the annualization factor for daily series.
const DefaultTradingDaysPerYear = 252

// Portfolio simulates a cash account trading a set of instruments over a
// fixed trading calendar.
//
// Cash and total are sparse while orders are applied: values exist at the
// first session and at every session touched by a trade, and the gaps are
// forward-filled on demand. After Sim both series are dense and the
// conservation invariant holds at every session:
//
//	total[t] == cash[t] + sum over instruments of shares[t]*close[t]
type Portfolio struct {
	sessions []date.Date
	equities map[string]*Equity
	tickers  []string
	orders   []Order

	cash  []float64
	total []float64

	annual float64
}

// Option configures a Portfolio at construction.
type Option func(*Portfolio) error

// WithWarmup attaches pre-session price history to one instrument, for
// rolling statistics that need a full window behind the first session.
func WithWarmup(tick string, f *Frame) Option {
	return func(p *Portfolio) error {
		e, ok := p.equities[tick]
		if !ok {
			return fmt.Errorf("warmup history for unknown ticker %q: %w", tick, ErrConfig)
		}
		return e.SetWarmup(f)
	}
}

// WithInitialShares seeds a non-zero position at the first session.
func WithInitialShares(tick string, shares float64) Option {
	return func(p *Portfolio) error {
		e, ok := p.equities[tick]
		if !ok {
			return fmt.Errorf("initial shares for unknown ticker %q: %w", tick, ErrConfig)
		}
		e.shares[0] = shares
		return nil
	}
}

// WithTradingDaysPerYear overrides the annualization factor.
func WithTradingDaysPerYear(k float64) Option {
	return func(p *Portfolio) error {
		if k <= 0 {
			return fmt.Errorf("trading days per year must be positive, got %v: %w", k, ErrConfig)
		}
		p.annual = k
		return nil
	}
}

// New builds a Portfolio over the given sessions, holding cash and the
// instruments described by frames. Every frame must be aligned to the
// session index.
//
// Orders are bound to the portfolio now: they are stable-sorted by date, and
// any order without an explicit price is priced at the close of its session,
// exactly once. An order referencing an unknown ticker or a date off the
// calendar is a configuration error.
func New(frames map[string]*Frame, cash float64, sessions []date.Date, orders []Order, opts ...Option) (*Portfolio, error) {
	if len(sessions) == 0 {
		return nil, fmt.Errorf("empty trading calendar: %w", ErrConfig)
	}
	for i := 1; i < len(sessions); i++ {
		if !sessions[i-1].Before(sessions[i]) {
			return nil, fmt.Errorf("trading calendar not strictly increasing at %s: %w", sessions[i], ErrConfig)
		}
	}

	p := &Portfolio{
		sessions: append([]date.Date(nil), sessions...),
		equities: make(map[string]*Equity, len(frames)),
		cash:     make([]float64, len(sessions)),
		total:    make([]float64, len(sessions)),
		annual:   DefaultTradingDaysPerYear,
	}
	for tick, f := range frames {
		if !f.Aligned(sessions) {
			return nil, fmt.Errorf("%s: price frame not aligned to the trading calendar: %w", tick, ErrConfig)
		}
		p.equities[tick] = NewEquity(tick, f, 0)
		p.tickers = append(p.tickers, tick)
	}
	sort.Strings(p.tickers)

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.orders = append([]Order(nil), orders...)
	sortOrders(p.orders)
	for i := range p.orders {
		if err := p.resolve(&p.orders[i]); err != nil {
			return nil, err
		}
	}

	for i := range p.cash {
		p.cash[i] = math.NaN()
		p.total[i] = math.NaN()
	}
	p.cash[0] = cash
	p.total[0] = p.dailySum(0)
	return p, nil
}

// resolve validates an order and prices it at the close of its session when
// no explicit price was given.
func (p *Portfolio) resolve(o *Order) error {
	e, ok := p.equities[o.Ticker]
	if !ok {
		return fmt.Errorf("order references unknown ticker %q: %w", o.Ticker, ErrConfig)
	}
	i, err := p.sessionIndex(o.Day)
	if err != nil {
		return err
	}
	if o.Shares <= 0 || math.IsNaN(o.Shares) {
		return fmt.Errorf("order for %s has non-positive size %v: %w", o.Ticker, o.Shares, ErrConfig)
	}
	if math.IsNaN(o.Price) || o.Price <= 0 {
		o.Price = e.frame.At(Close, i)
	}
	return nil
}

func (p *Portfolio) sessionIndex(day date.Date) (int, error) {
	i := sort.Search(len(p.sessions), func(i int) bool { return !p.sessions[i].Before(day) })
	if i < len(p.sessions) && p.sessions[i] == day {
		return i, nil
	}
	return 0, fmt.Errorf("%s is not a trading session of this portfolio: %w", day, ErrConfig)
}

// Sessions returns the trading calendar.
func (p *Portfolio) Sessions() []date.Date { return p.sessions }

// Tickers returns the instrument symbols in lexical order.
func (p *Portfolio) Tickers() []string { return p.tickers }

// Equity returns the ledger of one instrument.
func (p *Portfolio) Equity(tick string) (*Equity, bool) {
	e, ok := p.equities[tick]
	return e, ok
}

// Cash returns the cash series. Values between trades are NaN until filled.
func (p *Portfolio) Cash() []float64 { return p.cash }

// Total returns the portfolio value series.
func (p *Portfolio) Total() []float64 { return p.total }

// Orders returns the bound orders, sorted by date.
func (p *Portfolio) Orders() []Order { return append([]Order(nil), p.orders...) }

// dailySum values the portfolio at session i: cash plus shares times close
// per instrument, skipping instruments without an observation.
func (p *Portfolio) dailySum(i int) float64 {
	sum := p.cash[i]
	if math.IsNaN(sum) {
		sum = 0
	}
	for _, tick := range p.tickers {
		e := p.equities[tick]
		if v := e.shares[i] * e.frame.At(Close, i); !math.IsNaN(v) {
			sum += v
		}
	}
	return sum
}

// DailySum returns the portfolio value at one session, forward-filling cash
// and positions up to it first.
func (p *Portfolio) DailySum(day date.Date) (float64, error) {
	i, err := p.sessionIndex(day)
	if err != nil {
		return 0, err
	}
	p.fill(i)
	return p.dailySum(i), nil
}

// fillCash forward-fills the cash series up to and including session end
// from its last known value, returning the index that value sits at.
func (p *Portfolio) fillCash(end int) int {
	start := end
	for start > 0 && math.IsNaN(p.cash[start]) {
		start--
	}
	for j := start + 1; j <= end; j++ {
		p.cash[j] = p.cash[start]
	}
	return start
}

// fill forward-fills cash and every position up to session end. Cash is
// written at every trade, so its last known session is never earlier than
// any position's.
func (p *Portfolio) fill(end int) int {
	start := p.fillCash(end)
	for _, tick := range p.tickers {
		p.equities[tick].fillSharesRange(start, end)
	}
	return start
}

// Fill forward-fills cash and every position up to the given session.
func (p *Portfolio) Fill(day date.Date) error {
	i, err := p.sessionIndex(day)
	if err != nil {
		return err
	}
	p.fill(i)
	return nil
}

// calTotal fills state up to session i and recomputes the total over the
// filled range.
func (p *Portfolio) calTotal(i int) {
	start := p.fill(i)
	for j := start; j <= i; j++ {
		p.total[j] = p.dailySum(j)
	}
}

// CalTotal forward-fills cash and positions up to the given session and
// recomputes the portfolio value over the filled range.
func (p *Portfolio) CalTotal(day date.Date) error {
	i, err := p.sessionIndex(day)
	if err != nil {
		return err
	}
	p.calTotal(i)
	return nil
}

// Buy purchases shares of tick at the given price on the given session.
// State up to that session is filled first, then cash is debited and the
// total revalued. With record set the trade is appended to the order log.
func (p *Portfolio) Buy(tick string, day date.Date, shares, price float64, record bool) error {
	i, err := p.sessionIndex(day)
	if err != nil {
		return err
	}
	e, ok := p.equities[tick]
	if !ok {
		return fmt.Errorf("buy references unknown ticker %q: %w", tick, ErrConfig)
	}
	p.calTotal(i)
	p.cash[i] -= e.Buy(i, shares, price)
	p.total[i] = p.dailySum(i)
	if record {
		p.orders = append(p.orders, NewOrder(day, tick, Buy, shares, price))
		log.Printf("buy %v %s at %v on %s", shares, tick, price, day)
	}
	return nil
}

// Sell disposes shares of tick at the given price on the given session,
// crediting the proceeds to cash. Selling more than the position held opens
// a short.
func (p *Portfolio) Sell(tick string, day date.Date, shares, price float64, record bool) error {
	i, err := p.sessionIndex(day)
	if err != nil {
		return err
	}
	e, ok := p.equities[tick]
	if !ok {
		return fmt.Errorf("sell references unknown ticker %q: %w", tick, ErrConfig)
	}
	p.calTotal(i)
	p.cash[i] += e.Sell(i, shares, price)
	p.total[i] = p.dailySum(i)
	if record {
		p.orders = append(p.orders, NewOrder(day, tick, Sell, shares, price))
		log.Printf("sell %v %s at %v on %s", shares, tick, price, day)
	}
	return nil
}

// PutOrders applies every bound order in date order.
func (p *Portfolio) PutOrders() error {
	for _, o := range p.orders {
		var err error
		switch o.Action {
		case Buy:
			err = p.Buy(o.Ticker, o.Day, o.Shares, o.Price, false)
		case Sell:
			err = p.Sell(o.Ticker, o.Day, o.Shares, o.Price, false)
		default:
			err = fmt.Errorf("order for %s has unknown action %v: %w", o.Ticker, o.Action, ErrConfig)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Sim runs the simulation: every bound order is applied, then cash,
// positions and totals are filled through the last session. Afterwards all
// three series are dense.
func (p *Portfolio) Sim() error {
	if err := p.PutOrders(); err != nil {
		return err
	}
	p.calTotal(len(p.sessions) - 1)
	return nil
}

// series resolves a selector: the empty string means the portfolio total,
// anything else the close series of that instrument.
func (p *Portfolio) series(tick string) ([]float64, error) {
	if tick == "" {
		return p.total, nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.frame.Close(), nil
}

// riskFree converts the close series of a rate instrument, quoted as an
// annual percentage, to a daily rate.
func (p *Portfolio) riskFree(tick string) ([]float64, error) {
	values, err := p.series(tick)
	if err != nil {
		return nil, err
	}
	rf := make([]float64, len(values))
	for i, v := range values {
		rf[i] = v / 100 / 365
	}
	return rf, nil
}

// DailyReturn returns the daily return series of the selected series; the
// empty selector means the portfolio total.
func (p *Portfolio) DailyReturn(tick string) ([]float64, error) {
	values, err := p.series(tick)
	if err != nil {
		return nil, err
	}
	return analytics.DailyReturn(values), nil
}

// AvgDailyReturn is the mean daily return of the selected series.
func (p *Portfolio) AvgDailyReturn(tick string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	return analytics.Mean(r), nil
}

// Std is the population standard deviation of the daily returns.
func (p *Portfolio) Std(tick string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	return analytics.Std(r), nil
}

// Normalized rescales the selected series to start at 1.
func (p *Portfolio) Normalized(tick string) ([]float64, error) {
	values, err := p.series(tick)
	if err != nil {
		return nil, err
	}
	return analytics.Normalized(values), nil
}

// ReturnRatio is the final value of the selected series divided by its
// initial value.
func (p *Portfolio) ReturnRatio(tick string) (float64, error) {
	values, err := p.series(tick)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1] / values[0], nil
}

// AnnualizedSharpe is the annualized raw-return Sharpe ratio of the selected
// series.
func (p *Portfolio) AnnualizedSharpe(tick string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	return analytics.AnnualizedSharpe(r, p.annual), nil
}

// SharpeRatio is the excess-return Sharpe ratio of the selected series
// against a risk-free rate instrument.
func (p *Portfolio) SharpeRatio(tick, rfTick string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	rf, err := p.riskFree(rfTick)
	if err != nil {
		return 0, err
	}
	return analytics.SharpeRatio(r, rf), nil
}

// Sortino is the Sortino ratio of the selected series.
func (p *Portfolio) Sortino(tick string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	return analytics.Sortino(r, p.annual), nil
}

// ExcessReturn is the daily return of the selected series minus the daily
// risk-free rate.
func (p *Portfolio) ExcessReturn(tick, rfTick string) ([]float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return nil, err
	}
	rf, err := p.riskFree(rfTick)
	if err != nil {
		return nil, err
	}
	return analytics.ExcessReturn(r, rf), nil
}

// ExcessRisk is the standard deviation of the excess return.
func (p *Portfolio) ExcessRisk(tick, rfTick string) (float64, error) {
	excess, err := p.ExcessReturn(tick, rfTick)
	if err != nil {
		return 0, err
	}
	return analytics.Std(excess), nil
}

// ActiveReturn is the daily return of the selected series minus the
// benchmark's.
func (p *Portfolio) ActiveReturn(tick, benchmark string) ([]float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return nil, err
	}
	b, err := p.DailyReturn(benchmark)
	if err != nil {
		return nil, err
	}
	return analytics.ActiveReturn(r, b), nil
}

// ActiveRisk is the standard deviation of the active return.
func (p *Portfolio) ActiveRisk(tick, benchmark string) (float64, error) {
	active, err := p.ActiveReturn(tick, benchmark)
	if err != nil {
		return 0, err
	}
	return analytics.Std(active), nil
}

// InfoRatio is the mean active return divided by the active risk.
func (p *Portfolio) InfoRatio(tick, benchmark string) (float64, error) {
	active, err := p.ActiveReturn(tick, benchmark)
	if err != nil {
		return 0, err
	}
	return analytics.Mean(active) / analytics.Std(active), nil
}

// Beta regresses the selected series against a benchmark instrument.
func (p *Portfolio) Beta(tick, benchmark string) (float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, err
	}
	b, err := p.DailyReturn(benchmark)
	if err != nil {
		return 0, err
	}
	return analytics.Beta(b, r), nil
}

// BetaAlpha fits the selected series against a benchmark by least squares
// and returns the slope and intercept.
func (p *Portfolio) BetaAlpha(tick, benchmark string) (beta, alpha float64, err error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return 0, 0, err
	}
	b, err := p.DailyReturn(benchmark)
	if err != nil {
		return 0, 0, err
	}
	beta, alpha = analytics.BetaAlpha(b, r)
	return beta, alpha, nil
}

// ResidualReturn is the excess return of the selected series minus beta
// times the benchmark's excess return.
func (p *Portfolio) ResidualReturn(tick, benchmark, rfTick string) ([]float64, error) {
	r, err := p.DailyReturn(tick)
	if err != nil {
		return nil, err
	}
	b, err := p.DailyReturn(benchmark)
	if err != nil {
		return nil, err
	}
	rf, err := p.riskFree(rfTick)
	if err != nil {
		return nil, err
	}
	return analytics.ResidualReturn(r, b, rf), nil
}

// ResidualRisk is the standard deviation of the residual return.
func (p *Portfolio) ResidualRisk(tick, benchmark, rfTick string) (float64, error) {
	residual, err := p.ResidualReturn(tick, benchmark, rfTick)
	if err != nil {
		return 0, err
	}
	return analytics.Std(residual), nil
}

// AppraisalRatio is the mean residual return divided by the residual risk.
func (p *Portfolio) AppraisalRatio(tick, benchmark, rfTick string) (float64, error) {
	residual, err := p.ResidualReturn(tick, benchmark, rfTick)
	if err != nil {
		return 0, err
	}
	return analytics.Mean(residual) / analytics.Std(residual), nil
}

// MaxDrawdown is the largest peak-to-trough decline of the selected series.
func (p *Portfolio) MaxDrawdown(tick string) (float64, error) {
	values, err := p.series(tick)
	if err != nil {
		return 0, err
	}
	return analytics.MaxDrawdown(values), nil
}

// Drawdown returns the trailing-window drawdown of the selected series per
// session. For an instrument, warmup history is used when attached; the
// portfolio total has none.
func (p *Portfolio) Drawdown(tick string, window int) ([]float64, error) {
	if tick == "" {
		return analytics.Drawdown(p.total, 0, window), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.Drawdown(window), nil
}

// MovingAverage returns the rolling mean of the selected series over window
// sessions.
func (p *Portfolio) MovingAverage(tick string, window int) ([]float64, error) {
	if tick == "" {
		return analytics.MovingAverage(p.total, 0, window), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.MovingAverage(window), nil
}

// BollingerBand returns the Bollinger bands of the selected series with a
// band width of k standard deviations.
func (p *Portfolio) BollingerBand(tick string, window int, k float64) (analytics.Bands, error) {
	if tick == "" {
		return analytics.BollingerBand(p.total, 0, window, k), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return analytics.Bands{}, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.BollingerBand(window, k), nil
}

// RSI returns the 14-session Wilder relative strength index of the selected
// series per session.
func (p *Portfolio) RSI(tick string) ([]float64, error) {
	if tick == "" {
		return analytics.RSI(p.total, 0), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return nil, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.RSI(), nil
}

// MaxRise is the rise from the trailing-window minimum to the value of the
// selected series at the given session.
func (p *Portfolio) MaxRise(tick string, day date.Date, window int) (float64, error) {
	i, err := p.sessionIndex(day)
	if err != nil {
		return 0, err
	}
	if tick == "" {
		return analytics.MaxRise(p.total, i, window), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return 0, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.MaxRise(i, window), nil
}

// MaxFall is the trailing-window peak-to-trough span of the selected series
// at the given session.
func (p *Portfolio) MaxFall(tick string, day date.Date, window int) (float64, error) {
	i, err := p.sessionIndex(day)
	if err != nil {
		return 0, err
	}
	if tick == "" {
		return analytics.MaxFall(p.total, i, window), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return 0, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.MaxFall(i, window), nil
}

// UpRatio is the fraction of up sessions of the selected series over the
// trailing days ending at the given session.
func (p *Portfolio) UpRatio(tick string, day date.Date, days int) (float64, error) {
	i, err := p.sessionIndex(day)
	if err != nil {
		return 0, err
	}
	if tick == "" {
		return analytics.UpRatio(p.total, i, days), nil
	}
	e, ok := p.equities[tick]
	if !ok {
		return 0, fmt.Errorf("unknown ticker %q: %w", tick, ErrConfig)
	}
	return e.UpRatio(i, days), nil
}

// DnRatio is the fraction of down sessions of the selected series over the
// trailing days ending at the given session.
func (p *Portfolio) DnRatio(tick string, day date.Date, days int) (float64, error) {
	up, err := p.UpRatio(tick, day, days)
	if err != nil {
		return 0, err
	}
	return 1 - up, nil
}

// LongPositions returns the tickers with a positive position at the given
// session, in lexical order.
func (p *Portfolio) LongPositions(day date.Date) ([]string, error) {
	i, err := p.sessionIndex(day)
	if err != nil {
		return nil, err
	}
	var long []string
	for _, tick := range p.tickers {
		shares := p.equities[tick].shares
		for j := i; j >= 0; j-- {
			if !math.IsNaN(shares[j]) {
				if shares[j] > 0 {
					long = append(long, tick)
				}
				break
			}
		}
	}
	return long, nil
}

// RandomTicker picks a uniformly random instrument, skipping the excluded
// tickers. The empty string means no instrument qualified.
func (p *Portfolio) RandomTicker(exclude ...string) string {
	skip := make(map[string]bool, len(exclude))
	for _, tick := range exclude {
		skip[tick] = true
	}
	var pool []string
	for _, tick := range p.tickers {
		if !skip[tick] {
			pool = append(pool, tick)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}
