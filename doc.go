// Package finpy is a portfolio backtesting engine.
//
// A Portfolio binds price frames, a cash balance and a list of orders to a
// trading calendar, applies the orders in date order and values the holdings
// at every session. Cash and shares are conserved trade by trade: buying
// debits cash by price times quantity, selling credits it, and the portfolio
// total always equals cash plus the market value of the positions.
//
// Sub-packages provide the building blocks: date holds the trading calendar,
// marketdata loads and repairs price history, analytics computes risk and
// return statistics, and sim runs independent backtests concurrently.
package finpy
