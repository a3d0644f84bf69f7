package finpy

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/blacksburg98/finpy/date"
)

// Action is the side of an order.
type Action int

const (
	Buy Action = iota
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction parses an order side, case-insensitively.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(s) {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("unknown order action %q", s)
}

// Order is one trade instruction. Price is the execution price per share; a
// NaN price means "at close", resolved once when the order is bound to a
// portfolio.
type Order struct {
	Day    date.Date
	Ticker string
	Action Action
	Shares float64
	Price  float64
}

// NewOrder returns an order with an explicit execution price.
func NewOrder(day date.Date, tick string, action Action, shares, price float64) Order {
	return Order{Day: day, Ticker: tick, Action: action, Shares: shares, Price: price}
}

// MarketOrder returns an order to be executed at the session close.
func MarketOrder(day date.Date, tick string, action Action, shares float64) Order {
	return Order{Day: day, Ticker: tick, Action: action, Shares: shares, Price: math.NaN()}
}

// sortOrders orders by date, keeping the submission order of same-day trades.
func sortOrders(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Day.Before(orders[j].Day)
	})
}
