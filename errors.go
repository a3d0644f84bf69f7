package finpy

import "errors"

// ErrConfig marks fatal configuration errors: an order referencing an
// unknown ticker, an order dated off the trading calendar, a malformed
// simulation window. They are never retried; the run aborts.
//
// Degraded market data is deliberately not in this family: a missing price
// observation is resolved by the fill policy and only logged.
var ErrConfig = errors.New("invalid portfolio configuration")
