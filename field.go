package finpy

import "fmt"

// Field identifies one per-session column of an instrument. The set is
// fixed: price fields come from the market data provider, ledger fields are
// owned by the simulation.
type Field int

const (
	Open Field = iota
	High
	Low
	Close
	Volume
	ActualClose // unadjusted close, as published by the exchange

	// Ledger fields, not part of a price frame.
	BuyQty
	SellQty
	Shares

	numFields
)

// numPriceFields is the number of fields a price Frame stores.
const numPriceFields = int(ActualClose) + 1

var fieldNames = [numFields]string{
	"open", "high", "low", "close", "volume", "actual_close",
	"buy", "sell", "shares",
}

func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// IsPrice reports whether the field belongs to a price frame.
func (f Field) IsPrice() bool { return f >= 0 && int(f) < numPriceFields }

// ParseField parses a column name into a Field.
func ParseField(s string) (Field, error) {
	for i, name := range fieldNames {
		if name == s {
			return Field(i), nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", s)
}

// PriceFields returns the fields a market data provider is expected to fill.
func PriceFields() []Field {
	fs := make([]Field, numPriceFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}
