package finpy

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/blacksburg98/finpy/date"
	"github.com/shopspring/decimal"
)

// WriteCSV exports the portfolio as CSV, one row per session. The header is
// Date, then Total and Cash when requested, then one column per instrument
// and field named <TICKER><field>. Values are rounded half-up to two
// decimals; sessions without a value are left empty.
func (p *Portfolio) WriteCSV(w io.Writer, fields []Field, withTotal, withCash bool) error {
	for _, f := range fields {
		if f < 0 || f >= numFields {
			return fmt.Errorf("cannot export unknown field %v", f)
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"Date"}
	if withTotal {
		header = append(header, "Total")
	}
	if withCash {
		header = append(header, "Cash")
	}
	for _, tick := range p.tickers {
		for _, f := range fields {
			header = append(header, tick+f.String())
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i, day := range p.sessions {
		row = row[:0]
		row = append(row, day.String())
		if withTotal {
			row = append(row, cell(p.total[i]))
		}
		if withCash {
			row = append(row, cell(p.cash[i]))
		}
		for _, tick := range p.tickers {
			e := p.equities[tick]
			for _, f := range fields {
				col, err := e.Column(f)
				if err != nil {
					return err
				}
				row = append(row, cell(col[i]))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// cell formats one value with two-decimal rounding, empty for NaN.
func cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// WriteOrderCSV exports the bound orders, one Date,Ticker,Action,Shares row
// per order, no header.
func (p *Portfolio) WriteOrderCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, o := range p.orders {
		row := []string{
			o.Day.String(),
			o.Ticker,
			o.Action.String(),
			strconv.FormatFloat(o.Shares, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadOrders parses a Date,Ticker,Action,Shares CSV into at-close orders.
func ReadOrders(r io.Reader) ([]Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true

	var orders []Order
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		day, err := date.Parse(rec[0])
		if err != nil {
			return nil, fmt.Errorf("order date: %w", err)
		}
		action, err := ParseAction(rec[2])
		if err != nil {
			return nil, err
		}
		shares, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("order shares: %w", err)
		}
		orders = append(orders, MarketOrder(day, rec[1], action, shares))
	}
	return orders, nil
}
