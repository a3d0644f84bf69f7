package date

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a calendar is requested for a range whose
// start is after its end.
var ErrInvalidRange = errors.New("invalid range: start is after end")

// TradingDays returns the ordered list of NYSE trading sessions between from
// and to, boundaries included. Weekends and market holidays are excluded.
//
// The computation is deterministic and performs no I/O, so two calls with the
// same range always return the same calendar.
func TradingDays(from, to Date) ([]Date, error) {
	if from.After(to) {
		return nil, fmt.Errorf("trading days %s..%s: %w", from, to, ErrInvalidRange)
	}
	var days []Date
	holidays := make(map[Date]bool)
	for y := from.Year(); y <= to.Year(); y++ {
		for _, h := range marketHolidays(y) {
			holidays[h] = true
		}
	}
	for d := from; !d.After(to); d = d.Add(1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidays[d] {
			continue
		}
		days = append(days, d)
	}
	return days, nil
}

// PreSessions returns the trading sessions strictly before start, used as
// warmup history for rolling statistics. It reaches back window*7/5+20
// calendar days so that at least window sessions are available.
func PreSessions(start Date, window int) []Date {
	if window < 0 {
		window = 0
	}
	back := (window*7+4)/5 + 20
	days, err := TradingDays(start.Add(-back), start.Add(-1))
	if err != nil {
		// start-back is always before start-1 for back >= 20.
		return nil
	}
	return days
}

// marketHolidays returns the NYSE full-day holidays of a given year.
func marketHolidays(year int) []Date {
	hs := []Date{
		nthWeekday(year, time.January, time.Monday, 3),  // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3), // Washington's Birthday
		goodFriday(year),
		lastWeekday(year, time.May, time.Monday),          // Memorial Day
		observed(New(year, time.July, 4)),                 // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(New(year, time.December, 25)),            // Christmas
	}
	// New Year's Day: when Jan 1 falls on a Saturday the exchange does not
	// observe it; a Sunday moves it to Monday.
	newYear := New(year, time.January, 1)
	switch newYear.Weekday() {
	case time.Saturday:
		// not observed
	case time.Sunday:
		hs = append(hs, newYear.Add(1))
	default:
		hs = append(hs, newYear)
	}
	if year >= 2022 {
		hs = append(hs, observed(New(year, time.June, 19))) // Juneteenth
	}
	return hs
}

// observed shifts a fixed-date holiday falling on a weekend to the nearest
// weekday, Friday before or Monday after.
func observed(d Date) Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.Add(-1)
	case time.Sunday:
		return d.Add(1)
	}
	return d
}

// nthWeekday returns the nth given weekday of a month (n is 1-based).
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) Date {
	d := New(year, month, 1)
	offset := int(weekday-d.Weekday()+7) % 7
	return d.Add(offset + 7*(n-1))
}

// lastWeekday returns the last given weekday of a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) Date {
	d := New(year, month+1, 0) // last day of month
	offset := int(d.Weekday()-weekday+7) % 7
	return d.Add(-offset)
}

// goodFriday returns the Friday before Easter Sunday, computed with the
// Meeus/Jones/Butcher Gregorian algorithm.
func goodFriday(year int) Date {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := time.Month((h + l - 7*m + 114) / 31)
	day := (h+l-7*m+114)%31 + 1
	return New(year, month, day).Add(-2)
}
