// Package calendar decides which days are trading days.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Holiday is a recurring non-trading day.
type Holiday struct {
	Month time.Month
	Day   int
	Name  string
}

// Calendar knows weekends, fixed holidays, the Easter holidays and one-off
// closures.
type Calendar struct {
	fixed          []Holiday
	extra          map[string]string
	easter         bool
	sundayObserved bool
	loc            *time.Location
}

// Option configures a Calendar.
type Option func(*Calendar)

// WithEaster adds Good Friday and Family Day (Easter Monday).
func WithEaster() Option {
	return func(c *Calendar) { c.easter = true }
}

// WithSundayObserved moves a fixed holiday falling on Sunday to Monday.
func WithSundayObserved() Option {
	return func(c *Calendar) { c.sundayObserved = true }
}

// WithLocation evaluates dates in loc.
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) { c.loc = loc }
}

// WithExtraDates adds one-off closures given as YYYY-MM-DD.
func WithExtraDates(dates ...string) Option {
	return func(c *Calendar) {
		for _, d := range dates {
			c.extra[strings.TrimSpace(d)] = "Exchange closure"
		}
	}
}

// New builds a calendar from fixed MM-DD holidays.
func New(holidays []string, opts ...Option) (*Calendar, error) {
	c := &Calendar{extra: make(map[string]string), loc: time.Local}
	for _, h := range holidays {
		t, err := time.Parse("01-02", strings.TrimSpace(h))
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h, err)
		}
		c.fixed = append(c.fixed, Holiday{Month: t.Month(), Day: t.Day(), Name: holidayName(t.Month(), t.Day())})
	}
	for _, opt := range opts {
		opt(c)
	}
	for d := range c.extra {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("invalid closure date %q: %w", d, err)
		}
	}
	return c, nil
}

// IsTradingDay reports whether date is a weekday that is not a holiday.
func (c *Calendar) IsTradingDay(date time.Time) bool {
	return c.Reason(date) == ""
}

// Reason names why date is not a trading day, or returns "" for trading
// days.
func (c *Calendar) Reason(date time.Time) string {
	date = date.In(c.loc)
	switch date.Weekday() {
	case time.Saturday:
		return "Saturday"
	case time.Sunday:
		return "Sunday"
	}
	if name, ok := c.extra[date.Format("2006-01-02")]; ok {
		return name
	}

	y, m, d := date.Date()
	for _, h := range c.fixed {
		if h.Month == m && h.Day == d {
			return h.Name
		}
		if c.sundayObserved && date.Weekday() == time.Monday {
			prev := date.AddDate(0, 0, -1)
			if h.Month == prev.Month() && h.Day == prev.Day() {
				return h.Name + " (observed)"
			}
		}
	}

	if c.easter {
		e := Easter(y, c.loc)
		switch {
		case sameDate(date, e.AddDate(0, 0, -2)):
			return "Good Friday"
		case sameDate(date, e.AddDate(0, 0, 1)):
			return "Family Day"
		}
	}
	return ""
}

// PreviousTradingDay returns the closest trading day strictly before date.
func (c *Calendar) PreviousTradingDay(date time.Time) time.Time {
	d := date.AddDate(0, 0, -1)
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// Easter returns Easter Sunday of year (Gregorian, anonymous algorithm).
func Easter(year int, loc *time.Location) time.Time {
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
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var holidayNames = map[string]string{
	"01-01": "New Year's Day",
	"03-21": "Human Rights Day",
	"04-27": "Freedom Day",
	"04-28": "Freedom Day",
	"05-01": "Workers' Day",
	"06-16": "Youth Day",
	"08-09": "National Women's Day",
	"09-24": "Heritage Day",
	"12-16": "Day of Reconciliation",
	"12-25": "Christmas Day",
	"12-26": "Day of Goodwill",
}

func holidayName(m time.Month, d int) string {
	key := fmt.Sprintf("%02d-%02d", int(m), d)
	if name, ok := holidayNames[key]; ok {
		return name
	}
	return "Public holiday " + key
}
