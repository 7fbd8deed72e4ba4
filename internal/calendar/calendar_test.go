package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var southAfrica = []string{
	"01-01", "03-21", "04-28", "05-01", "06-16",
	"08-09", "09-24", "12-16", "12-25", "12-26",
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newTestCalendar(t *testing.T, opts ...Option) *Calendar {
	t.Helper()
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	c, err := New(southAfrica, opts...)
	require.NoError(t, err)
	return c
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{2024, time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)},
		{2025, time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)},
		{2026, time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC)},
		{2027, time.Date(2027, time.March, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Easter(tt.year, time.UTC), "easter %d", tt.year)
	}
}

func TestCalendar_Reason(t *testing.T) {
	c := newTestCalendar(t, WithEaster(), WithSundayObserved(), WithExtraDates("2026-05-29"))

	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"ordinary tuesday", day(2026, time.March, 10), ""},
		{"saturday", day(2026, time.March, 14), "Saturday"},
		{"sunday", day(2026, time.March, 15), "Sunday"},
		{"fixed holiday", day(2026, time.June, 16), "Youth Day"},
		{"good friday", day(2026, time.April, 3), "Good Friday"},
		{"family day", day(2026, time.April, 6), "Family Day"},
		{"sunday holiday observed monday", day(2026, time.August, 10), "National Women's Day (observed)"},
		{"extra closure", day(2026, time.May, 29), "Exchange closure"},
		{"saturday holiday is not moved", day(2026, time.December, 28), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Reason(tt.date))
			assert.Equal(t, tt.want == "", c.IsTradingDay(tt.date))
		})
	}
}

func TestCalendar_WithoutOptionalRules(t *testing.T) {
	c := newTestCalendar(t)

	assert.True(t, c.IsTradingDay(day(2026, time.April, 3)), "good friday only with easter rules")
	assert.True(t, c.IsTradingDay(day(2026, time.August, 10)), "no observance without the option")
	assert.False(t, c.IsTradingDay(day(2026, time.January, 1)))
}

func TestCalendar_Location(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	c, err := New(southAfrica, WithLocation(loc))
	require.NoError(t, err)

	// 23:00 UTC on Friday is already Saturday in SAST.
	late := time.Date(2026, time.March, 13, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "Saturday", c.Reason(late))
}

func TestCalendar_PreviousTradingDay(t *testing.T) {
	c := newTestCalendar(t, WithEaster())

	prev := c.PreviousTradingDay(day(2026, time.April, 7))
	assert.Equal(t, day(2026, time.April, 2), prev, "skips family day, the weekend and good friday")
}

func TestNew_InvalidDates(t *testing.T) {
	_, err := New([]string{"13-01"})
	assert.Error(t, err)

	_, err = New(nil, WithExtraDates("2026/05/29"))
	assert.Error(t, err)
}
