package yieldengine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var errNotInteger = errors.New("not a whole number")

// absentTokens are cell contents that mean "no value" rather than bad data.
var absentTokens = map[string]struct{}{
	"":     {},
	"-":    {},
	"--":   {},
	"n/a":  {},
	"#n/a": {},
	"na":   {},
	"nan":  {},
	"null": {},
}

// dateLayouts are tried in order after the Excel serial form.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
	"2/1/2006",
	"2 Jan 2006",
	"02-Jan-06",
	"02-Jan-2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Excel serial dates accepted: 1900-01-01 to 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

func isAbsent(s string) bool {
	_, ok := absentTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// parseDecimal coerces a numeric cell. Absent cells return an invalid
// NullDecimal and no error.
func parseDecimal(s string) (decimal.NullDecimal, error) {
	if isAbsent(s) {
		return decimal.NullDecimal{}, nil
	}
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "%")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, " ", "")
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid number: %w", err)
	}
	return decimal.NewNullDecimal(d), nil
}

// parseCount coerces a whole-number cell such as a deal count. Spreadsheet
// exports often carry "3.0"; any fractional part is an error.
func parseCount(s string) (int64, bool, error) {
	v, err := parseDecimal(s)
	if err != nil || !v.Valid {
		return 0, false, err
	}
	if !v.Decimal.Equal(v.Decimal.Truncate(0)) {
		return 0, false, errNotInteger
	}
	return v.Decimal.IntPart(), true, nil
}

// parseDate coerces a date cell in loc. Absent cells return nil and no error.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if isAbsent(s) {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	clean := strings.TrimSpace(s)

	if serial, err := decimal.NewFromString(clean); err == nil {
		f := serial.InexactFloat64()
		if f < minExcelSerial || f > maxExcelSerial {
			return nil, fmt.Errorf("serial date %s out of range", clean)
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return nil, fmt.Errorf("invalid serial date: %w", err)
		}
		local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
		return &local, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, clean, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date format")
}
