package sources

import (
	"fmt"
	"regexp"
)

// Options names the sheets and row filters of the daily files.
type Options struct {
	// ReferenceSheet is used for workbook reference files; empty means the
	// first sheet.
	ReferenceSheet  string
	ExchangeSheet   string
	ExchangeHeaders []string
	LinkedSheet     string
	LinkedPattern   string
	NominalSheet    string
	NominalIDColumn string
}

// DefaultOptions returns the layout of the standard daily files.
func DefaultOptions() Options {
	return Options{
		ExchangeSheet:   "Bonds-Trading ATS",
		ExchangeHeaders: []string{"Security", "Benchmark"},
		LinkedSheet:     "Yields",
		LinkedPattern:   `^GI\d{2}$`,
		NominalSheet:    "Spread calc",
		NominalIDColumn: "Government",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ExchangeSheet == "" {
		o.ExchangeSheet = d.ExchangeSheet
	}
	if len(o.ExchangeHeaders) == 0 {
		o.ExchangeHeaders = d.ExchangeHeaders
	}
	if o.LinkedSheet == "" {
		o.LinkedSheet = d.LinkedSheet
	}
	if o.LinkedPattern == "" {
		o.LinkedPattern = d.LinkedPattern
	}
	if o.NominalSheet == "" {
		o.NominalSheet = d.NominalSheet
	}
	if o.NominalIDColumn == "" {
		o.NominalIDColumn = d.NominalIDColumn
	}
	return o
}

func (o Options) linkedPattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(o.LinkedPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid linked pattern %q: %w", o.LinkedPattern, err)
	}
	return re, nil
}
