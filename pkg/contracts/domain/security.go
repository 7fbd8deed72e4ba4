package domain

import (
	"fmt"
	"strings"
)

// InstrumentClass distinguishes bonds quoted directly in yield from bonds quoted
// as a spread over a benchmark government bond.
type InstrumentClass string

const (
	// ClassLinked instruments carry their own yield and have no benchmark.
	ClassLinked InstrumentClass = "LINKED"
	// ClassNominal instruments derive their yield as benchmark yield + spread.
	ClassNominal InstrumentClass = "NOMINAL"
)

// ParseInstrumentClass accepts the class names in any case.
func ParseInstrumentClass(s string) (InstrumentClass, error) {
	switch InstrumentClass(strings.ToUpper(strings.TrimSpace(s))) {
	case ClassLinked:
		return ClassLinked, nil
	case ClassNominal:
		return ClassNominal, nil
	default:
		return "", fmt.Errorf("unknown instrument class %q", s)
	}
}

// Security is a tradable bond instrument.
type Security struct {
	ID          string          `json:"id" validate:"required"`
	Class       InstrumentClass `json:"instrument_class" validate:"required,oneof=LINKED NOMINAL"`
	BenchmarkID *string         `json:"benchmark_id,omitempty"`
}

// IsNominal reports whether the security is priced off a benchmark.
func (s Security) IsNominal() bool {
	return s.Class == ClassNominal
}

// Valid checks the class/benchmark invariant: a benchmark is present iff the
// security is NOMINAL. A NOMINAL security may still lack a benchmark when its
// class came from explicit metadata; that case is reported by Valid as well
// and resolves to "Missing Benchmark Yield".
func (s Security) Valid() bool {
	if s.ID == "" {
		return false
	}
	switch s.Class {
	case ClassLinked:
		return s.BenchmarkID == nil
	case ClassNominal:
		return s.BenchmarkID != nil && *s.BenchmarkID != ""
	default:
		return false
	}
}
