package domain

import (
	"github.com/shopspring/decimal"
)

// Tier identifies which step of the priority cascade produced a closing yield.
type Tier int

const (
	// TierNone means no source could be resolved.
	TierNone Tier = iota
	// TierDealerToday is a dealer quote dated on the run date.
	TierDealerToday
	// TierExchangeActive is exchange pricing backed by active trading.
	TierExchangeActive
	// TierDealerAnyDate is a dealer quote of any date.
	TierDealerAnyDate
)

// Tiers lists the cascade tiers in evaluation order followed by TierNone.
var Tiers = []Tier{TierDealerToday, TierExchangeActive, TierDealerAnyDate, TierNone}

// String returns a stable identifier used in logs and metrics.
func (t Tier) String() string {
	switch t {
	case TierDealerToday:
		return "dealer_today"
	case TierExchangeActive:
		return "exchange_active"
	case TierDealerAnyDate:
		return "dealer_any_date"
	case TierNone:
		return "none"
	default:
		return "unknown"
	}
}

// Provenance labels written to the Source column.
const (
	LabelDealerToday          = "Dealer Data (Today's Date)"
	LabelDealerAnyDate        = "Dealer Data"
	LabelExchangeActive       = "Exchange (Active Trading)"
	LabelExchangeSpreadFormat = "Exchange Spread: %s bps"
	LabelExchangeCalcFormat   = "Exchange Calculated Spread: %s bps"
	LabelNoData               = "No Data Found"
	LabelMissingBenchmark     = "Missing Benchmark Yield"
)

// ResultColumns is the fixed column order of the closing yield table.
var ResultColumns = []string{
	"security",
	"benchmark",
	"benchmark_yield",
	"spread_bps",
	"closing_yield",
	"source",
}

// ClosingYieldResult is one row of the closing yield table. ClosingYield is
// invalid only when no tier could resolve the security; Source is always set.
type ClosingYieldResult struct {
	Security       string              `json:"security" validate:"required"`
	Class          InstrumentClass     `json:"instrument_class"`
	Benchmark      *string             `json:"benchmark,omitempty"`
	BenchmarkYield decimal.NullDecimal `json:"benchmark_yield"`
	SpreadBps      decimal.NullDecimal `json:"spread_bps"`
	ClosingYield   decimal.NullDecimal `json:"closing_yield"`
	Source         string              `json:"source" validate:"required"`
	Tier           Tier                `json:"tier"`
}

// Resolved reports whether a closing yield was found.
func (r ClosingYieldResult) Resolved() bool {
	return r.ClosingYield.Valid
}

// BenchmarkName returns the benchmark id or an empty string for LINKED rows.
func (r ClosingYieldResult) BenchmarkName() string {
	if r.Benchmark == nil {
		return ""
	}
	return *r.Benchmark
}
