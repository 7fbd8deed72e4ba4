package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BenchmarkYield is the session yield of a reference instrument.
type BenchmarkYield struct {
	BenchmarkID string          `json:"benchmark_id" validate:"required"`
	Yield       decimal.Decimal `json:"yield"`
}

// ActivityThreshold is the minimum exchange activity that makes exchange
// pricing trustworthy. Both bounds are inclusive and both must hold.
type ActivityThreshold struct {
	MinDeals   int64           `json:"min_deals" validate:"min=0"`
	MinNominal decimal.Decimal `json:"min_nominal"`
}

// DefaultActivityThreshold is one deal and 1,000,000 nominal traded.
func DefaultActivityThreshold() ActivityThreshold {
	return ActivityThreshold{
		MinDeals:   1,
		MinNominal: decimal.NewFromInt(1_000_000),
	}
}

// ExchangeQuote is one exchange trading report row for a security.
type ExchangeQuote struct {
	SecurityID        string              `json:"security_id" validate:"required"`
	Deals             int64               `json:"deals" validate:"min=0"`
	Nominal           decimal.Decimal     `json:"nominal"`
	ObservedYield     decimal.NullDecimal `json:"observed_yield"`
	ObservedSpreadBps decimal.NullDecimal `json:"observed_spread_bps"`
}

// HasActiveTrading reports whether the row meets both the deal count and the
// nominal volume threshold.
func (q ExchangeQuote) HasActiveTrading(t ActivityThreshold) bool {
	return q.Deals >= t.MinDeals && q.Nominal.GreaterThanOrEqual(t.MinNominal)
}

// DealerQuote is one dealer pricing sheet row. Value is a yield in percentage
// points for LINKED instruments and a spread in basis points for NOMINAL ones.
type DealerQuote struct {
	SecurityID string          `json:"security_id" validate:"required"`
	Class      InstrumentClass `json:"instrument_class"`
	Value      decimal.Decimal `json:"value"`
	QuoteDate  *time.Time      `json:"quote_date,omitempty"`
}

// QuotedOn reports whether the quote date falls on the same calendar day as
// day, both taken in loc.
func (q DealerQuote) QuotedOn(day time.Time, loc *time.Location) bool {
	if q.QuoteDate == nil {
		return false
	}
	if loc == nil {
		loc = time.Local
	}
	qy, qm, qd := q.QuoteDate.In(loc).Date()
	dy, dm, dd := day.In(loc).Date()
	return qy == dy && qm == dm && qd == dd
}
