package yieldengine

import (
	"github.com/shopspring/decimal"

	"yieldcli/pkg/contracts/domain"
)

// assemble builds the result row for one security. For NOMINAL rows the spread
// column is derived from the closing and benchmark yields unless the tier fixed
// a literal spread.
func assemble(f facts, r resolution) domain.ClosingYieldResult {
	out := domain.ClosingYieldResult{
		Security:     f.security.ID,
		Class:        f.security.Class,
		ClosingYield: r.yield,
		Source:       r.label,
		Tier:         r.tier,
	}

	if !f.security.IsNominal() {
		return out
	}

	if f.security.BenchmarkID != nil {
		b := *f.security.BenchmarkID
		out.Benchmark = &b
	}
	out.BenchmarkYield = f.benchmarkYield

	switch {
	case r.spreadLiteral:
		out.SpreadBps = r.spreadBps
	case r.yield.Valid && f.benchmarkYield.Valid:
		out.SpreadBps = decimal.NewNullDecimal(spreadOf(r.yield.Decimal, f.benchmarkYield.Decimal))
	}
	return out
}
