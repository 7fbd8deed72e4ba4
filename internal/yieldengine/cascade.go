package yieldengine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"yieldcli/pkg/contracts/domain"
)

// resolution is the outcome of the cascade for one security.
type resolution struct {
	tier          domain.Tier
	yield         decimal.NullDecimal
	spreadBps     decimal.NullDecimal
	spreadLiteral bool
	label         string
}

// resolve walks the tiers in order. A tier matches only when it can produce a
// value, so a security that traded actively but carries neither an observed
// spread nor an observed yield continues to the any-date dealer tier.
func resolve(f facts) resolution {
	nominal := f.security.IsNominal()

	if nominal && !f.benchmarkYield.Valid {
		return resolution{tier: domain.TierNone, label: domain.LabelMissingBenchmark}
	}

	if f.dealerToday != nil {
		return fromDealer(f, *f.dealerToday, domain.TierDealerToday, domain.LabelDealerToday)
	}

	if f.activeTrading && f.exchange != nil {
		if r, ok := fromExchange(f, *f.exchange); ok {
			return r
		}
	}

	if f.dealerAnyDate != nil {
		return fromDealer(f, *f.dealerAnyDate, domain.TierDealerAnyDate, domain.LabelDealerAnyDate)
	}

	return resolution{tier: domain.TierNone, label: domain.LabelNoData}
}

func fromDealer(f facts, q domain.DealerQuote, tier domain.Tier, label string) resolution {
	if !f.security.IsNominal() {
		return resolution{
			tier:  tier,
			yield: decimal.NewNullDecimal(q.Value),
			label: label,
		}
	}
	return resolution{
		tier:          tier,
		yield:         decimal.NewNullDecimal(addSpread(f.benchmarkYield.Decimal, q.Value)),
		spreadBps:     decimal.NewNullDecimal(q.Value),
		spreadLiteral: true,
		label:         label,
	}
}

func fromExchange(f facts, q domain.ExchangeQuote) (resolution, bool) {
	if !f.security.IsNominal() {
		if !q.ObservedYield.Valid {
			return resolution{}, false
		}
		return resolution{
			tier:  domain.TierExchangeActive,
			yield: q.ObservedYield,
			label: domain.LabelExchangeActive,
		}, true
	}

	bench := f.benchmarkYield.Decimal
	switch {
	case q.ObservedSpreadBps.Valid:
		spread := q.ObservedSpreadBps.Decimal
		return resolution{
			tier:          domain.TierExchangeActive,
			yield:         decimal.NewNullDecimal(addSpread(bench, spread)),
			spreadBps:     q.ObservedSpreadBps,
			spreadLiteral: true,
			label:         fmt.Sprintf(domain.LabelExchangeSpreadFormat, spread.String()),
		}, true
	case q.ObservedYield.Valid:
		spread := spreadOf(q.ObservedYield.Decimal, bench)
		return resolution{
			tier:          domain.TierExchangeActive,
			yield:         q.ObservedYield,
			spreadBps:     decimal.NewNullDecimal(spread),
			spreadLiteral: true,
			label:         fmt.Sprintf(domain.LabelExchangeCalcFormat, spread.StringFixed(2)),
		}, true
	default:
		return resolution{}, false
	}
}

// addSpread returns benchmark + spread/100; both are exact in decimal.
func addSpread(benchmark, spreadBps decimal.Decimal) decimal.Decimal {
	return benchmark.Add(spreadBps.Shift(-2))
}

// spreadOf returns (yield - benchmark) * 100 in basis points.
func spreadOf(yield, benchmark decimal.Decimal) decimal.Decimal {
	return yield.Sub(benchmark).Shift(2)
}
