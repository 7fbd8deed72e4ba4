package yieldengine

import (
	"time"

	"github.com/shopspring/decimal"

	"yieldcli/pkg/contracts/domain"
)

// facts is everything the cascade needs to know about one security.
type facts struct {
	security       domain.Security
	benchmarkYield decimal.NullDecimal
	exchange       *domain.ExchangeQuote
	activeTrading  bool
	dealerToday    *domain.DealerQuote
	dealerAnyDate  *domain.DealerQuote
}

type classifier struct {
	threshold domain.ActivityThreshold
	runDate   time.Time
	loc       *time.Location
}

func (c classifier) classify(sec domain.Security, n *normalized, bench benchmarkIndex) facts {
	f := facts{
		security:       sec,
		benchmarkYield: bench.yieldFor(sec),
	}

	if q, ok := n.exchange[sec.ID]; ok {
		f.exchange = &q
		f.activeTrading = q.HasActiveTrading(c.threshold)
	}

	// Later sheet rows replace earlier ones, separately for each tier.
	quotes := n.dealer[sec.Class][sec.ID]
	for i := range quotes {
		q := quotes[i]
		f.dealerAnyDate = &q
		if q.QuotedOn(c.runDate, c.loc) {
			f.dealerToday = &q
		}
	}
	return f
}
