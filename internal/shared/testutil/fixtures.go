package testutil

import (
	"yieldcli/pkg/contracts/domain"
)

// Standard headers of the daily input tables.
var (
	ReferenceColumns     = []string{"Bond", "Yield"}
	ExchangeColumns      = []string{"Security", "Benchmark", "Deals", "Nominal", "Mark To (Yield)", "Spread"}
	LinkedDealerColumns  = []string{"Bond", "PX_Last", "Date"}
	NominalDealerColumns = []string{"Government", "Spread", "Date of last event"}
)

// ExchangeRow is one exchange trading report row in cell form. Empty fields
// become empty cells.
type ExchangeRow struct {
	Security  string
	Benchmark string
	Deals     string
	Nominal   string
	Yield     string
	Spread    string
}

func (r ExchangeRow) cells() []string {
	return []string{r.Security, r.Benchmark, r.Deals, r.Nominal, r.Yield, r.Spread}
}

// SourcesBuilder assembles domain.Sources for tests.
type SourcesBuilder struct {
	reference *domain.Table
	exchange  *domain.Table
	linked    *domain.Table
	nominal   *domain.Table
}

// NewSourcesBuilder starts with empty tables carrying the standard headers.
func NewSourcesBuilder() *SourcesBuilder {
	return &SourcesBuilder{
		reference: domain.NewTable("reference", ReferenceColumns),
		exchange:  domain.NewTable("exchange", ExchangeColumns),
		linked:    domain.NewTable("dealer.linked", LinkedDealerColumns),
		nominal:   domain.NewTable("dealer.nominal", NominalDealerColumns),
	}
}

// Reference adds a benchmark yield row.
func (b *SourcesBuilder) Reference(bond, yield string) *SourcesBuilder {
	b.reference.Rows = append(b.reference.Rows, []string{bond, yield})
	return b
}

// Exchange adds exchange report rows.
func (b *SourcesBuilder) Exchange(rows ...ExchangeRow) *SourcesBuilder {
	for _, r := range rows {
		b.exchange.Rows = append(b.exchange.Rows, r.cells())
	}
	return b
}

// LinkedDealer adds a LINKED dealer row: bond, yield, quote date.
func (b *SourcesBuilder) LinkedDealer(bond, yield, date string) *SourcesBuilder {
	b.linked.Rows = append(b.linked.Rows, []string{bond, yield, date})
	return b
}

// NominalDealer adds a NOMINAL dealer row: bond, spread in bps, quote date.
func (b *SourcesBuilder) NominalDealer(bond, spread, date string) *SourcesBuilder {
	b.nominal.Rows = append(b.nominal.Rows, []string{bond, spread, date})
	return b
}

// Build returns the assembled sources.
func (b *SourcesBuilder) Build() domain.Sources {
	return domain.Sources{
		Reference: b.reference,
		Exchange:  b.exchange,
		Dealer: &domain.DealerSheet{
			Linked:  b.linked,
			Nominal: b.nominal,
		},
	}
}
