package yieldengine

import (
	"github.com/shopspring/decimal"

	"yieldcli/pkg/contracts/domain"
)

// benchmarkIndex maps benchmark id to its session yield.
type benchmarkIndex map[string]decimal.Decimal

// newBenchmarkIndex builds the lookup. Reference rows are already filtered to
// those carrying both an id and a yield; a repeated id keeps the last yield.
func newBenchmarkIndex(rows []domain.BenchmarkYield) benchmarkIndex {
	idx := make(benchmarkIndex, len(rows))
	for _, r := range rows {
		idx[r.BenchmarkID] = r.Yield
	}
	return idx
}

// yieldFor returns the benchmark yield of a NOMINAL security. LINKED
// securities and unknown benchmarks yield an invalid value.
func (b benchmarkIndex) yieldFor(sec domain.Security) decimal.NullDecimal {
	if !sec.IsNominal() || sec.BenchmarkID == nil {
		return decimal.NullDecimal{}
	}
	y, ok := b[*sec.BenchmarkID]
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(y)
}
