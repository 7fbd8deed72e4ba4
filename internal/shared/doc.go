// Package shared holds helpers used across the yieldcli packages.
//
// The testutil subpackage provides:
//
//   - a capturing slog handler with assertion helpers
//   - fixture builders for the three daily inputs (reference yields, exchange
//     report, dealer sheet)
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    src := testutil.NewSourcesBuilder().
//	        Reference("R2030", "9.00").
//	        Exchange(testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030"}).
//	        NominalDealer("GC30", "30", "2026-03-09").
//	        Build()
//	    ...
//	}
//
// Nothing here may import business packages other than pkg/contracts.
package shared
