// Package yieldengine resolves a single closing yield per bond from the three
// daily inputs: benchmark reference yields, the exchange trading report and the
// dealer pricing sheet.
//
// # Resolution order
//
// Each security walks a fixed cascade and the first tier able to produce a value
// wins:
//
//  1. Dealer quote dated on the run date
//  2. Exchange pricing, only when the security traded actively (deals and nominal
//     volume both at or above the activity threshold)
//  3. Dealer quote of any date
//  4. No data
//
// LINKED bonds take the quoted yield directly. NOMINAL bonds are priced as
// benchmark yield + spread/100, so they need a benchmark yield at every tier.
//
// # Architecture
//
//   - normalize.go: raw tables to per-security records and quotes
//   - parse.go: cell coercion for decimals, counts and dates
//   - benchmark.go: benchmark id to yield lookup
//   - classify.go: per-security facts (today's dealer quote, active trading)
//   - cascade.go: the tier walk and yield arithmetic
//   - assemble.go: result rows and spread consistency
//   - diagnostics.go: run summary
//   - engine.go: entry point
//
// The engine performs no I/O. All yields and spreads are decimal values; the
// conversion to float happens only at export boundaries.
//
// # Usage Example
//
//	engine := yieldengine.NewEngine(yieldengine.DefaultOptions(), logger)
//	res, err := engine.Resolve(ctx, domain.Sources{
//	    Reference: reference,
//	    Exchange:  exchange,
//	    Dealer:    dealer,
//	}, runDate)
//	if err != nil {
//	    return err
//	}
//	for _, r := range res.Results {
//	    fmt.Println(r.Security, r.ClosingYield, r.Source)
//	}
package yieldengine
