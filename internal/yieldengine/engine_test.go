package yieldengine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldcli/internal/shared/testutil"
	"yieldcli/pkg/contracts/domain"
)

var runDate = time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Location = time.UTC
	return NewEngine(opts, logger), logs
}

func resultFor(t *testing.T, res *Resolution, id string) domain.ClosingYieldResult {
	t.Helper()
	for _, r := range res.Results {
		if r.Security == id {
			return r
		}
	}
	require.Failf(t, "result not found", "security %s", id)
	return domain.ClosingYieldResult{}
}

func TestEngine_EndToEndDealerAnyDate(t *testing.T) {
	engine, logs := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "0", Nominal: "0"}).
		NominalDealer("GC30", "30", "2026-03-09").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	r := res.Results[0]
	assert.Equal(t, "GC30", r.Security)
	assert.Equal(t, "R2030", r.BenchmarkName())
	assertDecimal(t, "9.00", r.BenchmarkYield)
	assertDecimal(t, "30", r.SpreadBps)
	assertDecimal(t, "9.30", r.ClosingYield)
	assert.Equal(t, "Dealer Data", r.Source)
	assert.Equal(t, domain.TierDealerAnyDate, r.Tier)

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "closing yields resolved")
	testutil.AssertNoErrors(t, logs)
}

func TestEngine_TierPrecedence(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "8.5000").
		Exchange(testutil.ExchangeRow{
			Security: "GC30", Benchmark: "R2030",
			Deals: "5", Nominal: "2,000,000", Spread: "40",
		}).
		NominalDealer("GC30", "25", "2026-03-10").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	r := resultFor(t, res, "GC30")
	assert.Equal(t, "Dealer Data (Today's Date)", r.Source)
	assertDecimal(t, "8.7500", r.ClosingYield)
	assertDecimal(t, "25", r.SpreadBps)
	assert.Equal(t, 1, res.Summary.TodayDealerQuotes)
	assert.Equal(t, 1, res.Summary.ActiveTrading)
}

func TestEngine_ActiveTradingThreshold(t *testing.T) {
	tests := []struct {
		name       string
		deals      string
		nominal    string
		wantSource string
		wantYield  string
	}{
		{"one deal below nominal", "1", "999,999", "Dealer Data", "8.75"},
		{"one deal at nominal", "1", "1,000,000", "Exchange Spread: 40 bps", "8.90"},
		{"no deals large nominal", "0", "10,000,000", "Dealer Data", "8.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(t)
			src := testutil.NewSourcesBuilder().
				Reference("R2030", "8.50").
				Exchange(testutil.ExchangeRow{
					Security: "GC30", Benchmark: "R2030",
					Deals: tt.deals, Nominal: tt.nominal, Spread: "40",
				}).
				NominalDealer("GC30", "25", "2026-02-27").
				Build()

			res, err := engine.Resolve(context.Background(), src, runDate)
			require.NoError(t, err)

			r := resultFor(t, res, "GC30")
			assert.Equal(t, tt.wantSource, r.Source)
			assertDecimal(t, tt.wantYield, r.ClosingYield)
		})
	}
}

func TestEngine_CustomThreshold(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Location = time.UTC
	opts.Threshold = domain.ActivityThreshold{MinDeals: 2, MinNominal: dec("500000")}
	engine := NewEngine(opts, logger)

	src := testutil.NewSourcesBuilder().
		Exchange(
			testutil.ExchangeRow{Security: "GI25", Deals: "1", Nominal: "900000", Yield: "4.2"},
			testutil.ExchangeRow{Security: "GI27", Deals: "2", Nominal: "500000", Yield: "4.6"},
		).
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	assert.Equal(t, domain.LabelNoData, resultFor(t, res, "GI25").Source)
	assert.Equal(t, domain.LabelExchangeActive, resultFor(t, res, "GI27").Source)
}

func TestEngine_LinkedAndNominalBranching(t *testing.T) {
	engine, logs := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GI25"},
			testutil.ExchangeRow{Security: "GC99"},
			testutil.ExchangeRow{Security: "GC35", Benchmark: "R2035"},
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030"},
		).
		LinkedDealer("GI25", "4.10", "2026-03-10").
		LinkedDealer("GC99", "7.77", "2026-03-01").
		NominalDealer("GC35", "20", "2026-03-10").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)
	require.Len(t, res.Results, 4)

	gi := resultFor(t, res, "GI25")
	assert.Equal(t, domain.ClassLinked, gi.Class)
	assert.Nil(t, gi.Benchmark)
	assertDecimal(t, "4.10", gi.ClosingYield)
	assert.Equal(t, "Dealer Data (Today's Date)", gi.Source)

	// Naming does not matter, only the benchmark column does.
	gc99 := resultFor(t, res, "GC99")
	assert.Equal(t, domain.ClassLinked, gc99.Class)
	assertDecimal(t, "7.77", gc99.ClosingYield)
	assert.Equal(t, "Dealer Data", gc99.Source)

	gc35 := resultFor(t, res, "GC35")
	assert.False(t, gc35.ClosingYield.Valid)
	assert.Equal(t, "Missing Benchmark Yield", gc35.Source)

	gc30 := resultFor(t, res, "GC30")
	assert.False(t, gc30.ClosingYield.Valid)
	assert.Equal(t, "No Data Found", gc30.Source)

	assert.Equal(t, 2, res.Summary.Linked)
	assert.Equal(t, 2, res.Summary.Nominal)
	assert.Equal(t, 2, res.Summary.Unresolved)
	assert.Equal(t, 1, res.Summary.MissingBenchmark)
	assert.Equal(t, []string{"GC35", "GC30"}, res.Summary.UnresolvedIDs)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "missing closing yields")
}

func TestEngine_MalformedDateDegradesGracefully(t *testing.T) {
	engine, logs := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GI27"},
			testutil.ExchangeRow{Security: "GI25"},
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "lots"},
		).
		LinkedDealer("GI27", "5.0", "not-a-date").
		LinkedDealer("GI25", "4.10", "2026-03-10").
		NominalDealer("GC30", "30", "10/03/2026").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	gi27 := resultFor(t, res, "GI27")
	assertDecimal(t, "5.0", gi27.ClosingYield)
	assert.Equal(t, "Dealer Data", gi27.Source)

	assert.Equal(t, "Dealer Data (Today's Date)", resultFor(t, res, "GI25").Source)
	assert.Equal(t, "Dealer Data (Today's Date)", resultFor(t, res, "GC30").Source)

	require.Len(t, res.FieldErrors, 2)
	assert.Equal(t, 2, res.Summary.FieldErrors)
	assert.Equal(t, SourceDealerLinked, res.FieldErrors[1].Source)
	assert.Equal(t, "GI27", res.FieldErrors[1].SecurityID)
	assert.Equal(t, "not-a-date", res.FieldErrors[1].Value)
	assert.Equal(t, "Deals", res.FieldErrors[0].Column)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "unparseable cell")
}

func TestEngine_Determinism(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Reference("R2032", "9.40").
		Exchange(
			testutil.ExchangeRow{Security: "GC32", Benchmark: "R2032", Deals: "3", Nominal: "4000000", Yield: "9.71"},
			testutil.ExchangeRow{Security: "GI25", Deals: "1", Nominal: "1000000", Yield: "4.20"},
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030"},
		).
		NominalDealer("GC30", "30", "2026-03-09").
		Build()

	first, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)
	second, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Summary, second.Summary)

	ids := make([]string, 0, len(first.Results))
	for _, r := range first.Results {
		ids = append(ids, r.Security)
	}
	assert.Equal(t, []string{"GC32", "GI25", "GC30"}, ids)
	assert.Equal(t, "Exchange Calculated Spread: 31.00 bps", first.Results[0].Source)
}

func TestEngine_MissingSources(t *testing.T) {
	engine, _ := newTestEngine(t)
	full := testutil.NewSourcesBuilder().Build()

	tests := []struct {
		name   string
		mutate func(*domain.Sources)
		want   string
	}{
		{"reference", func(s *domain.Sources) { s.Reference = nil }, SourceReference},
		{"exchange", func(s *domain.Sources) { s.Exchange = nil }, SourceExchange},
		{"dealer sheet", func(s *domain.Sources) { s.Dealer = nil }, SourceDealerLinked},
		{"dealer nominal", func(s *domain.Sources) {
			s.Dealer = &domain.DealerSheet{Linked: full.Dealer.Linked}
		}, SourceDealerNominal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := full
			tt.mutate(&src)

			res, err := engine.Resolve(context.Background(), src, runDate)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, ErrMissingSource))

			var mse *MissingSourceError
			require.True(t, errors.As(err, &mse))
			assert.Equal(t, tt.want, mse.Source)
		})
	}
}

func TestEngine_MissingRequiredColumn(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().Build()
	src.Exchange = domain.NewTable("exchange", []string{"Security", "Deals"}, []string{"GC30", "1"})

	_, err := engine.Resolve(context.Background(), src, runDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingSource)

	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, SourceExchange, mce.Source)
	assert.Equal(t, "Benchmark", mce.Column)
}

func TestEngine_OptionalColumnsAbsent(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().Reference("R2030", "9.00").Build()
	src.Exchange = domain.NewTable("exchange", []string{"Security", "Benchmark"},
		[]string{"GC30", "R2030"})
	src.Dealer.Nominal = domain.NewTable("dealer.nominal", []string{"Government", "Spread"},
		[]string{"GC30", "30"})

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	r := resultFor(t, res, "GC30")
	assert.Equal(t, "Dealer Data", r.Source)
	assertDecimal(t, "9.30", r.ClosingYield)
	assert.Equal(t, 0, res.Summary.ActiveTrading)
}

func TestEngine_DuplicatesAndDealerOnly(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "8.90").
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "9", Nominal: "9000000", Spread: "99"},
			testutil.ExchangeRow{Security: "GI25"},
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "0", Nominal: "0"},
		).
		NominalDealer("GC30", "10", "2026-03-01").
		NominalDealer("GC30", "30", "2026-03-02").
		LinkedDealer("GI40", "6.1", "2026-03-10").
		NominalDealer("GC45", "80", "2026-03-10").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "GC30", res.Results[0].Security)

	r := res.Results[0]
	assert.Equal(t, "Dealer Data", r.Source)
	assertDecimal(t, "9.30", r.ClosingYield)

	assert.Equal(t, 1, res.Summary.DuplicateRows)
	assert.Equal(t, []string{"GI40", "GC45"}, res.Summary.DealerOnly)
	assert.Equal(t, 1, res.Summary.Benchmarks)
}

func TestEngine_ClassOverrides(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Location = time.UTC
	opts.ClassOverrides = map[string]domain.InstrumentClass{
		"GI25": domain.ClassLinked,
		"GC40": domain.ClassNominal,
	}
	engine := NewEngine(opts, logger)

	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GI25", Benchmark: "R2030"},
			testutil.ExchangeRow{Security: "GC40"},
		).
		LinkedDealer("GI25", "4.10", "2026-03-10").
		NominalDealer("GC40", "50", "2026-03-10").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	gi := resultFor(t, res, "GI25")
	assert.Equal(t, domain.ClassLinked, gi.Class)
	assert.Nil(t, gi.Benchmark)
	assertDecimal(t, "4.10", gi.ClosingYield)

	gc := resultFor(t, res, "GC40")
	assert.Equal(t, domain.ClassNominal, gc.Class)
	assert.Equal(t, domain.LabelMissingBenchmark, gc.Source)
}

func TestEngine_TodayUsesConfiguredLocation(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	opts := DefaultOptions()
	opts.Location = time.FixedZone("CAT", 2*60*60)
	engine := NewEngine(opts, logger)

	src := testutil.NewSourcesBuilder().
		Exchange(testutil.ExchangeRow{Security: "GI25"}).
		LinkedDealer("GI25", "4.10", "2026-03-11").
		Build()

	// 23:30 UTC on the 10th is already the 11th in CAT.
	late := time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC)
	res, err := engine.Resolve(context.Background(), src, late)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelDealerToday, res.Results[0].Source)
}

func TestEngine_CanceledContext(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Resolve(ctx, testutil.NewSourcesBuilder().Build(), runDate)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngine_SummaryCounts(t *testing.T) {
	engine, _ := newTestEngine(t)
	src := testutil.NewSourcesBuilder().
		Reference("R2030", "9.00").
		Exchange(
			testutil.ExchangeRow{Security: "GC30", Benchmark: "R2030", Deals: "1", Nominal: "1000000", Spread: "30"},
			testutil.ExchangeRow{Security: "GI25"},
			testutil.ExchangeRow{Security: "GI27"},
		).
		LinkedDealer("GI25", "4.10", "2026-03-10").
		Build()

	res, err := engine.Resolve(context.Background(), src, runDate)
	require.NoError(t, err)

	s := res.Summary
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 2, s.Resolved)
	assert.Equal(t, 1, s.ByTier["dealer_today"])
	assert.Equal(t, 1, s.ByTier["exchange_active"])
	assert.Equal(t, 0, s.ByTier["dealer_any_date"])
	assert.Equal(t, 1, s.ByTier["none"])
	assert.Equal(t, 1, s.BySource["Exchange Spread: 30 bps"])
	assert.Len(t, s.Sources(), 3)
}
