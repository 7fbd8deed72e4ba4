package yieldengine

import (
	"context"
	"log/slog"
	"sort"

	"yieldcli/pkg/contracts/domain"
)

// Summary describes one resolution run. It is informational only and never
// influences results.
type Summary struct {
	Total             int            `json:"total"`
	Linked            int            `json:"linked"`
	Nominal           int            `json:"nominal"`
	Resolved          int            `json:"resolved"`
	Unresolved        int            `json:"unresolved"`
	UnresolvedIDs     []string       `json:"unresolved_ids,omitempty"`
	MissingBenchmark  int            `json:"missing_benchmark"`
	ByTier            map[string]int `json:"by_tier"`
	BySource          map[string]int `json:"by_source"`
	ActiveTrading     int            `json:"active_trading"`
	TodayDealerQuotes int            `json:"today_dealer_quotes"`
	Benchmarks        int            `json:"benchmarks"`
	DealerOnly        []string       `json:"dealer_only,omitempty"`
	DuplicateRows     int            `json:"duplicate_rows"`
	FieldErrors       int            `json:"field_errors"`
}

func newSummary() Summary {
	s := Summary{
		ByTier:   make(map[string]int, len(domain.Tiers)),
		BySource: make(map[string]int),
	}
	for _, t := range domain.Tiers {
		s.ByTier[t.String()] = 0
	}
	return s
}

func (s *Summary) add(f facts, r domain.ClosingYieldResult) {
	s.Total++
	if f.security.IsNominal() {
		s.Nominal++
	} else {
		s.Linked++
	}
	if f.activeTrading {
		s.ActiveTrading++
	}
	if f.dealerToday != nil {
		s.TodayDealerQuotes++
	}
	s.ByTier[r.Tier.String()]++
	s.BySource[r.Source]++

	if r.Resolved() {
		s.Resolved++
		return
	}
	s.Unresolved++
	s.UnresolvedIDs = append(s.UnresolvedIDs, r.Security)
	if r.Source == domain.LabelMissingBenchmark {
		s.MissingBenchmark++
	}
}

// Sources returns the distinct source labels in descending count order, ties
// broken alphabetically.
func (s Summary) Sources() []string {
	labels := make([]string, 0, len(s.BySource))
	for l := range s.BySource {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		ci, cj := s.BySource[labels[i]], s.BySource[labels[j]]
		if ci != cj {
			return ci > cj
		}
		return labels[i] < labels[j]
	})
	return labels
}

// Log writes the summary at info level and the unresolved securities at warn.
func (s Summary) Log(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "closing yields resolved",
		"total", s.Total,
		"linked", s.Linked,
		"nominal", s.Nominal,
		"resolved", s.Resolved,
		"today_dealer_quotes", s.TodayDealerQuotes,
		"active_trading", s.ActiveTrading,
		"benchmarks", s.Benchmarks,
		"duplicate_rows", s.DuplicateRows,
		"field_errors", s.FieldErrors,
	)

	attrs := make([]any, 0, len(s.BySource)*2)
	for _, l := range s.Sources() {
		attrs = append(attrs, l, s.BySource[l])
	}
	logger.InfoContext(ctx, "source distribution", slog.Group("sources", attrs...))

	if s.Unresolved > 0 {
		logger.WarnContext(ctx, "missing closing yields",
			"count", s.Unresolved,
			"missing_benchmark", s.MissingBenchmark,
			"securities", s.UnresolvedIDs,
		)
	}
	if len(s.DealerOnly) > 0 {
		logger.WarnContext(ctx, "dealer securities not in exchange report",
			"count", len(s.DealerOnly),
			"securities", s.DealerOnly,
		)
	}
}
