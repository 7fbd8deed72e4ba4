package yieldengine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"yieldcli/pkg/contracts/domain"
)

// Options configures an Engine. Zero fields take their defaults.
type Options struct {
	// Threshold decides active trading. A zero threshold means the default
	// of one deal and 1,000,000 nominal.
	Threshold domain.ActivityThreshold
	Columns   ColumnMap
	// ClassOverrides fixes the instrument class of named securities instead
	// of inferring it from the exchange benchmark column.
	ClassOverrides map[string]domain.InstrumentClass
	// Location defines the calendar day used for "quoted today".
	Location *time.Location
}

// DefaultOptions returns the standard options in the local time zone.
func DefaultOptions() Options {
	return Options{
		Threshold: domain.DefaultActivityThreshold(),
		Columns:   DefaultColumnMap(),
		Location:  time.Local,
	}
}

// Resolution is the output of one run.
type Resolution struct {
	RunDate     time.Time                   `json:"run_date"`
	Results     []domain.ClosingYieldResult `json:"results"`
	Summary     Summary                     `json:"summary"`
	FieldErrors []FieldParseError           `json:"field_errors,omitempty"`
}

// Engine resolves closing yields. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Threshold.MinDeals == 0 && opts.Threshold.MinNominal.IsZero() {
		opts.Threshold = domain.DefaultActivityThreshold()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	opts.Columns = opts.Columns.withDefaults()

	return &Engine{
		opts:   opts,
		logger: logger.With("component", "yield_engine"),
	}
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Resolve computes the closing yield table for runDate. Results follow the
// order in which securities first appear in the exchange report. The only
// errors are missing inputs; bad cells and unresolved securities are reported
// in the Resolution.
func (e *Engine) Resolve(ctx context.Context, src domain.Sources, runDate time.Time) (*Resolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	norm, err := normalizer{
		cols:      e.opts.Columns,
		overrides: e.opts.ClassOverrides,
		loc:       e.opts.Location,
	}.normalize(src)
	if err != nil {
		e.logger.ErrorContext(ctx, "input validation failed", "error", err)
		return nil, fmt.Errorf("normalize inputs: %w", err)
	}

	for i := range norm.fieldErrors {
		fe := &norm.fieldErrors[i]
		e.logger.WarnContext(ctx, "unparseable cell treated as absent",
			"source", fe.Source,
			"row", fe.Row,
			"column", fe.Column,
			"security", fe.SecurityID,
			"value", fe.Value,
			"error", fe.Err,
		)
	}

	bench := newBenchmarkIndex(norm.benchmarks)
	cls := classifier{threshold: e.opts.Threshold, runDate: runDate, loc: e.opts.Location}

	summary := newSummary()
	summary.Benchmarks = len(bench)
	summary.DealerOnly = norm.dealerOnly
	summary.DuplicateRows = norm.duplicateRows
	summary.FieldErrors = len(norm.fieldErrors)

	results := make([]domain.ClosingYieldResult, 0, len(norm.securities))
	for _, sec := range norm.securities {
		f := cls.classify(sec, norm, bench)
		r := assemble(f, resolve(f))
		summary.add(f, r)
		results = append(results, r)

		e.logger.DebugContext(ctx, "security resolved",
			"security", r.Security,
			"class", string(r.Class),
			"tier", r.Tier.String(),
			"source", r.Source,
			"closing_yield", r.ClosingYield,
		)
	}

	summary.Log(ctx, e.logger)
	e.logger.InfoContext(ctx, "resolution completed",
		"run_date", runDate.In(e.opts.Location).Format("2006-01-02"),
		"duration", time.Since(start),
	)

	return &Resolution{
		RunDate:     runDate,
		Results:     results,
		Summary:     summary,
		FieldErrors: norm.fieldErrors,
	}, nil
}
