package operations

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yieldcli/internal/calendar"
	"yieldcli/internal/exporter"
	"yieldcli/internal/infrastructure"
)

// ErrNotTradingDay is returned when a run is requested for a weekend or
// holiday without force.
var ErrNotTradingDay = errors.New("not a trading day")

// DailyRunner runs the workflow once per trading day.
type DailyRunner struct {
	manager   *Manager
	calendar  *calendar.Calendar
	telemetry *infrastructure.OTelProviders
	logger    *slog.Logger

	// StatusPath maps a run date to its status report file; nil disables it
	StatusPath PathFunc
	// MetricsPath is the Prometheus text file written after each run
	MetricsPath string
}

// NewDailyRunner creates a runner. A nil calendar treats every day as a
// trading day.
func NewDailyRunner(manager *Manager, cal *calendar.Calendar, telemetry *infrastructure.OTelProviders, logger *slog.Logger) *DailyRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyRunner{
		manager:   manager,
		calendar:  cal,
		telemetry: telemetry,
		logger:    logger.With("component", "daily_runner"),
	}
}

// Run executes the workflow for runDate. Unless force is set, weekends and
// holidays return ErrNotTradingDay without running anything.
func (r *DailyRunner) Run(ctx context.Context, runDate time.Time, force bool) (*OperationResponse, error) {
	ctx = infrastructure.EnsureTraceID(ctx)

	if r.calendar != nil && !force {
		if reason := r.calendar.Reason(runDate); reason != "" {
			r.logger.InfoContext(ctx, "skipping non-trading day",
				slog.String("run_date", runDate.Format("2006-01-02")),
				slog.String("reason", reason))
			return nil, ErrNotTradingDay
		}
	}

	var metrics *infrastructure.RunMetrics
	if r.telemetry != nil {
		metrics = r.telemetry.Metrics
		var span trace.Span
		ctx, span = r.telemetry.StartSpan(ctx, "closing_yields.run",
			attribute.String("run_date", runDate.Format("2006-01-02")))
		defer span.End()
	}

	resp, err := r.manager.Execute(ctx, OperationRequest{RunDate: runDate})
	if resp != nil {
		metrics.RecordRun(ctx, resp.Duration, string(resp.Status))
		if resp.Summary != nil {
			metrics.RecordSummary(ctx, *resp.Summary)
		}
		r.writeStatus(ctx, resp)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	if r.telemetry != nil && r.MetricsPath != "" {
		if werr := r.telemetry.WriteMetricsFile(r.MetricsPath); werr != nil {
			r.logger.WarnContext(ctx, "metrics file not written", slog.String("error", werr.Error()))
		}
	}
	return resp, err
}

func (r *DailyRunner) writeStatus(ctx context.Context, resp *OperationResponse) {
	report := RenderStatusReport(resp)
	r.logger.InfoContext(ctx, "status report", slog.String("report", report))
	if r.StatusPath == nil {
		return
	}
	path := r.StatusPath(resp.RunDate)
	if err := exporter.WriteTextFile(path, report); err != nil {
		r.logger.WarnContext(ctx, "status report not written", slog.String("error", err.Error()))
	}
}
