package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"yieldcli/internal/calendar"
	"yieldcli/internal/config"
	"yieldcli/internal/exporter"
	"yieldcli/internal/infrastructure"
	"yieldcli/internal/operations"
	"yieldcli/internal/sources"
	"yieldcli/internal/yieldengine"
)

// app holds the wired daily workflow.
type app struct {
	runner *operations.DailyRunner
	loc    *time.Location
	logger *slog.Logger
}

func newApp(cfg *config.Config, paths *config.Paths, opts *options, telemetry *infrastructure.OTelProviders, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Engine.Location()
	if err != nil {
		return nil, err
	}
	threshold, err := cfg.Engine.Threshold()
	if err != nil {
		return nil, err
	}
	classes, err := cfg.Engine.InstrumentClasses()
	if err != nil {
		return nil, err
	}

	loader, err := sources.NewLoader(sources.Options{
		ReferenceSheet:  cfg.Sources.ReferenceSheet,
		ExchangeSheet:   cfg.Sources.ExchangeSheet,
		ExchangeHeaders: cfg.Sources.ExchangeHeaders,
		LinkedSheet:     cfg.Sources.LinkedSheet,
		LinkedPattern:   cfg.Sources.LinkedPattern,
		NominalSheet:    cfg.Sources.NominalSheet,
		NominalIDColumn: cfg.Sources.NominalIDColumn,
	}, logger)
	if err != nil {
		return nil, err
	}

	engine := yieldengine.NewEngine(yieldengine.Options{
		Threshold:      threshold,
		ClassOverrides: classes,
		Location:       loc,
	}, logger)

	calOpts := []calendar.Option{calendar.WithLocation(loc), calendar.WithExtraDates(cfg.Calendar.ExtraDates...)}
	if cfg.Calendar.Easter {
		calOpts = append(calOpts, calendar.WithEaster())
	}
	if cfg.Calendar.SundayObserved {
		calOpts = append(calOpts, calendar.WithSundayObserved())
	}
	cal, err := calendar.New(cfg.Calendar.Holidays, calOpts...)
	if err != nil {
		return nil, err
	}

	deps := operations.WorkflowDeps{
		Loader:        loader,
		Engine:        engine,
		CSVWriter:     exporter.NewCSVWriter(paths, cfg.Output.Decimals, logger),
		Updater:       exporter.NewWorkbookUpdater(cfg.Output.WorkbookSheet, logger),
		ReferencePath: sourcePath(paths, opts.reference, cfg.Sources.ReferenceFile),
		ExchangePath:  sourcePath(paths, opts.exchange, cfg.Sources.ExchangeFile),
		DealerPath:    sourcePath(paths, opts.dealer, cfg.Sources.DealerFile),
		OutputPath: func(d time.Time) string {
			if opts.out != "" {
				return opts.out
			}
			return paths.ClosingYieldsCSVPath(cfg.Output.CSVPattern, d)
		},
		Logger: logger,
	}
	if opts.workbook != "" || cfg.Output.WorkbookFile != "" {
		deps.WorkbookPath = sourcePath(paths, opts.workbook, cfg.Output.WorkbookFile)
	}

	registry, err := operations.NewDailyWorkflow(deps)
	if err != nil {
		return nil, err
	}
	manager := operations.NewManager(registry, operations.ConfigFromApp(cfg.Retry), logger,
		operations.WithMetrics(telemetry.Metrics),
		operations.WithTracer(telemetry.Tracer))

	runner := operations.NewDailyRunner(manager, cal, telemetry, logger)
	if cfg.Output.StatusReport {
		runner.StatusPath = paths.StatusReportPath
	}
	runner.MetricsPath = paths.MetricsPath(cfg.Telemetry.MetricsFile)

	return &app{runner: runner, loc: loc, logger: logger}, nil
}

// sourcePath prefers an explicit flag value over the dated pattern.
func sourcePath(paths *config.Paths, flagValue, pattern string) operations.PathFunc {
	if flagValue != "" {
		abs, err := filepath.Abs(flagValue)
		if err != nil {
			abs = flagValue
		}
		return operations.FixedPath(abs)
	}
	return func(d time.Time) string { return paths.SourcePath(pattern, d) }
}

// runDate parses the -date flag in the market time zone, defaulting to now.
func (a *app) runDate(value string) (time.Time, error) {
	if value == "" {
		return time.Now().In(a.loc), nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -date %q: expected YYYY-MM-DD", value)
	}
	return d, nil
}
