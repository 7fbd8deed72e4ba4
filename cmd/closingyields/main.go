package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"yieldcli/internal/config"
	"yieldcli/internal/infrastructure"
	"yieldcli/internal/operations"
	"yieldcli/internal/scheduler"
	"yieldcli/pkg/contracts"
)

// options are the command line overrides of the configuration.
type options struct {
	configPath string
	reference  string
	exchange   string
	dealer     string
	workbook   string
	out        string
	date       string
	schedule   string
	force      bool
	version    bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	fs := flag.NewFlagSet("closingyields", flag.ContinueOnError)
	fs.SetOutput(output)

	o := &options{}
	fs.StringVar(&o.configPath, "config", "", "configuration file (defaults to config.yaml or configs/config.yaml)")
	fs.StringVar(&o.reference, "reference", "", "benchmark yields file (overrides sources.reference_file)")
	fs.StringVar(&o.exchange, "exchange", "", "exchange trading report workbook (overrides sources.exchange_file)")
	fs.StringVar(&o.dealer, "dealer", "", "dealer pricing workbook (overrides sources.dealer_file)")
	fs.StringVar(&o.workbook, "workbook", "", "distribution workbook to append the day's yields to")
	fs.StringVar(&o.out, "out", "", "closing yields CSV (defaults to reports/closing_yields_YYYYMMDD.csv)")
	fs.StringVar(&o.date, "date", "", "run date YYYY-MM-DD (defaults to today)")
	fs.StringVar(&o.schedule, "schedule", "", "cron expression; run as a daemon instead of once")
	fs.BoolVar(&o.force, "force", false, "run on weekends and holidays")
	fs.BoolVar(&o.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stderr)
	stop()
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		slog.Error("closingyields failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, output io.Writer) error {
	opts, err := parseFlags(args, output)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(output, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.schedule != "" {
		cfg.Schedule.Cron = opts.schedule
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	if cfg.Logging.Output != "console" {
		cfg.Logging.FilePath = paths.LogPath(cfg.Logging.FilePath)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()
	paths.LogPathResolution(logger)

	telemetry, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	a, err := newApp(cfg, paths, opts, telemetry, logger)
	if err != nil {
		return err
	}

	if cfg.Schedule.Cron == "" {
		runDate, err := a.runDate(opts.date)
		if err != nil {
			return err
		}
		_, err = a.runner.Run(ctx, runDate, opts.force)
		if errors.Is(err, operations.ErrNotTradingDay) {
			logger.Info("nothing to do", slog.String("run_date", runDate.Format("2006-01-02")))
			return nil
		}
		return err
	}

	return a.serve(ctx, cfg.Schedule, opts.force)
}

// serve runs the workflow on every scheduled tick until ctx is done.
func (a *app) serve(ctx context.Context, sc config.ScheduleConfig, force bool) error {
	sched := scheduler.New(ctx, a.loc, a.logger)
	job := func(ctx context.Context, at time.Time) {
		if _, err := a.runner.Run(ctx, at, force); err != nil && !errors.Is(err, operations.ErrNotTradingDay) {
			a.logger.ErrorContext(ctx, "scheduled run failed", slog.String("error", err.Error()))
		}
	}
	if _, err := sched.Add(sc.Cron, job); err != nil {
		return err
	}

	a.logger.Info("closing yields daemon started", slog.String("schedule", sc.Cron))
	if sc.RunOnStart {
		job(ctx, time.Now().In(a.loc))
	}
	sched.Run(ctx)
	return nil
}
