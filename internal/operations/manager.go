package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"yieldcli/internal/infrastructure"
	"yieldcli/internal/yieldengine"
)

// Manager orchestrates workflow execution
type Manager struct {
	registry *Registry
	config   *Config
	logger   *slog.Logger
	metrics  *infrastructure.RunMetrics
	tracer   trace.Tracer
	// wait blocks between retry attempts
	wait func(ctx context.Context, d time.Duration) error
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithMetrics records step durations and retries
func WithMetrics(metrics *infrastructure.RunMetrics) ManagerOption {
	return func(m *Manager) { m.metrics = metrics }
}

// WithTracer wraps every step attempt in a span
func WithTracer(tracer trace.Tracer) ManagerOption {
	return func(m *Manager) { m.tracer = tracer }
}

// NewManager creates a new workflow manager
func NewManager(registry *Registry, config *Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		registry: registry,
		config:   config,
		logger:   logger.With("component", "operation_manager"),
		tracer:   otel.Tracer(infrastructure.MeterName),
		wait:     sleepContext,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetRegistry returns the registry for accessing registered steps
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// Execute runs the workflow for req.RunDate. Steps of one dependency level
// run concurrently; a failed step skips everything depending on it while
// independent steps still run. The returned error joins all step failures.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateRunID(req.RunDate)
	}
	ctx = infrastructure.WithRunID(ctx, req.ID)
	state := NewOperationState(req.ID, req.RunDate)

	levels, err := m.selectLevels(req.Steps)
	if err != nil {
		m.logger.ErrorContext(ctx, "operation_setup_failed", slog.String("error", err.Error()))
		state.Fail(err)
		return m.createResponse(state), err
	}
	for _, level := range levels {
		for _, step := range level {
			state.AddStep(NewStepState(step.ID(), step.Name()))
		}
	}

	m.logger.InfoContext(ctx, "operation_started",
		slog.String("run_date", req.RunDate.Format("2006-01-02")),
		slog.Int("step_count", len(state.Order)),
		slog.Int("level_count", len(levels)))

	state.Start()
	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(state, "operation cancelled")
			cerr := NewCancellationError("", err)
			state.Cancel(cerr)
			return m.createResponse(state), cerr
		}
		m.runLevel(ctx, state, i, level)
	}

	var errs []error
	for _, s := range m.failedStates(state) {
		errs = append(errs, s.Error)
	}
	if err := errors.Join(errs...); err != nil {
		state.Fail(err)
		m.logger.ErrorContext(ctx, "operation_failed",
			slog.Int("failed_steps", len(errs)),
			slog.Duration("duration", state.Duration()),
			slog.String("error", err.Error()))
		return m.createResponse(state), err
	}

	state.Complete()
	m.logger.InfoContext(ctx, "operation_completed", slog.Duration("duration", state.Duration()))
	return m.createResponse(state), nil
}

// selectLevels returns the dependency levels, restricted to the requested
// steps when given.
func (m *Manager) selectLevels(ids []string) ([][]Step, error) {
	levels, err := m.registry.Levels()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	if len(ids) == 0 {
		return levels, nil
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !m.registry.Has(id) {
			return nil, fmt.Errorf("requested step not found: %s", id)
		}
		want[id] = true
	}
	var out [][]Step
	for _, level := range levels {
		var kept []Step
		for _, step := range level {
			if want[step.ID()] {
				kept = append(kept, step)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out, nil
}

func (m *Manager) runLevel(ctx context.Context, state *OperationState, index int, level []Step) {
	var g errgroup.Group
	if m.config.MaxConcurrency > 0 {
		g.SetLimit(m.config.MaxConcurrency)
	}

	m.logger.DebugContext(ctx, "executing_level",
		slog.Int("level", index),
		slog.Int("step_count", len(level)))

	for _, step := range level {
		step := step
		g.Go(func() error {
			m.executeStep(ctx, state, step)
			return nil
		})
	}
	_ = g.Wait()
}

// executeStep runs one step with dependency check, validation, per-attempt
// timeout and retries. The outcome is recorded in the step state.
func (m *Manager) executeStep(ctx context.Context, state *OperationState, step Step) {
	stepState := state.GetStep(step.ID())
	logger := m.logger.With(slog.String("step", step.ID()))

	for _, dep := range step.Dependencies() {
		depState := state.GetStep(dep)
		if depState == nil {
			// Not selected in this run; its output must already be in the context.
			continue
		}
		if status := depState.GetStatus(); status != StepStatusCompleted {
			reason := NewDependencyError(step.ID(), dep, status).Message
			logger.WarnContext(ctx, "step_skipped", slog.String("reason", reason))
			stepState.Skip(reason)
			return
		}
	}

	if err := step.Validate(state); err != nil {
		verr := NewValidationError(step.ID(), err.Error())
		logger.ErrorContext(ctx, "validation_failed", slog.String("error", err.Error()))
		stepState.Fail(verr)
		return
	}

	retry := m.config.RetryConfig
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	timeout := m.config.GetStepTimeout(step.ID())

	for attempt := 1; attempt <= retry.MaxAttempts; attempt++ {
		stepState.Start()
		err := m.attempt(ctx, state, step, attempt, timeout)
		if err == nil {
			stepState.Complete()
			logger.InfoContext(ctx, "step_completed",
				slog.Int("attempt", attempt),
				slog.Duration("duration", stepState.Duration()))
			return
		}

		if !IsRetryable(err) || attempt == retry.MaxAttempts || ctx.Err() != nil {
			logger.ErrorContext(ctx, "step_failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()))
			stepState.Fail(err)
			return
		}

		delay := retry.Delay(attempt)
		logger.WarnContext(ctx, "step_retry",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retry.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))
		if werr := m.wait(ctx, delay); werr != nil {
			stepState.Fail(NewCancellationError(step.ID(), werr))
			return
		}
	}
}

func (m *Manager) attempt(ctx context.Context, state *OperationState, step Step, attempt int, timeout time.Duration) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stepCtx, span := m.tracer.Start(stepCtx, "step."+step.ID(), trace.WithAttributes(
		attribute.String("step.id", step.ID()),
		attribute.Int("step.attempt", attempt),
	))
	defer span.End()

	start := time.Now()
	err := step.Execute(stepCtx, state)
	duration := time.Since(start)

	if err != nil {
		switch {
		case errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			err = NewTimeoutError(step.ID(), timeout.String())
		case ctx.Err() != nil:
			err = NewCancellationError(step.ID(), ctx.Err())
		default:
			var opErr *OperationError
			if !errors.As(err, &opErr) {
				err = NewExecutionError(step.ID(), err)
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	m.metrics.RecordStep(ctx, step.ID(), duration, err == nil, attempt)
	return err
}

func (m *Manager) skipRemaining(state *OperationState, reason string) {
	for _, id := range state.Order {
		if s := state.GetStep(id); s != nil && s.GetStatus() == StepStatusPending {
			s.Skip(reason)
		}
	}
}

func (m *Manager) failedStates(state *OperationState) []*StepState {
	var failed []*StepState
	for _, id := range state.Order {
		if s := state.GetStep(id); s != nil && s.GetStatus() == StepStatusFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// createResponse creates a response from the final state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		RunDate:  state.RunDate,
		Status:   state.Status,
		Duration: state.Duration(),
		Steps:    state.Steps,
		Order:    state.Order,
	}
	if res, ok := contextValue[*yieldengine.Resolution](state, ContextKeyResolution); ok && res != nil {
		summary := res.Summary
		resp.Summary = &summary
	}
	if path, ok := contextValue[string](state, ContextKeyOutputPath); ok {
		resp.OutputPath = path
	}
	if state.Error != nil {
		resp.Error = state.Error.Error()
	}
	return resp
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
