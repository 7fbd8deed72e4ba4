package operations

import (
	"context"
	"sync/atomic"
	"time"
)

type funcStep struct {
	BaseStep
	run      func(ctx context.Context, state *OperationState) error
	validate func(state *OperationState) error
	calls    atomic.Int32
}

func newFuncStep(id string, run func(ctx context.Context, state *OperationState) error, deps ...string) *funcStep {
	return &funcStep{BaseStep: NewBaseStep(id, "Step "+id, deps...), run: run}
}

func (s *funcStep) Validate(state *OperationState) error {
	if s.validate != nil {
		return s.validate(state)
	}
	return nil
}

func (s *funcStep) Execute(ctx context.Context, state *OperationState) error {
	s.calls.Add(1)
	if s.run == nil {
		return nil
	}
	return s.run(ctx, state)
}

func ok(context.Context, *OperationState) error { return nil }

func fastConfig() *Config {
	cfg := NewConfig()
	cfg.RetryConfig = RetryConfig{MaxAttempts: 3, Multiplier: 1}
	cfg.DefaultTimeout = 5 * time.Second
	return cfg
}

var testRunDate = time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)
