package operations

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yieldcli/internal/errors"
	"yieldcli/internal/shared/testutil"
)

func newTestManager(t *testing.T, cfg *Config, steps ...Step) (*Manager, *testutil.BufferedSlogHandler) {
	t.Helper()
	r := NewRegistry()
	for _, s := range steps {
		require.NoError(t, r.Register(s))
	}
	logger, handler := testutil.NewTestLogger(t)
	m := NewManager(r, cfg, logger)
	m.wait = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return m, handler
}

func countMessages(h *testutil.BufferedSlogHandler, msg string) int {
	n := 0
	for _, r := range h.GetRecords() {
		if r.Message == msg {
			n++
		}
	}
	return n
}

func TestManager_ExecuteSuccess(t *testing.T) {
	var order []string
	record := func(id string) func(context.Context, *OperationState) error {
		return func(_ context.Context, state *OperationState) error {
			state.SetContext(id, true)
			return nil
		}
	}
	a := newFuncStep("a", record("a"))
	b := newFuncStep("b", func(_ context.Context, state *OperationState) error {
		_, ok := state.GetContext("a")
		if !ok {
			return errors.New("a did not run first")
		}
		order = append(order, "b")
		return nil
	}, "a")

	m, handler := newTestManager(t, fastConfig(), a, b)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.NoError(t, err)

	assert.Equal(t, OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"a", "b"}, resp.Order)
	assert.Equal(t, []string{"b"}, order)
	assert.Contains(t, resp.ID, "run-20260310-")
	assert.Equal(t, StepStatusCompleted, resp.Steps["b"].Status)
	assert.True(t, handler.ContainsMessage("operation_completed"))
}

func TestManager_RetriesRetryableErrors(t *testing.T) {
	var attempts atomic.Int32
	flaky := newFuncStep("exchange", func(context.Context, *OperationState) error {
		if attempts.Add(1) < 3 {
			return apperrors.NewSourceError("report not published yet", nil)
		}
		return nil
	})

	m, handler := newTestManager(t, fastConfig(), flaky)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.NoError(t, err)

	assert.Equal(t, int32(3), flaky.calls.Load())
	assert.Equal(t, 3, resp.Steps["exchange"].Attempts)
	assert.Equal(t, 2, countMessages(handler, "step_retry"))
}

func TestManager_GivesUpAfterMaxAttempts(t *testing.T) {
	missing := newFuncStep("dealer", func(context.Context, *OperationState) error {
		return apperrors.NewSourceError("dealer sheet missing", nil)
	})

	m, _ := newTestManager(t, fastConfig(), missing)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, int32(3), missing.calls.Load())
	assert.Equal(t, OperationStatusFailed, resp.Status)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSource))
}

func TestManager_NoRetryForPermanentErrors(t *testing.T) {
	bad := newFuncStep("resolve", func(context.Context, *OperationState) error {
		return errors.New("required column missing")
	})

	m, _ := newTestManager(t, fastConfig(), bad)
	_, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, int32(1), bad.calls.Load())
	assert.Equal(t, ErrorTypeExecution, GetErrorType(err))
}

func TestManager_SkipsDependentsOfFailedStep(t *testing.T) {
	reference := newFuncStep("reference", ok)
	exchange := newFuncStep("exchange", func(context.Context, *OperationState) error {
		return errors.New("corrupt workbook")
	})
	dealer := newFuncStep("dealer", ok)
	resolve := newFuncStep("resolve", ok, "reference", "exchange", "dealer")
	export := newFuncStep("export", ok, "resolve")

	m, _ := newTestManager(t, fastConfig(), reference, exchange, dealer, resolve, export)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, StepStatusCompleted, resp.Steps["reference"].Status)
	assert.Equal(t, StepStatusCompleted, resp.Steps["dealer"].Status, "independent steps still run")
	assert.Equal(t, StepStatusFailed, resp.Steps["exchange"].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps["resolve"].Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps["export"].Status)
	assert.Zero(t, resolve.calls.Load())
	assert.Contains(t, resp.Steps["resolve"].Message, "dependency exchange not completed")
}

func TestManager_ValidationFailure(t *testing.T) {
	step := newFuncStep("export", ok)
	step.validate = func(*OperationState) error { return errors.New("missing input resolution") }

	m, _ := newTestManager(t, fastConfig(), step)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, StepStatusFailed, resp.Steps["export"].Status)
	assert.Zero(t, step.calls.Load())
}

func TestManager_StepTimeout(t *testing.T) {
	slow := newFuncStep("reference", func(ctx context.Context, _ *OperationState) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cfg := fastConfig()
	cfg.RetryConfig.MaxAttempts = 2
	cfg.SetStepTimeout("reference", 20*time.Millisecond)

	m, _ := newTestManager(t, cfg, slow)
	_, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.Equal(t, int32(2), slow.calls.Load(), "timeouts are retried")
}

func TestManager_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := newFuncStep("reference", func(context.Context, *OperationState) error {
		cancel()
		return nil
	})
	second := newFuncStep("resolve", ok, "reference")

	m, _ := newTestManager(t, fastConfig(), first, second)
	resp, err := m.Execute(ctx, OperationRequest{RunDate: testRunDate})
	require.Error(t, err)

	assert.Equal(t, OperationStatusCancelled, resp.Status)
	assert.Equal(t, StepStatusSkipped, resp.Steps["resolve"].Status)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestManager_SelectedSteps(t *testing.T) {
	a := newFuncStep("a", ok)
	b := newFuncStep("b", ok, "a")
	c := newFuncStep("c", ok)

	m, _ := newTestManager(t, fastConfig(), a, b, c)
	resp, err := m.Execute(context.Background(), OperationRequest{RunDate: testRunDate, Steps: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, resp.Order)
	assert.Zero(t, a.calls.Load())

	_, err = m.Execute(context.Background(), OperationRequest{RunDate: testRunDate, Steps: []string{"zzz"}})
	assert.ErrorContains(t, err, "requested step not found")
}

func TestRetryConfig_Delay(t *testing.T) {
	rc := NewRetryConfig()
	assert.Equal(t, 15*time.Minute, rc.Delay(1))
	assert.Equal(t, 15*time.Minute, rc.Delay(2), "capped at max delay")

	linear := RetryConfig{InitialDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2}
	assert.Equal(t, 2*time.Second, linear.Delay(1))
	assert.Equal(t, 4*time.Second, linear.Delay(2))
	assert.Equal(t, 6*time.Second, linear.Delay(3))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), 0))
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
