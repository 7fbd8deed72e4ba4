// Package operations runs the daily closing yield workflow as a set of
// dependent steps.
//
// Core Components:
//
// Step: a unit of work with an ID, its dependencies, a Validate check
// against the shared OperationState and an Execute method.
//
// Registry: holds steps in registration order and groups them into
// dependency levels (Kahn's algorithm, registration order breaking ties).
//
// Manager: executes the levels in order. Steps of one level run
// concurrently. Each attempt has a timeout; retryable failures are retried
// with a linear backoff, and steps whose dependencies did not complete are
// skipped.
//
// DailyRunner: applies the trading-day guard, runs the workflow for a date,
// writes the status report and flushes metrics.
//
// Usage:
//
//	registry, err := operations.NewDailyWorkflow(deps)
//	manager := operations.NewManager(registry, operations.NewConfig(), logger)
//	resp, err := manager.Execute(ctx, operations.OperationRequest{RunDate: day})
package operations
