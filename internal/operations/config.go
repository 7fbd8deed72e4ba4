package operations

import (
	"time"

	"yieldcli/internal/config"
)

const (
	// DefaultStepTimeout bounds one attempt of a step
	DefaultStepTimeout = 10 * time.Minute
)

// Config represents the workflow execution configuration
type Config struct {
	// Step-specific timeouts
	StepTimeouts map[string]time.Duration `json:"step_timeouts"`

	// DefaultTimeout applies to steps without a specific timeout
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Retry configuration for steps
	RetryConfig RetryConfig `json:"retry_config"`

	// Maximum concurrent steps within a dependency level
	MaxConcurrency int `json:"max_concurrency"`
}

// RetryConfig defines retry behavior for failed steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewConfig returns the default workflow configuration
func NewConfig() *Config {
	return &Config{
		StepTimeouts:   make(map[string]time.Duration),
		DefaultTimeout: DefaultStepTimeout,
		RetryConfig:    NewRetryConfig(),
		MaxConcurrency: 3,
	}
}

// NewRetryConfig returns three attempts fifteen minutes apart
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 15 * time.Minute,
		MaxDelay:     15 * time.Minute,
		Multiplier:   1,
	}
}

// ConfigFromApp maps the application retry settings
func ConfigFromApp(rc config.RetryConfig) *Config {
	cfg := NewConfig()
	cfg.RetryConfig = RetryConfig{
		MaxAttempts:  rc.MaxAttempts,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.Multiplier,
	}
	if rc.StepTimeout > 0 {
		cfg.DefaultTimeout = rc.StepTimeout
	}
	return cfg
}

// GetStepTimeout returns the timeout for a specific Step
func (c *Config) GetStepTimeout(stepID string) time.Duration {
	if timeout, ok := c.StepTimeouts[stepID]; ok {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStepTimeout
}

// SetStepTimeout sets the timeout for a specific Step
func (c *Config) SetStepTimeout(stepID string, timeout time.Duration) {
	if c.StepTimeouts == nil {
		c.StepTimeouts = make(map[string]time.Duration)
	}
	c.StepTimeouts[stepID] = timeout
}

// Delay returns the wait after the given failed attempt (1-based): the
// initial delay scaled linearly by attempt and multiplier, capped at MaxDelay.
func (rc RetryConfig) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	m := rc.Multiplier
	if m <= 0 {
		m = 1
	}
	delay := time.Duration(float64(rc.InitialDelay) * float64(attempt) * m)
	if rc.MaxDelay > 0 && delay > rc.MaxDelay {
		delay = rc.MaxDelay
	}
	return delay
}
