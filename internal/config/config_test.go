package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yieldcli/internal/errors"
	"yieldcli/pkg/contracts/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Retry.InitialDelay)
	assert.Equal(t, "Africa/Johannesburg", cfg.Engine.Timezone)
	assert.Equal(t, "Input", cfg.Output.WorkbookSheet)
	assert.Contains(t, cfg.Calendar.Holidays, "12-16")
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
engine:
  min_deals: 2
  min_nominal: "500,000"
  class_overrides:
    GI25: linked
calendar:
  holidays: ["01-01"]
retry:
  initial_delay: 5m
  max_delay: 30m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"01-01"}, cfg.Calendar.Holidays)
	assert.Equal(t, 5*time.Minute, cfg.Retry.InitialDelay)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts, "untouched keys keep defaults")
	assert.Equal(t, "Bonds-Trading ATS", cfg.Sources.ExchangeSheet)

	th, err := cfg.Engine.Threshold()
	require.NoError(t, err)
	assert.Equal(t, int64(2), th.MinDeals)
	assert.True(t, th.MinNominal.Equal(decimal.NewFromInt(500_000)))

	classes, err := cfg.Engine.InstrumentClasses()
	require.NoError(t, err)
	assert.Equal(t, domain.ClassLinked, classes["GI25"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")
	t.Setenv("YIELD_LOGGING_LEVEL", "error")
	t.Setenv("YIELD_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("YIELD_ENGINE_CLASS_OVERRIDES", "GI25:LINKED,GC30:NOMINAL")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, map[string]string{"GI25": "LINKED", "GC30": "NOMINAL"}, cfg.Engine.ClassOverrides)
	assert.Equal(t, "Yields", cfg.Sources.LinkedSheet, "unset variables keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "logging:\n  colour: blue\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad timezone", "engine:\n  timezone: Mars/Olympus\n"},
		{"bad nominal", "engine:\n  min_nominal: lots\n"},
		{"bad holiday", "calendar:\n  holidays: [\"13-45\"]\n"},
		{"bad override", "engine:\n  class_overrides:\n    GI25: floating\n"},
		{"zero attempts", "retry:\n  max_attempts: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestEngineConfig_Location(t *testing.T) {
	loc, err := Default().Engine.Location()
	require.NoError(t, err)
	assert.Equal(t, "Africa/Johannesburg", loc.String())
}
