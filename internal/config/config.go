package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	apperrors "yieldcli/internal/errors"
	"yieldcli/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. YIELD_LOGGING_LEVEL.
const EnvPrefix = "YIELD"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Engine    EngineConfig    `yaml:"engine" envconfig:"ENGINE"`
	Output    OutputConfig    `yaml:"output" envconfig:"OUTPUT"`
	Calendar  CalendarConfig  `yaml:"calendar" envconfig:"CALENDAR"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Schedule  ScheduleConfig  `yaml:"schedule" envconfig:"SCHEDULE"`
	Retry     RetryConfig     `yaml:"retry" envconfig:"RETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig contains file system locations. Relative directories resolve
// against BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// SourcesConfig locates the daily input files. File names may contain
// {date} (YYYYMMDD) or {iso_date} (YYYY-MM-DD); relative names resolve
// against the data directory.
type SourcesConfig struct {
	ReferenceFile   string   `yaml:"reference_file" envconfig:"REFERENCE_FILE" validate:"required"`
	ReferenceSheet  string   `yaml:"reference_sheet" envconfig:"REFERENCE_SHEET"`
	ExchangeFile    string   `yaml:"exchange_file" envconfig:"EXCHANGE_FILE" validate:"required"`
	ExchangeSheet   string   `yaml:"exchange_sheet" envconfig:"EXCHANGE_SHEET" validate:"required"`
	ExchangeHeaders []string `yaml:"exchange_headers" envconfig:"EXCHANGE_HEADERS" validate:"min=1,dive,required"`
	DealerFile      string   `yaml:"dealer_file" envconfig:"DEALER_FILE" validate:"required"`
	LinkedSheet     string   `yaml:"linked_sheet" envconfig:"LINKED_SHEET" validate:"required"`
	LinkedPattern   string   `yaml:"linked_pattern" envconfig:"LINKED_PATTERN" validate:"required"`
	NominalSheet    string   `yaml:"nominal_sheet" envconfig:"NOMINAL_SHEET" validate:"required"`
	NominalIDColumn string   `yaml:"nominal_id_column" envconfig:"NOMINAL_ID_COLUMN" validate:"required"`
}

// EngineConfig tunes closing yield resolution.
type EngineConfig struct {
	MinDeals       int64             `yaml:"min_deals" envconfig:"MIN_DEALS" validate:"min=0"`
	MinNominal     string            `yaml:"min_nominal" envconfig:"MIN_NOMINAL" validate:"required"`
	Timezone       string            `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	ClassOverrides map[string]string `yaml:"class_overrides" envconfig:"CLASS_OVERRIDES" validate:"dive,keys,required,endkeys,oneof=LINKED NOMINAL linked nominal"`
}

// OutputConfig controls the result files.
type OutputConfig struct {
	CSVPattern    string `yaml:"csv_pattern" envconfig:"CSV_PATTERN" validate:"required"`
	Decimals      int32  `yaml:"decimals" envconfig:"DECIMALS" validate:"min=0,max=10"`
	StatusReport  bool   `yaml:"status_report" envconfig:"STATUS_REPORT"`
	WorkbookFile  string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`
	WorkbookSheet string `yaml:"workbook_sheet" envconfig:"WORKBOOK_SHEET" validate:"required"`
}

// CalendarConfig describes non-trading days. Holidays are MM-DD dates
// repeating every year; ExtraDates are one-off YYYY-MM-DD closures.
type CalendarConfig struct {
	Holidays       []string `yaml:"holidays" envconfig:"HOLIDAYS" validate:"dive,datetime=01-02"`
	ExtraDates     []string `yaml:"extra_dates" envconfig:"EXTRA_DATES" validate:"dive,datetime=2006-01-02"`
	Easter         bool     `yaml:"easter" envconfig:"EASTER"`
	SundayObserved bool     `yaml:"sunday_observed" envconfig:"SUNDAY_OBSERVED"`
}

// TelemetryConfig controls tracing and metrics.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceStdout bool   `yaml:"trace_stdout" envconfig:"TRACE_STDOUT"`
	MetricsFile string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ScheduleConfig controls daemon mode.
type ScheduleConfig struct {
	Cron       string `yaml:"cron" envconfig:"CRON" validate:"omitempty,cron"`
	RunOnStart bool   `yaml:"run_on_start" envconfig:"RUN_ON_START"`
}

// RetryConfig controls retries of failed collection steps.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"min=1,max=20"`
	InitialDelay time.Duration `yaml:"initial_delay" envconfig:"INITIAL_DELAY" validate:"min=0"`
	MaxDelay     time.Duration `yaml:"max_delay" envconfig:"MAX_DELAY" validate:"gtefield=InitialDelay"`
	Multiplier   float64       `yaml:"multiplier" envconfig:"MULTIPLIER" validate:"gte=1"`
	StepTimeout  time.Duration `yaml:"step_timeout" envconfig:"STEP_TIMEOUT" validate:"gt=0"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/closingyields.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
		Sources: SourcesConfig{
			ReferenceFile:   "bloomberg/bond_yields_{date}.csv",
			ExchangeFile:    "nsx/nsx_daily_{date}.xlsx",
			ExchangeSheet:   "Bonds-Trading ATS",
			ExchangeHeaders: []string{"Security", "Benchmark"},
			DealerFile:      "ijg/ijg_daily_{date}.xlsx",
			LinkedSheet:     "Yields",
			LinkedPattern:   `^GI\d{2}$`,
			NominalSheet:    "Spread calc",
			NominalIDColumn: "Government",
		},
		Engine: EngineConfig{
			MinDeals:   1,
			MinNominal: "1000000",
			Timezone:   "Africa/Johannesburg",
		},
		Output: OutputConfig{
			CSVPattern:    "closing_yields_{date}.csv",
			Decimals:      4,
			StatusReport:  true,
			WorkbookSheet: "Input",
		},
		Calendar: CalendarConfig{
			Holidays: []string{
				"01-01", "03-21", "04-28", "05-01", "06-16",
				"08-09", "09-24", "12-16", "12-25", "12-26",
			},
			Easter:         true,
			SundayObserved: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "closingyields",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 15 * time.Minute,
			MaxDelay:     15 * time.Minute,
			Multiplier:   1,
			StepTimeout:  10 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, then the first config file
// found (explicit path or the standard locations), then YIELD_* environment
// variables, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("load config file", err).WithContext("path", path)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays YAML settings onto cfg. Keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Validate checks struct constraints and the values that need parsing.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if _, err := c.Engine.Threshold(); err != nil {
		return apperrors.NewConfigError("engine", err)
	}
	if _, err := c.Engine.Location(); err != nil {
		return apperrors.NewConfigError("engine", err)
	}
	return nil
}

// Threshold returns the active-trading threshold.
func (e EngineConfig) Threshold() (domain.ActivityThreshold, error) {
	n, err := decimal.NewFromString(strings.ReplaceAll(e.MinNominal, ",", ""))
	if err != nil {
		return domain.ActivityThreshold{}, fmt.Errorf("invalid min_nominal %q: %w", e.MinNominal, err)
	}
	if n.IsNegative() {
		return domain.ActivityThreshold{}, fmt.Errorf("min_nominal must not be negative")
	}
	return domain.ActivityThreshold{MinDeals: e.MinDeals, MinNominal: n}, nil
}

// Location loads the configured time zone.
func (e EngineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// InstrumentClasses parses the class overrides.
func (e EngineConfig) InstrumentClasses() (map[string]domain.InstrumentClass, error) {
	if len(e.ClassOverrides) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.InstrumentClass, len(e.ClassOverrides))
	for id, raw := range e.ClassOverrides {
		class, err := domain.ParseInstrumentClass(raw)
		if err != nil {
			return nil, fmt.Errorf("class override for %s: %w", id, err)
		}
		out[strings.TrimSpace(id)] = class
	}
	return out, nil
}
