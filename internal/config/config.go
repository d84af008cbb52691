package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "attendx/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. ATTENDX_WATCH_INTERVAL.
const EnvPrefix = "ATTENDX"

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Paths       PathsConfig      `yaml:"paths" envconfig:"PATHS"`
	Watch       WatchConfig      `yaml:"watch" envconfig:"WATCH"`
	Scan        ScanConfig       `yaml:"scan" envconfig:"SCAN"`
	Classifier  ClassifierConfig `yaml:"classifier" envconfig:"CLASSIFIER"`
	Days        []string         `yaml:"days" envconfig:"DAYS"`
	Transitions []string         `yaml:"transitions" envconfig:"TRANSITIONS"`
	Status      StatusConfig     `yaml:"status" envconfig:"STATUS"`
	Telemetry   TelemetryConfig  `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"caseinsensitiveoneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// PathsConfig names the directories and files the pipeline works on.
type PathsConfig struct {
	InboxDir    string `yaml:"inbox_dir" envconfig:"INBOX_DIR" validate:"required"`
	OutboxDir   string `yaml:"outbox_dir" envconfig:"OUTBOX_DIR" validate:"required"`
	SummaryFile string `yaml:"summary_file" envconfig:"SUMMARY_FILE" validate:"required"`
	ReportDir   string `yaml:"report_dir" envconfig:"REPORT_DIR"`
}

// WatchConfig controls the poll loop.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" validate:"min=100ms"`
	// Extensions lists the spreadsheet suffixes picked up from the inbox.
	Extensions []string `yaml:"extensions" envconfig:"EXTENSIONS" validate:"min=1,dive,startswith=."`
}

// ScanConfig fixes the sheet layout. Rows and columns are 1-based.
type ScanConfig struct {
	HeaderRow int `yaml:"header_row" envconfig:"HEADER_ROW" validate:"min=1"`
	StartCol  int `yaml:"start_col" envconfig:"START_COL" validate:"min=1"`
	EndCol    int `yaml:"end_col" envconfig:"END_COL" validate:"gtefield=StartCol"`
	OutputCol int `yaml:"output_col" envconfig:"OUTPUT_COL" validate:"gtfield=EndCol"`
}

// ClassifierConfig tunes colour matching. Palettes map a label name to hex
// colours; they are read from the config file only.
type ClassifierConfig struct {
	Tolerance float64             `yaml:"tolerance" envconfig:"TOLERANCE" validate:"gte=0"`
	Priority  []string            `yaml:"priority" envconfig:"PRIORITY"`
	Palette   map[string][]string `yaml:"palette" ignored:"true" validate:"omitempty,dive,keys,required,endkeys,min=1"`
}

// StatusConfig controls the optional read-only HTTP status server.
type StatusConfig struct {
	Enabled         bool          `yaml:"enabled" envconfig:"ENABLED"`
	Address         string        `yaml:"address" envconfig:"ADDRESS" validate:"required_if=Enabled true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"`
	RateBurst int     `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"gte=0"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, in that order of precedence, then validates it. An empty
// path falls back to ATTENDX_CONFIG and then to the standard locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file
// keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filePath, err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"attendx.yaml",
		"configs/attendx.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/attendx.log",
		},
		Paths: PathsConfig{
			InboxDir:    "inbox",
			OutboxDir:   "outbox",
			SummaryFile: "summary.xlsx",
			ReportDir:   "reports",
		},
		Watch: WatchConfig{
			Interval:   3 * time.Second,
			Extensions: []string{".xlsx", ".xlsm"},
		},
		Scan: ScanConfig{
			HeaderRow: 1,
			StartCol:  1,
			EndCol:    30,
			OutputCol: 31,
		},
		Classifier: ClassifierConfig{
			Tolerance: 40,
			Priority:  []string{"red", "green", "yellow"},
		},
		Transitions: []string{"yellow>red", "green>red"},
		Status: StatusConfig{
			Enabled:         false,
			Address:         "127.0.0.1:8089",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       20,
			RateBurst:       40,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "attendx",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}
