// ABOUTME: Configuration loading and parsing for salesboard
// ABOUTME: YAML files with ${VAR} expansion, SALESBOARD_* env overrides, and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the complete salesboard configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Data     DataConfig     `yaml:"data"`
	UI       UIConfig       `yaml:"ui"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" env:"SALESBOARD_HTTP_ADDR"`

	ShutdownTimeout    time.Duration `yaml:"-"`
	ShutdownTimeoutRaw string        `yaml:"shutdown_timeout" env:"SALESBOARD_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects and locates the account/session database
type DatabaseConfig struct {
	Driver string `yaml:"driver" env:"SALESBOARD_DB_DRIVER"` // "sqlite" or "postgres"
	Path   string `yaml:"path" env:"SALESBOARD_DB_PATH"`     // sqlite file
	DSN    string `yaml:"dsn" env:"SALESBOARD_DB_DSN"`       // postgres connection string
}

// Location returns the path or DSN for the configured driver.
func (d DatabaseConfig) Location() string {
	if d.Driver == "postgres" {
		return d.DSN
	}
	return d.Path
}

// AuthConfig holds password and session settings
type AuthConfig struct {
	PBKDF2Iterations     int  `yaml:"pbkdf2_iterations" env:"SALESBOARD_PBKDF2_ITERATIONS"`
	RestoreLatestSession bool `yaml:"restore_latest_session" env:"SALESBOARD_RESTORE_LATEST_SESSION"`

	SessionDuration time.Duration `yaml:"-"`
	SweepInterval   time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	SessionDurationRaw string `yaml:"session_duration" env:"SALESBOARD_SESSION_DURATION"`
	SweepIntervalRaw   string `yaml:"sweep_interval" env:"SALESBOARD_SWEEP_INTERVAL"`
}

// DataConfig locates the sales dataset
type DataConfig struct {
	// SalesCSV is a local file path or an s3://bucket/key URL.
	SalesCSV string   `yaml:"sales_csv" env:"SALESBOARD_SALES_CSV"`
	S3       S3Config `yaml:"s3"`
}

// S3Config holds object storage settings used when SalesCSV is an s3:// URL.
// Empty credentials fall back to the default AWS credential chain.
type S3Config struct {
	Region          string `yaml:"region" env:"SALESBOARD_S3_REGION"`
	Endpoint        string `yaml:"endpoint" env:"SALESBOARD_S3_ENDPOINT"`
	AccessKeyID     string `yaml:"access_key_id" env:"SALESBOARD_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SALESBOARD_S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `yaml:"use_path_style" env:"SALESBOARD_S3_USE_PATH_STYLE"`
}

// UIConfig holds dashboard page and login throttling settings
type UIConfig struct {
	PreviewRows      int `yaml:"preview_rows" env:"SALESBOARD_UI_PREVIEW_ROWS"`
	TopProducts      int `yaml:"top_products" env:"SALESBOARD_UI_TOP_PRODUCTS"`
	MaxLoginFailures int `yaml:"max_login_failures" env:"SALESBOARD_UI_MAX_LOGIN_FAILURES"`

	FailureWindow    time.Duration `yaml:"-"`
	FailureWindowRaw string        `yaml:"failure_window" env:"SALESBOARD_UI_FAILURE_WINDOW"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SALESBOARD_LOG_LEVEL"`
	Format string `yaml:"format" env:"SALESBOARD_LOG_FORMAT"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:           "127.0.0.1:8501",
			ShutdownTimeoutRaw: "5s",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/salesboard.db",
		},
		Auth: AuthConfig{
			PBKDF2Iterations:   200_000,
			SessionDurationRaw: "168h",
			SweepIntervalRaw:   "1h",
		},
		Data: DataConfig{
			SalesCSV: "data/e_commerce_sales.csv",
		},
		UI: UIConfig{
			PreviewRows:      5,
			TopProducts:      5,
			MaxLoginFailures: 5,
			FailureWindowRaw: "15m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Unset fields keep their Default values. Environment variables in the format
// ${VAR_NAME} are expanded, then SALESBOARD_* variables override file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg)
}

// FromEnv builds a Config from Default plus SALESBOARD_* variables only.
func FromEnv() (*Config, error) {
	return finish(Default())
}

func finish(cfg *Config) (*Config, error) {
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"sqlite\" or \"postgres\", got %q", c.Database.Driver)
	}

	if c.Auth.PBKDF2Iterations < 0 {
		return fmt.Errorf("auth.pbkdf2_iterations must not be negative")
	}
	if c.Auth.SessionDuration < 0 {
		return fmt.Errorf("auth.session_duration must not be negative")
	}

	if c.Data.SalesCSV == "" {
		return fmt.Errorf("data.sales_csv is required")
	}
	if strings.HasPrefix(c.Data.SalesCSV, "s3://") && c.Data.S3.Region == "" {
		return fmt.Errorf("data.s3.region is required when data.sales_csv is an s3:// URL")
	}

	if c.UI.PreviewRows < 0 || c.UI.TopProducts < 0 || c.UI.MaxLoginFailures < 0 {
		return fmt.Errorf("ui.preview_rows, ui.top_products and ui.max_login_failures must not be negative")
	}
	if c.UI.FailureWindow < 0 {
		return fmt.Errorf("ui.failure_window must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.ShutdownTimeoutRaw != "" {
		cfg.Server.ShutdownTimeout, err = time.ParseDuration(cfg.Server.ShutdownTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing shutdown_timeout %q: %w", cfg.Server.ShutdownTimeoutRaw, err)
		}
	}

	if cfg.Auth.SessionDurationRaw != "" {
		cfg.Auth.SessionDuration, err = time.ParseDuration(cfg.Auth.SessionDurationRaw)
		if err != nil {
			return fmt.Errorf("parsing session_duration %q: %w", cfg.Auth.SessionDurationRaw, err)
		}
	}

	if cfg.Auth.SweepIntervalRaw != "" {
		cfg.Auth.SweepInterval, err = time.ParseDuration(cfg.Auth.SweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sweep_interval %q: %w", cfg.Auth.SweepIntervalRaw, err)
		}
	}

	if cfg.UI.FailureWindowRaw != "" {
		cfg.UI.FailureWindow, err = time.ParseDuration(cfg.UI.FailureWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing failure_window %q: %w", cfg.UI.FailureWindowRaw, err)
		}
	}

	return nil
}
