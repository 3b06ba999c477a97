package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source SourceConfig `yaml:"source"`
	Check  CheckConfig  `yaml:"check"`
}

type SourceConfig struct {
	Driver         string `yaml:"driver"`
	Account        string `yaml:"account"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Authenticator  string `yaml:"authenticator"`
	Role           string `yaml:"role"`
	Warehouse      string `yaml:"warehouse"`
	Database       string `yaml:"database"`
	Schema         string `yaml:"schema"`
	DSN            string `yaml:"dsn"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type CheckConfig struct {
	Table           string  `yaml:"table"`
	DateColumn      string  `yaml:"dateColumn"`
	RatioColumn     string  `yaml:"ratioColumn"`
	ExpectedColumns int     `yaml:"expectedColumns"`
	RatioTolerance  float64 `yaml:"ratioTolerance"`
	Timezone        string  `yaml:"timezone"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig seeds defaults before unmarshal, so an explicit zero in the
// file (an exact ratio band) is preserved rather than mistaken for unset.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			TimeoutSeconds: 60,
		},
		Check: CheckConfig{
			DateColumn:      "DATE",
			RatioColumn:     "ROW_EVENT_RATIO",
			ExpectedColumns: 16,
			RatioTolerance:  0.00001,
			Timezone:        "UTC",
		},
	}
}

// applyEnv overlays credentials from the process environment. Environment
// values win over the file so secrets never need to live in the yaml.
func (c *Config) applyEnv() {
	if v := os.Getenv("SNOWFLAKE_ACCOUNT"); v != "" {
		c.Source.Account = v
	}
	if v := os.Getenv("SNOWFLAKE_USER"); v != "" {
		c.Source.User = v
	}
	if v := os.Getenv("SNOWFLAKE_PASSWORD"); v != "" {
		c.Source.Password = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.Source.DSN = v
	}
}

func (c *Config) validate() error {
	switch c.Source.Driver {
	case "snowflake":
		if c.Source.Account == "" {
			return errors.New("source.account is required for snowflake")
		}
		if c.Source.User == "" {
			return errors.New("source.user is required for snowflake")
		}
		if c.Source.Role == "" {
			return errors.New("source.role is required for snowflake")
		}
		if c.Source.Warehouse == "" {
			return errors.New("source.warehouse is required for snowflake")
		}
		// Password auth fails with an opaque connect error otherwise.
		if (c.Source.Authenticator == "" || c.Source.Authenticator == "snowflake") && c.Source.Password == "" {
			return errors.New("source.password is required for snowflake password authentication (set SNOWFLAKE_PASSWORD)")
		}
	case "mysql":
		if c.Source.DSN == "" {
			return errors.New("source.dsn is required for mysql")
		}
	default:
		return fmt.Errorf("source.driver must be snowflake or mysql, got %q", c.Source.Driver)
	}

	if c.Source.TimeoutSeconds < 1 {
		return errors.New("source.timeoutSeconds must be positive")
	}
	if c.Check.Table == "" {
		return errors.New("check.table is required")
	}
	if c.Check.ExpectedColumns < 1 {
		return errors.New("check.expectedColumns must be positive")
	}
	if c.Check.RatioTolerance < 0 {
		return errors.New("check.ratioTolerance must not be negative")
	}
	if _, err := c.Check.Location(); err != nil {
		return fmt.Errorf("check.timezone: %w", err)
	}
	return nil
}

// Location resolves the configured IANA timezone. "Yesterday" for the recency
// check is always computed in this zone, never in the host's local zone.
func (c *CheckConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
