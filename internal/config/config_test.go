package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validSnowflake = `
source:
  driver: snowflake
  account: myorg-myaccount
  user: qa-bot
  authenticator: externalbrowser
  role: ANALYTICS_READ
  warehouse: ANALYTICS_WH
  database: ANALYTICS
  schema: REPORTING
check:
  table: QA_DAILY_SUMMARY
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validSnowflake))
	if err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
	if cfg.Check.DateColumn != "DATE" {
		t.Fatalf("expected default date column, got %q", cfg.Check.DateColumn)
	}
	if cfg.Check.ExpectedColumns != 16 {
		t.Fatalf("expected default column count 16, got %d", cfg.Check.ExpectedColumns)
	}
	if cfg.Check.RatioTolerance != 0.00001 {
		t.Fatalf("expected default tolerance 1e-5, got %v", cfg.Check.RatioTolerance)
	}
	if cfg.Check.Timezone != "UTC" {
		t.Fatalf("expected default timezone UTC, got %q", cfg.Check.Timezone)
	}
	if cfg.Source.TimeoutSeconds != 60 {
		t.Fatalf("expected default timeout 60s, got %d", cfg.Source.TimeoutSeconds)
	}
}

func TestLoad_UnknownDriver(t *testing.T) {
	body := `
source:
  driver: postgres
  dsn: whatever
check:
  table: QA_DAILY_SUMMARY
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestLoad_MissingTable(t *testing.T) {
	body := `
source:
  driver: mysql
  dsn: user:pass@tcp(localhost:3306)/analytics
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestLoad_SnowflakeRequiresRole(t *testing.T) {
	body := `
source:
  driver: snowflake
  account: myorg-myaccount
  user: qa-bot
  warehouse: ANALYTICS_WH
check:
  table: QA_DAILY_SUMMARY
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	body := validSnowflake + `  timezone: Mars/Olympus
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error, got nil")
	}
}

// An explicit zero tolerance means an exact ratio band; it must not be
// mistaken for unset and rewritten to the default.
func TestLoad_ExplicitZeroTolerance(t *testing.T) {
	body := validSnowflake + `  ratioTolerance: 0
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
	if cfg.Check.RatioTolerance != 0 {
		t.Fatalf("expected tolerance 0 to survive, got %v", cfg.Check.RatioTolerance)
	}
}

func TestLoad_PasswordAuthRequiresPassword(t *testing.T) {
	body := `
source:
  driver: snowflake
  account: myorg-myaccount
  user: qa-bot
  role: ANALYTICS_READ
  warehouse: ANALYTICS_WH
check:
  table: QA_DAILY_SUMMARY
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for missing password, got nil")
	}

	t.Setenv("SNOWFLAKE_PASSWORD", "s3cret")
	if _, err := Load(writeConfig(t, body)); err != nil {
		t.Fatalf("expected env password to satisfy validation, got: %v", err)
	}
}

func TestLoad_ZeroTimeout(t *testing.T) {
	body := `
source:
  driver: snowflake
  account: myorg-myaccount
  user: qa-bot
  authenticator: externalbrowser
  role: ANALYTICS_READ
  warehouse: ANALYTICS_WH
  timeoutSeconds: 0
check:
  table: QA_DAILY_SUMMARY
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected validation error for zero timeout, got nil")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SNOWFLAKE_USER", "env-bot")
	t.Setenv("SNOWFLAKE_PASSWORD", "s3cret")

	cfg, err := Load(writeConfig(t, validSnowflake))
	if err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
	if cfg.Source.User != "env-bot" {
		t.Fatalf("expected env user to win, got %q", cfg.Source.User)
	}
	if cfg.Source.Password != "s3cret" {
		t.Fatalf("expected env password, got %q", cfg.Source.Password)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected read error, got nil")
	}
}
