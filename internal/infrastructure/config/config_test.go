package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
appender:
  host: "influx.internal"
  port: 8087
  database: "AppLogs"
  application: "billing"
  write_consistency: "QUORUM"
journal:
  enabled: true
  path: "/tmp/journal.db"
mqtt:
  enabled: true
  topic: "apps/+/logs"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Appender.Host != "influx.internal" {
		t.Errorf("Appender.Host = %q, want %q", cfg.Appender.Host, "influx.internal")
	}
	if cfg.Appender.Port != 8087 {
		t.Errorf("Appender.Port = %d, want 8087", cfg.Appender.Port)
	}
	if cfg.Appender.WriteConsistency != ConsistencyQuorum {
		t.Errorf("Appender.WriteConsistency = %q, want QUORUM", cfg.Appender.WriteConsistency)
	}
	// Fields left out of the file keep their defaults.
	if cfg.Appender.Measurement != "log_entries" {
		t.Errorf("Appender.Measurement = %q, want %q", cfg.Appender.Measurement, "log_entries")
	}
	if cfg.Appender.RetentionPolicy != "autogen" {
		t.Errorf("Appender.RetentionPolicy = %q, want %q", cfg.Appender.RetentionPolicy, "autogen")
	}
	if cfg.MQTT.Topic != "apps/+/logs" {
		t.Errorf("MQTT.Topic = %q, want %q", cfg.MQTT.Topic, "apps/+/logs")
	}
}

func TestLoad_QuotedAppenderStrings(t *testing.T) {
	content := `
appender:
  host: '"influx"'
  database: '"AppLogs"'
  retention_policy: '"weekly"'
  password: '"'
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{field: "Host", got: cfg.Appender.Host, want: "influx"},
		{field: "Database", got: cfg.Appender.Database, want: "AppLogs"},
		{field: "RetentionPolicy", got: cfg.Appender.RetentionPolicy, want: "weekly"},
		{field: "Password", got: cfg.Appender.Password, want: `"`},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Appender.%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_UnsupportedConsistency(t *testing.T) {
	content := `
appender:
  write_consistency: "QIORUM"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected error for unsupported consistency level, got nil")
	}
	if !strings.Contains(err.Error(), "ALL, ANY, ONE, QUORUM") {
		t.Errorf("error %q should list the supported levels", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
appender:
  database: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty appender.database, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	validSecret := "test-secret-key-at-least-32-chars!"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(_ *Config) {}},
		{
			name:    "invalid appender port",
			mutate:  func(c *Config) { c.Appender.Port = 0 },
			wantErr: true,
		},
		{
			name:    "empty measurement",
			mutate:  func(c *Config) { c.Appender.Measurement = "" },
			wantErr: true,
		},
		{
			name:    "unsupported consistency",
			mutate:  func(c *Config) { c.Appender.WriteConsistency = "some" },
			wantErr: true,
		},
		{
			name: "ssl without truststore",
			mutate: func(c *Config) {
				c.Appender.SSL = "yes"
				c.Appender.TrustStore = ""
			},
			wantErr: true,
		},
		{
			name: "journal enabled without path",
			mutate: func(c *Config) {
				c.Journal.Enabled = true
				c.Journal.Path = ""
			},
			wantErr: true,
		},
		{
			name: "invalid mqtt qos",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.QoS = 3
			},
			wantErr: true,
		},
		{
			name: "mqtt qos ignored when disabled",
			mutate: func(c *Config) {
				c.MQTT.QoS = 3
			},
		},
		{
			name: "nats without subject",
			mutate: func(c *Config) {
				c.NATS.Enabled = true
				c.NATS.Subject = ""
			},
			wantErr: true,
		},
		{
			name: "api port high",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: true,
		},
		{
			name: "api jwt secret too short",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.JWTSecret = "short"
			},
			wantErr: true,
		},
		{
			name: "api jwt secret valid",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.JWTSecret = validSecret
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("INFLUXLOG_APPENDER_HOST", "influx.example.com")
	t.Setenv("INFLUXLOG_APPENDER_PORT", "9086")
	t.Setenv("INFLUXLOG_APPENDER_PASSWORD", `"s3cret"`)
	t.Setenv("INFLUXLOG_APPENDER_CONSISTENCY", "ALL")
	t.Setenv("INFLUXLOG_JOURNAL_PATH", "/custom/journal.db")
	t.Setenv("INFLUXLOG_MQTT_HOST", "mqtt.example.com")
	t.Setenv("INFLUXLOG_NATS_URL", "nats://nats.example.com:4222")
	t.Setenv("INFLUXLOG_API_PORT", "9000")
	t.Setenv("INFLUXLOG_JWT_SECRET", "jwt-secret")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.Appender.Host != "influx.example.com" {
		t.Errorf("Appender.Host = %q, want %q", cfg.Appender.Host, "influx.example.com")
	}
	if cfg.Appender.Port != 9086 {
		t.Errorf("Appender.Port = %d, want 9086", cfg.Appender.Port)
	}
	if cfg.Appender.Password != "s3cret" {
		t.Errorf("Appender.Password = %q, want quotes stripped", cfg.Appender.Password)
	}
	if cfg.Appender.WriteConsistency != ConsistencyAll {
		t.Errorf("Appender.WriteConsistency = %q, want ALL", cfg.Appender.WriteConsistency)
	}
	if cfg.Journal.Path != "/custom/journal.db" {
		t.Errorf("Journal.Path = %q, want %q", cfg.Journal.Path, "/custom/journal.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.NATS.URL != "nats://nats.example.com:4222" {
		t.Errorf("NATS.URL = %q", cfg.NATS.URL)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	if cfg.API.JWTSecret != "jwt-secret" {
		t.Errorf("API.JWTSecret = %q, want %q", cfg.API.JWTSecret, "jwt-secret")
	}
}

func TestApplyEnvOverrides_BadConsistency(t *testing.T) {
	cfg := defaultConfig()
	t.Setenv("INFLUXLOG_APPENDER_CONSISTENCY", "MOST")

	err := applyEnvOverrides(cfg)
	if !errors.Is(err, ErrUnsupportedConsistency) {
		t.Errorf("applyEnvOverrides() error = %v, want ErrUnsupportedConsistency", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Appender.Port != 8086 {
		t.Errorf("Appender.Port = %d, want 8086", cfg.Appender.Port)
	}
	if cfg.Journal.Path == "" {
		t.Error("defaultConfig should have non-empty Journal.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
