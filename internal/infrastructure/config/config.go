package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for influxlogd.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Appender AppenderConfig `yaml:"appender"`
	Logging  LoggingConfig  `yaml:"logging"`
	Journal  JournalConfig  `yaml:"journal"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	NATS     NATSConfig     `yaml:"nats"`
	API      APIConfig      `yaml:"api"`
}

// LoggingConfig contains settings for the process's own diagnostic log.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// JournalConfig contains settings for the SQLite error journal.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT ingest settings.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	Topic   string           `yaml:"topic"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig contains NATS ingest settings.
type NATSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig contains the admin and ingest HTTP API settings.
type APIConfig struct {
	Enabled   bool             `yaml:"enabled"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	JWTSecret string           `yaml:"jwt_secret"`
	Timeouts  APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// minJWTSecretLength is the shortest accepted HMAC secret for ingest tokens.
const minJWTSecretLength = 32

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: INFLUXLOG_SECTION_KEY
// For example: INFLUXLOG_APPENDER_HOST, INFLUXLOG_JOURNAL_PATH
//
// An unsupported write consistency level fails here, while parsing, rather
// than at the first write.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Appender.unquoteStrings()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration. It is what influxlogd runs
// with when every section is left out of the YAML file.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Appender: DefaultAppenderConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Journal: JournalConfig{
			Path:        "./data/influxlog.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "influxlogd",
			},
			Topic: "influxlog/logs/#",
			QoS:   1,
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Subject: "influxlog.logs.>",
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8087,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values pass through the same property setters as the YAML appender section,
// so quoting and consistency rules are identical.
func applyEnvOverrides(cfg *Config) error {
	appenderVars := []struct {
		env      string
		property string
	}{
		{"INFLUXLOG_APPENDER_HOST", PropertyHost},
		{"INFLUXLOG_APPENDER_PORT", PropertyPort},
		{"INFLUXLOG_APPENDER_USERNAME", PropertyUsername},
		{"INFLUXLOG_APPENDER_PASSWORD", PropertyPassword},
		{"INFLUXLOG_APPENDER_SSL", PropertySSL},
		{"INFLUXLOG_APPENDER_TRUSTSTORE", PropertyTrustStore},
		{"INFLUXLOG_APPENDER_DATABASE", PropertyDatabaseName},
		{"INFLUXLOG_APPENDER_CONSISTENCY", PropertyConsistencyLevelWrite},
	}
	for _, v := range appenderVars {
		if value := os.Getenv(v.env); value != "" {
			if err := cfg.Appender.SetProperty(v.property, value); err != nil {
				return fmt.Errorf("%s: %w", v.env, err)
			}
		}
	}

	if v := os.Getenv("INFLUXLOG_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("INFLUXLOG_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("INFLUXLOG_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("INFLUXLOG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("INFLUXLOG_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("INFLUXLOG_API_PORT: %w", err)
		}
		cfg.API.Port = port
	}
	if v := os.Getenv("INFLUXLOG_JWT_SECRET"); v != "" {
		cfg.API.JWTSecret = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	errs := c.Appender.validate()

	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when the journal is enabled")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Topic == "" {
			errs = append(errs, "mqtt.topic is required when mqtt ingest is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.NATS.Enabled && c.NATS.Subject == "" {
		errs = append(errs, "nats.subject is required when nats ingest is enabled")
	}

	if c.API.Enabled {
		if c.API.Port < 1 || c.API.Port > 65535 {
			errs = append(errs, "api.port must be between 1 and 65535")
		}
		if c.API.JWTSecret != "" && len(c.API.JWTSecret) < minJWTSecretLength {
			errs = append(errs, "api.jwt_secret must be at least 32 characters")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
