package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Consistency is the write consistency level requested from InfluxDB.
// Only the members listed in SupportedConsistencies are accepted.
type Consistency string

// Supported write consistency levels.
const (
	ConsistencyAll    Consistency = "ALL"
	ConsistencyAny    Consistency = "ANY"
	ConsistencyOne    Consistency = "ONE"
	ConsistencyQuorum Consistency = "QUORUM"
)

// SupportedConsistencies lists every accepted level in the order used in
// error messages.
var SupportedConsistencies = []Consistency{
	ConsistencyAll,
	ConsistencyAny,
	ConsistencyOne,
	ConsistencyQuorum,
}

// Named appender properties, as set from a host logging configuration.
const (
	PropertyHost                  = "host"
	PropertyPort                  = "port"
	PropertyUsername              = "username"
	PropertyPassword              = "password"
	PropertySSL                   = "ssl"
	PropertyTrustStore            = "truststore"
	PropertyDatabaseName          = "databaseName"
	PropertyMeasurement           = "measurement"
	PropertyAppName               = "appName"
	PropertyRetentionPolicy       = "retentionPolicy"
	PropertyConsistencyLevelWrite = "consistencyLevelWrite"
)

// sslEnabled is the only ssl property value that turns TLS on.
const sslEnabled = "yes"

// AppenderConfig describes how log records reach InfluxDB.
// It is set once before activation and treated as immutable afterwards.
type AppenderConfig struct {
	Host             string      `yaml:"host"`
	Port             int         `yaml:"port"`
	Username         string      `yaml:"username"`
	Password         string      `yaml:"password"`
	SSL              string      `yaml:"ssl"`
	TrustStore       string      `yaml:"truststore"`
	Database         string      `yaml:"database"`
	Measurement      string      `yaml:"measurement"`
	Application      string      `yaml:"application"`
	RetentionPolicy  string      `yaml:"retention_policy"`
	WriteConsistency Consistency `yaml:"write_consistency"`

	// Timeout bounds each HTTP round-trip to InfluxDB (seconds).
	Timeout int `yaml:"timeout"`

	// Level is the minimum record level forwarded to InfluxDB.
	Level string `yaml:"level"`
}

// DefaultAppenderConfig returns the appender defaults.
func DefaultAppenderConfig() AppenderConfig {
	return AppenderConfig{
		Host:             "localhost",
		Port:             8086,
		Username:         "root",
		Password:         "",
		SSL:              "no",
		TrustStore:       "truststore.jks",
		Database:         "Logging",
		Measurement:      "log_entries",
		Application:      "default",
		RetentionPolicy:  "autogen",
		WriteConsistency: ConsistencyOne,
		Timeout:          20,
		Level:            "debug",
	}
}

// ParseConsistency converts a property value into a Consistency.
// One pair of surrounding double quotes is stripped first.
func ParseConsistency(raw string) (Consistency, error) {
	value := Unquote(raw)
	for _, c := range SupportedConsistencies {
		if string(c) == value {
			return c, nil
		}
	}

	names := make([]string, len(SupportedConsistencies))
	for i, c := range SupportedConsistencies {
		names[i] = string(c)
	}
	return "", fmt.Errorf("%w: consistency level %s wasn't found, available levels: %s",
		ErrUnsupportedConsistency, raw, strings.Join(names, ", "))
}

// String returns the level name.
func (c Consistency) String() string {
	return string(c)
}

// UnmarshalYAML rejects unsupported levels while the file is parsed.
func (c *Consistency) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseConsistency(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// Unquote strips one pair of surrounding double quotes.
// Strings shorter than two characters or without a quote at both ends are
// returned verbatim.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// unquoteStrings applies Unquote to every string property, so a value read
// from YAML behaves the same as one passed to SetProperty.
func (a *AppenderConfig) unquoteStrings() {
	for _, f := range []*string{
		&a.Host,
		&a.Username,
		&a.Password,
		&a.SSL,
		&a.TrustStore,
		&a.Database,
		&a.Measurement,
		&a.Application,
		&a.RetentionPolicy,
	} {
		*f = Unquote(*f)
	}
}

// SetProperty sets a named appender property from its string form.
// An unsupported consistency level fails immediately.
func (a *AppenderConfig) SetProperty(name, value string) error {
	v := Unquote(value)

	switch name {
	case PropertyHost:
		a.Host = v
	case PropertyPort:
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: port %q: %w", ErrInvalidProperty, value, err)
		}
		a.Port = port
	case PropertyUsername:
		a.Username = v
	case PropertyPassword:
		a.Password = v
	case PropertySSL:
		a.SSL = v
	case PropertyTrustStore:
		a.TrustStore = v
	case PropertyDatabaseName:
		a.Database = v
	case PropertyMeasurement:
		a.Measurement = v
	case PropertyAppName:
		a.Application = v
	case PropertyRetentionPolicy:
		a.RetentionPolicy = v
	case PropertyConsistencyLevelWrite:
		c, err := ParseConsistency(value)
		if err != nil {
			return err
		}
		a.WriteConsistency = c
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}

	return nil
}

// Property returns the string form of a named appender property.
func (a *AppenderConfig) Property(name string) (string, error) {
	switch name {
	case PropertyHost:
		return a.Host, nil
	case PropertyPort:
		return strconv.Itoa(a.Port), nil
	case PropertyUsername:
		return a.Username, nil
	case PropertyPassword:
		return a.Password, nil
	case PropertySSL:
		return a.SSL, nil
	case PropertyTrustStore:
		return a.TrustStore, nil
	case PropertyDatabaseName:
		return a.Database, nil
	case PropertyMeasurement:
		return a.Measurement, nil
	case PropertyAppName:
		return a.Application, nil
	case PropertyRetentionPolicy:
		return a.RetentionPolicy, nil
	case PropertyConsistencyLevelWrite:
		return a.WriteConsistency.String(), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
}

// UseTLS reports whether the ssl property enables TLS.
func (a *AppenderConfig) UseTLS() bool {
	return a.SSL == sslEnabled
}

// URL returns the InfluxDB base URL: https when TLS is enabled, http otherwise.
func (a *AppenderConfig) URL() string {
	scheme := "http"
	if a.UseTLS() {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// TimeoutDuration returns the per-request timeout as a Duration.
func (a *AppenderConfig) TimeoutDuration() time.Duration {
	return time.Duration(a.Timeout) * time.Second
}

// validate returns one message per invalid appender field.
func (a *AppenderConfig) validate() []string {
	var errs []string

	if a.Host == "" {
		errs = append(errs, "appender.host is required")
	}
	if a.Port < 1 || a.Port > 65535 {
		errs = append(errs, "appender.port must be between 1 and 65535")
	}
	if a.Database == "" {
		errs = append(errs, "appender.database is required")
	}
	if a.Measurement == "" {
		errs = append(errs, "appender.measurement is required")
	}
	if _, err := ParseConsistency(string(a.WriteConsistency)); err != nil {
		errs = append(errs, err.Error())
	}
	if a.Timeout < 0 {
		errs = append(errs, "appender.timeout must not be negative")
	}
	if a.UseTLS() && a.TrustStore == "" {
		errs = append(errs, "appender.truststore is required when ssl is enabled")
	}

	return errs
}
