// Package config handles loading and validating influxlogd configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - The named-property surface of the InfluxDB appender (SetProperty)
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - The InfluxDB password and the API JWT secret should be set via
//     environment variables (INFLUXLOG_APPENDER_PASSWORD, INFLUXLOG_JWT_SECRET)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/influxlog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Appender.URL())
//
// Property-style configuration, as a host logging setup would do it:
//
//	app := config.DefaultAppenderConfig()
//	if err := app.SetProperty("consistencyLevelWrite", "QUORUM"); err != nil {
//	    log.Fatal(err) // unsupported levels fail here, not at write time
//	}
package config
