// Package influxdb provides InfluxDB connectivity for the log appender.
//
// It wraps the official influxdb-client-go v2 library and talks to
// InfluxDB 1.x through its v1 compatibility surface: "username:password"
// token authentication, "database/retention-policy" buckets and InfluxQL
// statements posted to /query for database management.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, influxdb.Options{
//	    URL:         "http://localhost:8086",
//	    Username:    "root",
//	    Consistency: config.ConsistencyOne,
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	if _, err := client.EnsureDatabase(ctx, "Logging"); err != nil {
//	    return err
//	}
//	err = client.WritePoint(ctx, "Logging", "autogen", point)
//
// # TLS
//
// LoadTrustStore reads a PEM bundle and PinnedTLSConfig turns it into a
// tls.Config that trusts only those certificates.
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are blocking: each call is one HTTP round-trip.
//
// # Error Handling
//
// Every failure is returned to the caller wrapped in one of the sentinel
// errors in errors.go.
package influxdb
