package influxdb

import "errors"

// Sentinel errors for InfluxDB operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb.ErrNotConnected) {
//	    // Handle closed client
//	}
var (
	// ErrNotConnected indicates the client has been closed.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrQueryFailed indicates an InfluxQL statement was rejected or its
	// response could not be decoded.
	ErrQueryFailed = errors.New("influxdb: query failed")

	// ErrProbeFailed indicates the health endpoint could not be reached.
	ErrProbeFailed = errors.New("influxdb: probe failed")

	// ErrWriteFailed indicates a write was not acknowledged.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrTrustStore indicates the trust store could not be loaded.
	ErrTrustStore = errors.New("influxdb: trust store")
)
