// Package api implements the influxlogd HTTP API.
//
// This package provides:
//   - POST /api/v1/logs to submit one record or an array of records
//   - a WebSocket stream at /api/v1/logs/stream, one record (or array) per frame
//   - GET /api/v1/errors to page through the error journal
//   - GET /api/v1/health and GET /api/v1/metrics for monitoring
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Delivery
//
// Submitted records are decoded and delivered synchronously through the
// appender before the response is written. A 202 means the records were
// handed to the appender, not that InfluxDB stored them: delivery failures
// surface in the error journal.
//
// # Security
//
// When api.jwt_secret is set the /logs routes require an HS256 bearer token
// minted by "influxlogd token". Browsers cannot set headers on a WebSocket
// upgrade, so the stream also accepts the token as a query parameter.
package api
