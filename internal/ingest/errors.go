package ingest

import "errors"

// Sentinel errors for ingest operations.
var (
	ErrInvalidPayload = errors.New("ingest: invalid payload")
	ErrNotStarted     = errors.New("ingest: subscriber not started")
	ErrSubscribe      = errors.New("ingest: subscribe failed")
)
