package appender

import (
	"errors"
	"fmt"
)

var (
	// errNotReady means no connection handle is held.
	errNotReady = errors.New("appender: not ready")

	// errBackendNotReady means the probe answered without a version.
	errBackendNotReady = errors.New("appender: backend reported no version")
)

// Stages named in reported messages.
const (
	stageSetup = "setting up"
	stageProbe = "probing"
	stageWrite = "writing point to"
)

// stageError is a failure that must be reported through the ErrorHandler.
type stageError struct {
	stage string
	url   string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("Error %s InfluxDb logging database at %s: %v", e.stage, e.url, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

// tlsError is reported when the pinned TLS context cannot be built.
type tlsError struct {
	url string
	err error
}

func (e *tlsError) Error() string {
	return fmt.Sprintf("Error creating TLS context %s: %v", e.url, e.err)
}

func (e *tlsError) Unwrap() error {
	return e.err
}
