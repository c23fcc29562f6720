package appender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
	"github.com/nerrad567/influxlog/internal/infrastructure/influxdb"
	"github.com/nerrad567/influxlog/internal/infrastructure/logging"
)

// State is the appender lifecycle state.
type State int32

// Lifecycle states.
const (
	StateUninitialized State = iota
	StateActivating
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActivating:
		return "activating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Backend is the InfluxDB capability the appender uses.
// *influxdb.Client implements it.
type Backend interface {
	Probe(ctx context.Context) (string, error)
	EnsureDatabase(ctx context.Context, name string) (bool, error)
	WritePoint(ctx context.Context, database, retentionPolicy string, point *write.Point) error
	Close() error
}

// Connector opens a Backend.
type Connector func(ctx context.Context, opts influxdb.Options) (Backend, error)

// DefaultConnector connects with influxdb.Connect.
func DefaultConnector(ctx context.Context, opts influxdb.Options) (Backend, error) {
	client, err := influxdb.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Options configures an Appender.
type Options struct {
	// Config is copied; later changes to the caller's value have no effect.
	Config config.AppenderConfig

	// Identity is attached to every point.
	Identity Identity

	// ErrorHandler receives every recoverable failure. Defaults to a
	// LogErrorHandler on logging.Default.
	ErrorHandler ErrorHandler

	// Connector defaults to DefaultConnector.
	Connector Connector

	// Logger receives lifecycle diagnostics. It must not have this
	// appender attached. Defaults to logging.Default.
	Logger *logging.Logger
}

// handle is one live backend connection.
type handle struct {
	backend Backend
	url     string

	// version is the most recent probe result.
	version atomic.Value
}

func (h *handle) lastVersion() string {
	v, _ := h.version.Load().(string)
	return v
}

// Appender forwards events to InfluxDB. Create it with New.
type Appender struct {
	cfg      config.AppenderConfig
	identity Identity
	errs     ErrorHandler
	connect  Connector
	logger   *logging.Logger

	// lifecycle serialises Activate and Shutdown.
	lifecycle sync.Mutex
	state     atomic.Int32
	handle    atomic.Pointer[handle]
}

// New creates an Appender in the Uninitialized state. No network activity
// happens until Activate.
func New(opts Options) *Appender {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	errs := opts.ErrorHandler
	if errs == nil {
		errs = NewLogErrorHandler(logger)
	}

	connect := opts.Connector
	if connect == nil {
		connect = DefaultConnector
	}

	return &Appender{
		cfg:      opts.Config,
		identity: opts.Identity,
		errs:     errs,
		connect:  connect,
		logger:   logger.With("component", "influxdb-appender"),
	}
}

// Config returns the appender configuration.
func (a *Appender) Config() config.AppenderConfig {
	return a.cfg
}

// Identity returns the identity attached to every point.
func (a *Appender) Identity() Identity {
	return a.identity
}

// State returns the current lifecycle state.
func (a *Appender) State() State {
	return State(a.state.Load())
}

// URL returns the backend URL derived from the configuration.
func (a *Appender) URL() string {
	return a.cfg.URL()
}

// LastProbeVersion returns the version reported by the most recent probe,
// or "" when no connection is held.
func (a *Appender) LastProbeVersion() string {
	h := a.handle.Load()
	if h == nil {
		return ""
	}
	return h.lastVersion()
}

// RequiresLayout reports that the appender consumes structured events, not
// pre-formatted text.
func (a *Appender) RequiresLayout() bool {
	return false
}

// Activate connects to InfluxDB and makes sure the database exists.
//
// Failures are reported through the ErrorHandler and leave the appender
// Failed. Calling Activate again replaces any existing connection.
func (a *Appender) Activate(ctx context.Context) {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.closeHandle()
	a.state.Store(int32(StateActivating))

	h, err := a.activate(ctx)
	if err != nil {
		a.state.Store(int32(StateFailed))
		a.errs.Report(err.Error())
		return
	}

	a.handle.Store(h)
	a.state.Store(int32(StateReady))
}

// activate builds a handle. A TLS failure is reported on the spot and the
// connection is attempted with the default transport.
func (a *Appender) activate(ctx context.Context) (*handle, error) {
	url := a.cfg.URL()

	opts := influxdb.Options{
		URL:         url,
		Username:    a.cfg.Username,
		Password:    a.cfg.Password,
		Timeout:     a.cfg.TimeoutDuration(),
		Consistency: a.cfg.WriteConsistency,
	}

	if a.cfg.UseTLS() {
		pool, err := influxdb.LoadTrustStore(a.cfg.TrustStore)
		if err != nil {
			a.errs.Report((&tlsError{url: url, err: err}).Error())
		} else {
			opts.TLSConfig = influxdb.PinnedTLSConfig(pool)
		}
	}

	backend, err := a.connect(ctx, opts)
	if err != nil {
		return nil, &stageError{stage: stageSetup, url: url, err: err}
	}

	created, err := backend.EnsureDatabase(ctx, a.cfg.Database)
	if err != nil {
		_ = backend.Close()
		return nil, &stageError{stage: stageSetup, url: url, err: err}
	}

	a.logger.Info("influxdb appender ready",
		"url", url,
		"database", a.cfg.Database,
		"database_created", created,
		"pinned_tls", opts.TLSConfig != nil,
	)

	return &handle{backend: backend, url: url}, nil
}

// Shutdown drops the connection and returns to Uninitialized.
// Safe to call in any state and more than once.
func (a *Appender) Shutdown() {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	a.closeHandle()
	a.state.Store(int32(StateUninitialized))
}

func (a *Appender) closeHandle() {
	if h := a.handle.Swap(nil); h != nil {
		if err := h.backend.Close(); err != nil {
			a.logger.Warn("error closing influxdb connection", "error", err)
		}
	}
}

// Deliver writes one event as a point, blocking until the backend answers.
//
// Without a connection this is a no-op. A probe without a version skips
// the write quietly. Probe and write failures are reported and the event
// is dropped.
func (a *Appender) Deliver(ctx context.Context, ev Event) {
	err := a.deliver(ctx, ev)

	var se *stageError
	if errors.As(err, &se) {
		a.errs.Report(se.Error())
	}
}

func (a *Appender) deliver(ctx context.Context, ev Event) error {
	h := a.handle.Load()
	if h == nil {
		return errNotReady
	}

	// A handle closed by a concurrent Close is treated as never held.
	version, err := h.backend.Probe(ctx)
	if errors.Is(err, influxdb.ErrNotConnected) {
		return errNotReady
	}
	if err != nil {
		return &stageError{stage: stageProbe, url: h.url, err: err}
	}
	h.version.Store(version)
	if version == "" {
		return errBackendNotReady
	}

	point := BuildPoint(a.cfg, a.identity, ev)
	err = h.backend.WritePoint(ctx, a.cfg.Database, a.cfg.RetentionPolicy, point)
	if errors.Is(err, influxdb.ErrNotConnected) {
		return errNotReady
	}
	if err != nil {
		return &stageError{stage: stageWrite, url: h.url, err: err}
	}

	return nil
}
