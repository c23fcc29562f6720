package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nerrad567/influxlog/internal/appender"
	"github.com/nerrad567/influxlog/internal/infrastructure/config"
	"github.com/nerrad567/influxlog/internal/infrastructure/logging"
	"github.com/nerrad567/influxlog/internal/ingest"
	"github.com/nerrad567/influxlog/internal/journal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Appender is the part of *appender.Appender the API uses.
type Appender interface {
	Deliver(ctx context.Context, ev appender.Event)
	State() appender.State
	URL() string
	LastProbeVersion() string
}

// ConnectionState reports whether a broker connection is up.
// *mqtt.Client and *nats.Conn satisfy it.
type ConnectionState interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Appender Appender

	// Errors receives reports for payloads that fail to decode.
	Errors appender.ErrorHandler

	// Journal is optional; without it /errors answers 503.
	Journal journal.Repository

	// DB is optional and only feeds connection pool metrics.
	DB *sql.DB

	// Brokers maps an ingest transport name to its connection.
	Brokers map[string]ConnectionState

	Version string
}

// Server is the HTTP API server for influxlogd.
//
// It manages the HTTP listener, routes and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	appender   Appender
	dispatcher *ingest.Dispatcher
	journal    journal.Repository
	db         *sql.DB
	brokers    map[string]ConnectionState
	version    string
	startTime  time.Time

	server   *http.Server
	listener net.Listener

	// streams counts open WebSocket connections.
	streams atomic.Int64
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Appender == nil {
		return nil, fmt.Errorf("appender is required")
	}

	return &Server{
		cfg:        deps.Config,
		logger:     deps.Logger.With("component", "api"),
		appender:   deps.Appender,
		dispatcher: ingest.NewDispatcher(deps.Appender, deps.Errors),
		journal:    deps.Journal,
		db:         deps.DB,
		brokers:    deps.Brokers,
		version:    deps.Version,
		startTime:  time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// Binding happens before Start returns, so a port in use is reported here.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
