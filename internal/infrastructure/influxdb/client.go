package influxdb

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultProbeTimeout   = 5 * time.Second
)

// Options describes one InfluxDB connection.
type Options struct {
	// URL is the server base URL, e.g. "https://influx.local:8086".
	URL string

	// Username and Password authenticate against InfluxDB 1.x. They are sent
	// as the "username:password" token of the v1 compatibility API.
	Username string
	Password string

	// TLSConfig replaces the default transport trust when non-nil.
	TLSConfig *tls.Config

	// Timeout bounds every HTTP round-trip. Zero keeps the library default.
	Timeout time.Duration

	// Consistency is the write consistency level for every write.
	Consistency config.Consistency
}

// Client wraps the InfluxDB v2 client for InfluxDB 1.x style logging.
//
// It provides connection management, database bootstrap, a health probe
// and blocking single-point writes.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Writes block until the server acknowledges or the request fails.
type Client struct {
	client influxdb2.Client
	opts   Options

	// connected tracks current connection state.
	connected bool
	mu        sync.RWMutex
}

// Connect creates a client and verifies the server answers a ping.
//
// It performs the following setup:
//  1. Creates the client with "username:password" token authentication
//  2. Applies millisecond precision, the consistency level, the request
//     timeout and the TLS configuration
//  3. Verifies connectivity with a ping
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: ErrConnectionFailed wrapping the cause
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrConnectionFailed)
	}

	client := influxdb2.NewClientWithOptions(
		strings.TrimRight(opts.URL, "/"),
		authToken(opts.Username, opts.Password),
		clientOptions(opts),
	)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	ok, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("%w: server did not answer ping", ErrConnectionFailed)
	}

	return &Client{
		client:    client,
		opts:      opts,
		connected: true,
	}, nil
}

// clientOptions maps Options onto the library's option builder.
func clientOptions(opts Options) *influxdb2.Options {
	o := influxdb2.DefaultOptions().
		SetPrecision(time.Millisecond).
		SetApplicationName("influxlogd")

	if opts.Timeout > 0 {
		o.SetHTTPRequestTimeout(uint(opts.Timeout / time.Second))
	}
	if opts.TLSConfig != nil {
		o.SetTLSConfig(opts.TLSConfig)
	}
	if opts.Consistency != "" {
		o.WriteOptions().SetConsistency(writeConsistency(opts.Consistency))
	}

	return o
}

// authToken builds the v1 compatibility token. An empty username means no
// authentication header at all.
func authToken(username, password string) string {
	if username == "" {
		return ""
	}
	return username + ":" + password
}

// writeConsistency converts a configured level into the wire value.
func writeConsistency(c config.Consistency) write.Consistency {
	return write.Consistency(strings.ToLower(string(c)))
}

// URL returns the server base URL the client was created with.
func (c *Client) URL() string {
	return c.opts.URL
}

// Close shuts down the InfluxDB connection. Safe to call more than once.
//
// Returns:
//   - error: nil (InfluxDB client Close doesn't return errors)
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.client.Close()
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use Probe which performs an active round-trip.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Probe performs a lightweight round-trip to the health endpoint and
// returns the server version. An empty version means the server answered
// but is not ready to accept writes.
func (c *Client) Probe(ctx context.Context) (string, error) {
	if !c.IsConnected() {
		return "", ErrNotConnected
	}

	probeCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	health, err := c.client.Health(probeCtx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrProbeFailed, err)
	}
	if health == nil || health.Version == nil {
		return "", nil
	}

	return *health.Version, nil
}

