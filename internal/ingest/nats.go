package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
)

// DefaultNATSSubject matches every log subject.
const DefaultNATSSubject = "influxlog.logs.>"

const (
	natsClientName     = "influxlogd"
	natsConnectTimeout = 5 * time.Second
	natsReconnectWait  = 2 * time.Second
	natsMaxReconnects  = -1
)

// ConnectNATS dials the configured NATS server. Reconnects are unlimited.
func ConnectNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	conn, err := nats.Connect(cfg.URL, natsOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", cfg.URL, err)
	}
	return conn, nil
}

func natsOptions(cfg config.NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.Name(natsClientName),
		nats.Timeout(natsConnectTimeout),
		nats.ReconnectWait(natsReconnectWait),
		nats.MaxReconnects(natsMaxReconnects),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	return opts
}

// NATSSubscriber forwards records published on a NATS subject.
type NATSSubscriber struct {
	conn       *nats.Conn
	subject    string
	dispatcher *Dispatcher

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewNATSSubscriber binds conn to the configured subject. An empty subject
// falls back to DefaultNATSSubject.
func NewNATSSubscriber(conn *nats.Conn, cfg config.NATSConfig, d *Dispatcher) *NATSSubscriber {
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSSubscriber{conn: conn, subject: subject, dispatcher: d}
}

// Subject returns the subscribed subject.
func (s *NATSSubscriber) Subject() string {
	return s.subject
}

// Start subscribes. Calling it twice is a no-op.
func (s *NATSSubscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub != nil {
		return nil
	}
	sub, err := s.conn.Subscribe(s.subject, s.handle)
	if err != nil {
		return fmt.Errorf("%w: nats %s: %w", ErrSubscribe, s.subject, err)
	}
	s.sub = sub
	return nil
}

// Stop drains the subscription so in-flight messages are still delivered.
// The connection stays open.
func (s *NATSSubscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return nil
	}
	sub := s.sub
	s.sub = nil
	return sub.Drain()
}

func (s *NATSSubscriber) handle(msg *nats.Msg) {
	s.dispatcher.Dispatch(context.Background(), "nats subject "+msg.Subject, msg.Data) //nolint:errcheck // reported by the dispatcher
}
