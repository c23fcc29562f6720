package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
)

// testConfig targets a local broker at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "influxlog-test",
		},
		Topic: DefaultLogTopic,
		QoS:   1,
	}
}

// connectOrSkip skips the test when no broker is running.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID
	client, err := Connect(cfg)
	if err != nil {
		t.Skipf("MQTT broker not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	if got := BrokerURL(cfg); got != "tcp://127.0.0.1:1883" {
		t.Errorf("BrokerURL() = %q", got)
	}
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	if got := BrokerURL(cfg); got != "ssl://127.0.0.1:8883" {
		t.Errorf("BrokerURL() with TLS = %q", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "ingest"
	cfg.Auth.Password = "pw"
	cfg.Broker.TLS = true

	opts := buildClientOptions(cfg)

	if opts.ClientID != "influxlog-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "ingest" || opts.Password != "pw" {
		t.Errorf("credentials = %q/%q", opts.Username, opts.Password)
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("auto-reconnect and clean session should be enabled")
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config should require TLS 1.2")
	}
	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "influxlogd")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("will should be enabled and retained")
	}
	if opts.WillTopic != "influxlog/status/influxlogd" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var payload map[string]string
	if err := json.Unmarshal(opts.WillPayload, &payload); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if payload["status"] != "offline" || payload["reason"] != "unexpected_disconnect" {
		t.Errorf("will payload = %v", payload)
	}
}

func TestTopics(t *testing.T) {
	if got := StatusTopic("influxlogd"); got != "influxlog/status/influxlogd" {
		t.Errorf("StatusTopic() = %q", got)
	}

	tests := map[string]string{
		"influxlog/logs/billing":        "billing",
		"influxlog/logs/billing/worker": "billing",
		"influxlog/status/x":            "",
		"other/logs/billing":            "",
	}
	for topic, want := range tests {
		if got := ApplicationFromTopic(topic); got != want {
			t.Errorf("ApplicationFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestConnect_InvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := connectOrSkip(t, "influxlog-test-validate")
	noop := func(string, []byte) error { return nil }

	if err := client.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := client.Subscribe("a/b", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := client.Subscribe("a/b", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
}

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	client := connectOrSkip(t, "influxlog-test-roundtrip")

	var mu sync.Mutex
	received := make(chan string, 1)
	topic := TopicPrefix + "/logs/roundtrip-test"

	err := client.Subscribe(topic, 1, func(gotTopic string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		select {
		case received <- string(payload):
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if !client.HasSubscription(topic) {
		t.Error("HasSubscription() = false after Subscribe")
	}

	if err := client.Publish(topic, []byte(`{"message":"hi"}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != `{"message":"hi"}` {
			t.Errorf("payload = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(topic); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topic) {
		t.Error("HasSubscription() = true after Unsubscribe")
	}
}

func TestPublish_PayloadTooLarge(t *testing.T) {
	client := connectOrSkip(t, "influxlog-test-large")

	err := client.Publish("a/b", make([]byte, maxPayloadSize+1), 0, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	var nilClient *Client
	if err := nilClient.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
