package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
	"github.com/nerrad567/influxlog/internal/infrastructure/mqtt"
)

// MQTTSubscriber forwards records published on an MQTT topic filter.
type MQTTSubscriber struct {
	client     *mqtt.Client
	topic      string
	qos        byte
	dispatcher *Dispatcher

	mu      sync.Mutex
	started bool
}

// NewMQTTSubscriber binds a connected client to the configured topic.
// An empty topic falls back to mqtt.DefaultLogTopic.
func NewMQTTSubscriber(client *mqtt.Client, cfg config.MQTTConfig, d *Dispatcher) *MQTTSubscriber {
	topic := cfg.Topic
	if topic == "" {
		topic = mqtt.DefaultLogTopic
	}
	return &MQTTSubscriber{
		client:     client,
		topic:      topic,
		qos:        byte(cfg.QoS), //nolint:gosec // validated to 0..2 by config
		dispatcher: d,
	}
}

// Topic returns the subscribed topic filter.
func (s *MQTTSubscriber) Topic() string {
	return s.topic
}

// Start subscribes. Calling it twice is a no-op.
func (s *MQTTSubscriber) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if err := s.client.Subscribe(s.topic, s.qos, s.handle); err != nil {
		return fmt.Errorf("%w: mqtt %s: %w", ErrSubscribe, s.topic, err)
	}
	s.started = true
	return nil
}

// Stop unsubscribes. The client itself stays open.
func (s *MQTTSubscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	return s.client.Unsubscribe(s.topic)
}

func (s *MQTTSubscriber) handle(topic string, payload []byte) error {
	_, err := s.dispatcher.Dispatch(context.Background(), mqttSource(topic), payload)
	return err
}

// mqttSource names a topic in error reports, leading with the producing
// application when the topic follows the influxlog/logs/<app> layout.
func mqttSource(topic string) string {
	if app := mqtt.ApplicationFromTopic(topic); app != "" {
		return fmt.Sprintf("mqtt application %s (topic %s)", app, topic)
	}
	return "mqtt topic " + topic
}
