// Package mqtt provides the MQTT broker connection used for log ingest.
//
// It wraps github.com/eclipse/paho.mqtt.golang with auto-reconnect,
// subscriptions that are restored after a reconnect, handler panic
// recovery, and retained presence messages on influxlog/status/<client>.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.DefaultLogTopic, 1, func(topic string, payload []byte) error {
//	    return handle(payload)
//	})
package mqtt
