// Package ingest accepts log records from remote producers and forwards
// them through the InfluxDB appender.
//
// Producers publish JSON records (a single object or an array) on MQTT or
// NATS. Each message is decoded and delivered synchronously on the
// transport's callback goroutine; nothing is queued. Payloads that fail to
// decode are reported through the error handler and dropped.
//
// Usage:
//
//	d := ingest.NewDispatcher(app, errs)
//	sub := ingest.NewMQTTSubscriber(mqttClient, cfg.MQTT, d)
//	if err := sub.Start(); err != nil {
//	    return err
//	}
//	defer sub.Stop()
package ingest
