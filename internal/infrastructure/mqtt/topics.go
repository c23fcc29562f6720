package mqtt

import "strings"

// TopicPrefix is the root of every influxlog topic.
const TopicPrefix = "influxlog"

// DefaultLogTopic matches every log topic. Producers publish on
// influxlog/logs/<application>.
const DefaultLogTopic = TopicPrefix + "/logs/#"

// StatusTopic returns the retained presence topic of a client.
//
// Example: influxlog/status/influxlogd
func StatusTopic(clientID string) string {
	return TopicPrefix + "/status/" + clientID
}

// ApplicationFromTopic extracts the application segment of a log topic.
// It returns "" for topics outside influxlog/logs/.
func ApplicationFromTopic(topic string) string {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/logs/")
	if !ok {
		return ""
	}
	app, _, _ := strings.Cut(rest, "/")
	return app
}
