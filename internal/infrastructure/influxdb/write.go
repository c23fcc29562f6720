package influxdb

import (
	"context"
	"fmt"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Bucket returns the v1 compatibility bucket for a database and retention
// policy. An empty retention policy selects the database default.
func Bucket(database, retentionPolicy string) string {
	if retentionPolicy == "" {
		return database
	}
	return database + "/" + retentionPolicy
}

// WritePoint writes a single point and waits for the server to acknowledge it.
//
// Parameters:
//   - database: Target database
//   - retentionPolicy: Target retention policy (empty for the default)
//   - point: The point to write; its timestamp is sent at millisecond precision
//
// Example:
//
//	p := write.NewPoint("log_entries",
//	    map[string]string{"level": "INFO"},
//	    map[string]interface{}{"message": "started"},
//	    time.Now())
//	err := client.WritePoint(ctx, "Logging", "autogen", p)
func (c *Client) WritePoint(ctx context.Context, database, retentionPolicy string, point *write.Point) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	api := c.client.WriteAPIBlocking("", Bucket(database, retentionPolicy))
	if err := api.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}
