package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	Appender      AppenderMetrics  `json:"appender"`
	Streams       StreamMetrics    `json:"streams"`
	Brokers       map[string]bool  `json:"brokers"`
	Journal       *DatabaseMetrics `json:"journal,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// AppenderMetrics describes the InfluxDB connection.
type AppenderMetrics struct {
	State         string `json:"state"`
	URL           string `json:"url"`
	ServerVersion string `json:"server_version,omitempty"`
}

// StreamMetrics contains WebSocket statistics.
type StreamMetrics struct {
	ConnectedClients int64 `json:"connected_clients"`
}

// DatabaseMetrics contains journal connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns process, appender and ingest metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Appender: AppenderMetrics{
			State:         s.appender.State().String(),
			URL:           s.appender.URL(),
			ServerVersion: s.appender.LastProbeVersion(),
		},
		Streams: StreamMetrics{
			ConnectedClients: s.streams.Load(),
		},
		Brokers: make(map[string]bool, len(s.brokers)),
	}

	for name, conn := range s.brokers {
		metrics.Brokers[name] = conn.IsConnected()
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Journal = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
