// Package appendertest provides an in-memory error handler for tests of
// code that reports appender failures.
package appendertest

import "sync"

// Recorder keeps every report in memory. It satisfies appender.ErrorHandler.
type Recorder struct {
	mu      sync.Mutex
	reports []string
}

// Report stores msg.
func (r *Recorder) Report(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, msg)
}

// Reports returns a copy of every stored report.
func (r *Recorder) Reports() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reports...)
}
