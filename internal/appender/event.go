package appender

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Location is the call site that produced an event.
type Location struct {
	Class  string `json:"class"`
	File   string `json:"file"`
	Line   string `json:"line"`
	Method string `json:"method"`
}

// Event is the read-only view of a log event the appender needs.
type Event interface {
	Timestamp() time.Time
	LoggerName() string
	Level() fmt.Stringer
	RenderedMessage() string
	// Location returns nil when the call site is unknown.
	Location() *Location
	// NDC returns the nested diagnostic context, if any.
	NDC() (string, bool)
	ThreadName() string
	// StartTime is when the emitting process started. A zero value means
	// the appender's own identity start time is used.
	StartTime() time.Time
	// ThrowableStrRep returns the error trace lines, or nil.
	ThrowableStrRep() []string
}

// Level is a severity name.
type Level string

func (l Level) String() string {
	return string(l)
}

// Record is a plain Event value. Ingest transports decode it from JSON.
type Record struct {
	Time         time.Time
	Logger       string
	Severity     string
	Message      string
	CallSite     *Location
	Diagnostic   *string
	Thread       string
	ProcessStart time.Time
	Trace        []string
}

var _ Event = (*Record)(nil)

func (r *Record) Timestamp() time.Time      { return r.Time }
func (r *Record) LoggerName() string        { return r.Logger }
func (r *Record) Level() fmt.Stringer       { return Level(r.Severity) }
func (r *Record) RenderedMessage() string   { return r.Message }
func (r *Record) Location() *Location       { return r.CallSite }
func (r *Record) ThreadName() string        { return r.Thread }
func (r *Record) StartTime() time.Time      { return r.ProcessStart }
func (r *Record) ThrowableStrRep() []string { return r.Trace }

func (r *Record) NDC() (string, bool) {
	if r.Diagnostic == nil {
		return "", false
	}
	return *r.Diagnostic, true
}

// recordJSON is the wire form of a Record. Times are epoch milliseconds.
type recordJSON struct {
	Timestamp int64     `json:"timestamp"`
	Logger    string    `json:"logger"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Location  *Location `json:"location,omitempty"`
	NDC       *string   `json:"ndc,omitempty"`
	Thread    string    `json:"thread,omitempty"`
	StartTime int64     `json:"start_time,omitempty"`
	Throwable []string  `json:"throwable,omitempty"`
}

// MarshalJSON encodes the record in its wire form.
func (r Record) MarshalJSON() ([]byte, error) {
	w := recordJSON{
		Timestamp: r.Time.UnixMilli(),
		Logger:    r.Logger,
		Level:     r.Severity,
		Message:   r.Message,
		Location:  r.CallSite,
		NDC:       r.Diagnostic,
		Thread:    r.Thread,
		Throwable: r.Trace,
	}
	if !r.ProcessStart.IsZero() {
		w.StartTime = r.ProcessStart.UnixMilli()
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form. A missing timestamp leaves Time zero
// and a JSON null is rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errors.New("log record is null")
	}

	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Record{
		Logger:     w.Logger,
		Severity:   w.Level,
		Message:    w.Message,
		CallSite:   w.Location,
		Diagnostic: w.NDC,
		Thread:     w.Thread,
		Trace:      w.Throwable,
	}
	if w.Timestamp != 0 {
		r.Time = time.UnixMilli(w.Timestamp)
	}
	if w.StartTime != 0 {
		r.ProcessStart = time.UnixMilli(w.StartTime)
	}
	return nil
}

// DecodeRecords accepts either a single JSON record or an array of records.
// Records without a timestamp are stamped with the arrival time.
func DecodeRecords(data []byte) ([]*Record, error) {
	var records []*Record

	if firstNonSpace(data) == '[' {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding log records: %w", err)
		}
	} else {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decoding log record: %w", err)
		}
		records = []*Record{&rec}
	}

	now := time.Now()
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("decoding log records: element %d is null", i)
		}
		if rec.Time.IsZero() {
			rec.Time = now
		}
	}
	return records, nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return b
		}
	}
	return 0
}
