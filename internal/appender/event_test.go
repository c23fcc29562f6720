package appender

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nerrad567/influxlog/internal/appender/appendertest"
)

func TestRecord_UnmarshalJSON(t *testing.T) {
	data := []byte(`{
		"timestamp": 1700000000123,
		"logger": "shop.orders",
		"level": "WARN",
		"message": "slow query",
		"location": {"class": "shop.Orders", "file": "orders.go", "line": "12", "method": "Find"},
		"ndc": "req-1",
		"thread": "worker-2",
		"start_time": 1690000000000,
		"throwable": ["a", "b"]
	}`)

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !rec.Timestamp().Equal(time.UnixMilli(1700000000123)) {
		t.Errorf("Timestamp() = %v", rec.Timestamp())
	}
	if rec.LoggerName() != "shop.orders" || rec.Level().String() != "WARN" {
		t.Errorf("logger/level = %q/%q", rec.LoggerName(), rec.Level())
	}
	if rec.RenderedMessage() != "slow query" || rec.ThreadName() != "worker-2" {
		t.Errorf("message/thread = %q/%q", rec.RenderedMessage(), rec.ThreadName())
	}
	want := Location{Class: "shop.Orders", File: "orders.go", Line: "12", Method: "Find"}
	if loc := rec.Location(); loc == nil || *loc != want {
		t.Errorf("Location() = %+v, want %+v", loc, want)
	}
	if ndc, ok := rec.NDC(); !ok || ndc != "req-1" {
		t.Errorf("NDC() = %q, %v", ndc, ok)
	}
	if !rec.StartTime().Equal(time.UnixMilli(1690000000000)) {
		t.Errorf("StartTime() = %v", rec.StartTime())
	}
	if !slices.Equal(rec.ThrowableStrRep(), []string{"a", "b"}) {
		t.Errorf("ThrowableStrRep() = %q", rec.ThrowableStrRep())
	}
}

func TestRecord_OptionalFields(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"timestamp": 1, "logger": "x", "level": "INFO", "message": "m"}`), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if rec.Location() != nil {
		t.Error("Location() should be nil when absent")
	}
	if _, ok := rec.NDC(); ok {
		t.Error("NDC() should report absent")
	}
	if !rec.StartTime().IsZero() {
		t.Error("StartTime() should be zero when absent")
	}
	if rec.ThrowableStrRep() != nil {
		t.Error("ThrowableStrRep() should be nil when absent")
	}
}

func TestRecord_MarshalJSON(t *testing.T) {
	rec := sampleRecord()
	rec.ProcessStart = time.UnixMilli(1690000000000)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !back.Time.Equal(rec.Time) || back.Message != rec.Message || *back.Diagnostic != *rec.Diagnostic {
		t.Errorf("decoded %+v from %s", back, data)
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantCount int
		wantErr   bool
	}{
		{name: "single object", payload: `{"timestamp": 1, "message": "a"}`, wantCount: 1},
		{name: "array", payload: ` [{"timestamp": 1, "message": "a"}, {"timestamp": 2, "message": "b"}]`, wantCount: 2},
		{name: "empty array", payload: `[]`, wantCount: 0},
		{name: "null element", payload: `[null]`, wantErr: true},
		{name: "null", payload: `null`, wantErr: true},
		{name: "padded null", payload: " null\n", wantErr: true},
		{name: "invalid json", payload: `{"timestamp":`, wantErr: true},
		{name: "wrong type", payload: `"hello"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := DecodeRecords([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(records) != tt.wantCount {
				t.Errorf("DecodeRecords() = %d records, want %d", len(records), tt.wantCount)
			}
		})
	}
}

func TestDecodeRecords_StampsMissingTimestamp(t *testing.T) {
	before := time.Now()
	records, err := DecodeRecords([]byte(`{"message": "no time"}`))
	if err != nil {
		t.Fatalf("DecodeRecords() error = %v", err)
	}
	if records[0].Time.Before(before) {
		t.Errorf("Time = %v, want arrival time", records[0].Time)
	}
}

func TestResolveIdentity(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	failName := func() (string, error) { return "", errors.New("no hostname") }
	okName := func() (string, error) { return "web-1", nil }
	failLookup := func(string) ([]string, error) { return nil, errors.New("no such host") }
	okLookup := func(string) ([]string, error) { return []string{"10.0.0.5", "fe80::1"}, nil }

	tests := []struct {
		name     string
		hostname func() (string, error)
		lookup   func(string) ([]string, error)
		wantName string
		wantIP   string
	}{
		{name: "resolved", hostname: okName, lookup: okLookup, wantName: "web-1", wantIP: "10.0.0.5"},
		{name: "lookup fails", hostname: okName, lookup: failLookup, wantName: "web-1", wantIP: "unknown"},
		{name: "hostname fails", hostname: failName, lookup: okLookup, wantName: "unknown", wantIP: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := resolveIdentity(tt.hostname, tt.lookup, start)
			if id.HostName != tt.wantName || id.HostIP != tt.wantIP {
				t.Errorf("identity = %q/%q, want %q/%q", id.HostName, id.HostIP, tt.wantName, tt.wantIP)
			}
			if !id.StartTime.Equal(start) {
				t.Errorf("StartTime = %v, want %v", id.StartTime, start)
			}
		})
	}
}

func TestMultiErrorHandler(t *testing.T) {
	first := &appendertest.Recorder{}
	var second []string
	multi := MultiErrorHandler{first, nil, ErrorHandlerFunc(func(msg string) { second = append(second, msg) })}

	multi.Report("boom")

	if !slices.Equal(first.Reports(), []string{"boom"}) || !slices.Equal(second, []string{"boom"}) {
		t.Errorf("reports = %q / %q", first.Reports(), second)
	}
}

func TestNewLogErrorHandler_NilLogger(t *testing.T) {
	h := NewLogErrorHandler(nil)
	h.Report("reported to stderr")
}
