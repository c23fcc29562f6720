package appender

import (
	"strings"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/influxlog/internal/infrastructure/config"
)

// Tag keys of every log point.
const (
	TagHostIP     = "host_ip"
	TagHostName   = "host_name"
	TagAppName    = "app_name"
	TagLoggerName = "logger_name"
	TagLevel      = "level"
)

// Field keys of every log point.
const (
	FieldClassName       = "class_name"
	FieldFileName        = "file_name"
	FieldLineNumber      = "line_number"
	FieldMethodName      = "method_name"
	FieldMessage         = "message"
	FieldNDC             = "ndc"
	FieldAppStartTime    = "app_start_time"
	FieldThreadName      = "thread_name"
	FieldThrowableStrRep = "throwable_str_rep"
)

// traceSeparator joins error trace lines into one field value.
const traceSeparator = ", "

// BuildPoint maps an event onto the fixed log point schema.
//
// Every field is always present: location fields, ndc and the error trace
// are empty strings when the event has none. app_start_time is epoch
// milliseconds, taken from the event or, when the event has none, from id.
func BuildPoint(cfg config.AppenderConfig, id Identity, ev Event) *write.Point {
	var level string
	if l := ev.Level(); l != nil {
		level = l.String()
	}

	tags := map[string]string{
		TagHostIP:     id.HostIP,
		TagHostName:   id.HostName,
		TagAppName:    cfg.Application,
		TagLoggerName: ev.LoggerName(),
		TagLevel:      level,
	}

	var className, fileName, lineNumber, methodName string
	if loc := ev.Location(); loc != nil {
		className = loc.Class
		fileName = loc.File
		lineNumber = loc.Line
		methodName = loc.Method
	}

	ndc, _ := ev.NDC()

	start := ev.StartTime()
	if start.IsZero() {
		start = id.StartTime
	}

	fields := map[string]interface{}{
		FieldClassName:       className,
		FieldFileName:        fileName,
		FieldLineNumber:      lineNumber,
		FieldMethodName:      methodName,
		FieldMessage:         ev.RenderedMessage(),
		FieldNDC:             ndc,
		FieldAppStartTime:    start.UnixMilli(),
		FieldThreadName:      ev.ThreadName(),
		FieldThrowableStrRep: strings.Join(ev.ThrowableStrRep(), traceSeparator),
	}

	return write.NewPoint(cfg.Measurement, tags, fields, ev.Timestamp())
}
