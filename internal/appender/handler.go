package appender

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Attribute keys that populate event fields instead of the message.
const (
	AttrLogger = "logger"
	AttrNDC    = "ndc"
	AttrThread = "thread"
)

// defaultLoggerName is used when no logger attribute is present.
const defaultLoggerName = "root"

// stackTracer is implemented by errors created with github.com/pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// groupedAttr is an attribute bound with WithAttrs under a group prefix.
type groupedAttr struct {
	prefix string
	attr   slog.Attr
}

// Handler is a slog.Handler that delivers every enabled record through an
// Appender. Handle never returns an error.
type Handler struct {
	appender *Appender
	level    slog.Leveler
	bound    []groupedAttr
	prefix   string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler creates a Handler. A nil level means slog.LevelInfo.
func NewHandler(a *Appender, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{appender: a, level: level}
}

// Enabled reports whether level reaches the minimum level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle converts r to an event and delivers it synchronously.
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	h.appender.Deliver(ctx, h.event(r))
	return nil
}

// WithAttrs returns a handler that applies attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	for _, a := range attrs {
		next.bound = append(next.bound, groupedAttr{prefix: h.prefix, attr: a})
	}
	return next
}

// WithGroup returns a handler that qualifies later attributes with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = h.prefix + name + "."
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		appender: h.appender,
		level:    h.level,
		bound:    append([]groupedAttr(nil), h.bound...),
		prefix:   h.prefix,
	}
}

// event builds a Record from a slog record.
//
// The logger, ndc and thread attributes set the matching event fields when
// bound outside any group. The first error value supplies the error trace.
// Every other attribute is appended to the message as key=value.
func (h *Handler) event(r slog.Record) *Record {
	rec := &Record{
		Time:     r.Time,
		Logger:   defaultLoggerName,
		Severity: r.Level.String(),
		CallSite: callSite(r.PC),
	}
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}

	var msg strings.Builder
	msg.WriteString(r.Message)

	var visit func(prefix string, a slog.Attr)
	visit = func(prefix string, a slog.Attr) {
		a.Value = a.Value.Resolve()
		if a.Equal(slog.Attr{}) {
			return
		}

		if a.Value.Kind() == slog.KindGroup {
			groupPrefix := prefix
			if a.Key != "" {
				groupPrefix = prefix + a.Key + "."
			}
			for _, ga := range a.Value.Group() {
				visit(groupPrefix, ga)
			}
			return
		}

		if prefix == "" && h.special(rec, a) {
			return
		}

		if err, ok := a.Value.Any().(error); ok && rec.Trace == nil {
			rec.Trace = traceLines(err)
		}

		fmt.Fprintf(&msg, " %s%s=%s", prefix, a.Key, a.Value.String())
	}

	for _, b := range h.bound {
		visit(b.prefix, b.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		visit(h.prefix, a)
		return true
	})

	rec.Message = msg.String()
	return rec
}

// special applies a field-mapped attribute and reports whether it was one.
func (h *Handler) special(rec *Record, a slog.Attr) bool {
	switch a.Key {
	case AttrLogger:
		rec.Logger = a.Value.String()
	case AttrNDC:
		ndc := a.Value.String()
		rec.Diagnostic = &ndc
	case AttrThread:
		rec.Thread = a.Value.String()
	default:
		return false
	}
	return true
}

// callSite resolves a program counter to a Location. The class is the
// package path plus any receiver, the method is the function name.
func callSite(pc uintptr) *Location {
	if pc == 0 {
		return nil
	}

	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.Function == "" {
		return nil
	}

	class, method := splitFunction(frame.Function)
	return &Location{
		Class:  class,
		File:   filepath.Base(frame.File),
		Line:   strconv.Itoa(frame.Line),
		Method: method,
	}
}

// splitFunction splits "example.com/pkg.(*T).Method" into
// "example.com/pkg.(*T)" and "Method".
func splitFunction(fn string) (string, string) {
	slash := strings.LastIndex(fn, "/")
	dot := strings.LastIndex(fn[slash+1:], ".")
	if dot < 0 {
		return fn, ""
	}
	dot += slash + 1
	return fn[:dot], fn[dot+1:]
}

// traceLines renders an error as trace lines: the message first, then one
// line per stack frame when the error carries a pkg/errors stack.
func traceLines(err error) []string {
	lines := []string{err.Error()}

	var st stackTracer
	if !errors.As(err, &st) {
		return lines
	}

	for _, f := range st.StackTrace() {
		lines = append(lines, fmt.Sprintf("\tat %n(%v)", f, f))
	}
	return lines
}
