package appender

import "github.com/nerrad567/influxlog/internal/infrastructure/logging"

// ErrorHandler receives recoverable failures as text.
// Report must not block for long and must not log through the appender.
type ErrorHandler interface {
	Report(msg string)
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(msg string)

// Report calls f(msg).
func (f ErrorHandlerFunc) Report(msg string) {
	f(msg)
}

// LogErrorHandler writes reports to a logger that has no appender attached.
type LogErrorHandler struct {
	logger *logging.Logger
}

// NewLogErrorHandler creates a LogErrorHandler. A nil logger falls back to
// logging.Default.
func NewLogErrorHandler(logger *logging.Logger) *LogErrorHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogErrorHandler{logger: logger.With("component", "influxdb-appender")}
}

// Report logs msg at error level.
func (h *LogErrorHandler) Report(msg string) {
	h.logger.Error("appender error", "error", msg)
}

// MultiErrorHandler hands each report to every handler in order.
type MultiErrorHandler []ErrorHandler

// Report forwards msg to every non-nil handler.
func (m MultiErrorHandler) Report(msg string) {
	for _, h := range m {
		if h != nil {
			h.Report(msg)
		}
	}
}
