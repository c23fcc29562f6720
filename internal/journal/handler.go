package journal

import (
	"context"
	"time"

	"github.com/nerrad567/influxlog/internal/infrastructure/logging"
)

// SourceAppender marks reports raised by the appender itself.
const SourceAppender = "appender"

// writeTimeout bounds each journal insert.
const writeTimeout = 2 * time.Second

// Handler records every report in the journal. It satisfies
// appender.ErrorHandler.
type Handler struct {
	repo   Repository
	source string
	logger *logging.Logger
}

// NewHandler creates a Handler tagging entries with source. Insert failures
// go to logger, which must not have the appender attached.
func NewHandler(repo Repository, source string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, source: source, logger: logger}
}

// WithSource returns a Handler sharing the repository under another source.
func (h *Handler) WithSource(source string) *Handler {
	return &Handler{repo: h.repo, source: source, logger: h.logger}
}

// Report stores msg.
func (h *Handler) Report(msg string) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := h.repo.Create(ctx, &Entry{Message: msg, Source: h.source}); err != nil {
		h.logger.Warn("failed to journal error report", "error", err, "report", msg)
	}
}
