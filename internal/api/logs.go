package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/influxlog/internal/journal"
)

// ingestResponse is the body of a 202 from POST /logs.
type ingestResponse struct {
	Accepted int `json:"accepted"`
}

// handleIngestLogs delivers one record or an array of records in order.
func (s *Server) handleIngestLogs(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body exceeds 1 MB")
			return
		}
		writeBadRequest(w, "failed to read request body")
		return
	}

	n, err := s.dispatcher.Dispatch(r.Context(), source("http", r), body)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRecord, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: n})
}

// handleListErrors pages through the error journal, newest first.
//
// Query parameters: source, since (RFC 3339), limit, offset.
func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "error journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{Source: q.Get("source")}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing error journal", "error", err)
		writeInternalError(w, "failed to list errors")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// source names the origin of a request in error reports.
func source(transport string, r *http.Request) string {
	if p := producerFrom(r.Context()); p != "" {
		return transport + " producer " + p
	}
	return transport + " client " + r.RemoteAddr
}
