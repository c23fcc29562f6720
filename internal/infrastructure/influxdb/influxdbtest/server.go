// Package influxdbtest provides an in-process InfluxDB 1.x stand-in for tests.
//
// The server answers the endpoints the influxdb package uses: /ping,
// /health, /query (SHOW DATABASES and CREATE DATABASE) and /api/v2/write.
// Every statement and write is recorded for assertions.
package influxdbtest

import (
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// DefaultVersion is the version reported by a new server.
const DefaultVersion = "1.8.10"

// Write is one recorded write request.
type Write struct {
	Bucket        string
	Precision     string
	Consistency   string
	Authorization string
	Body          string
}

// Server is a fake InfluxDB server backed by httptest.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	version     string
	databases   []string
	statements  []string
	writes      []Write
	writeStatus int
	queryStatus int
}

// New starts a plain HTTP server that is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := newServer()
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

// NewTLS starts an HTTPS server that is closed when the test ends.
func NewTLS(t *testing.T) *Server {
	t.Helper()
	s := newServer()
	s.Server = httptest.NewTLSServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

func newServer() *Server {
	return &Server{
		version:     DefaultVersion,
		databases:   []string{"_internal"},
		writeStatus: http.StatusNoContent,
		queryStatus: http.StatusOK,
	}
}

// WriteTrustStore writes the server certificate as a PEM bundle and
// returns its path.
func (s *Server) WriteTrustStore(t *testing.T) string {
	t.Helper()
	cert := s.Certificate()
	if cert == nil {
		t.Fatal("server has no certificate; use NewTLS")
	}
	path := filepath.Join(t.TempDir(), "truststore.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write trust store: %v", err)
	}
	return path
}

// SetVersion changes the version reported by /health. An empty version
// omits the field.
func (s *Server) SetVersion(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = v
}

// SetWriteStatus changes the status returned by /api/v2/write.
func (s *Server) SetWriteStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeStatus = code
}

// SetQueryStatus changes the status returned by /query.
func (s *Server) SetQueryStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryStatus = code
}

// AddDatabase marks a database as existing.
func (s *Server) AddDatabase(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.databases = append(s.databases, name)
}

// Databases returns the existing databases.
func (s *Server) Databases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.databases...)
}

// Statements returns every InfluxQL statement received.
func (s *Server) Statements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.statements...)
}

// Writes returns every accepted or rejected write request.
func (s *Server) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", s.handlePing)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/api/v2/write", s.handleWrite)
	return mux
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	w.Header().Set("X-Influxdb-Version", version)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	version := s.version
	s.mu.Unlock()

	body := map[string]interface{}{
		"name":    "influxdb",
		"message": "ready for queries and writes",
		"status":  "pass",
		"checks":  []interface{}{},
	}
	if version != "" {
		body["version"] = version
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	q := strings.TrimSpace(r.Form.Get("q"))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements = append(s.statements, q)

	if s.queryStatus != http.StatusOK {
		writeJSON(w, s.queryStatus, map[string]string{"error": "query rejected"})
		return
	}

	switch {
	case q == "SHOW DATABASES":
		values := make([][]string, 0, len(s.databases))
		for _, db := range s.databases {
			values = append(values, []string{db})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"results": []interface{}{map[string]interface{}{
				"statement_id": 0,
				"series": []interface{}{map[string]interface{}{
					"name":    "databases",
					"columns": []string{"name"},
					"values":  values,
				}},
			}},
		})
	case strings.HasPrefix(q, "CREATE DATABASE "):
		name := strings.TrimPrefix(q, "CREATE DATABASE ")
		name = strings.Trim(name, `"`)
		s.databases = append(s.databases, name)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"results": []interface{}{map[string]interface{}{"statement_id": 0}},
		})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"results": []interface{}{map[string]interface{}{
				"statement_id": 0,
				"error":        "unsupported statement",
			}},
		})
	}
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	q := r.URL.Query()

	s.mu.Lock()
	s.writes = append(s.writes, Write{
		Bucket:        q.Get("bucket"),
		Precision:     q.Get("precision"),
		Consistency:   q.Get("consistency"),
		Authorization: r.Header.Get("Authorization"),
		Body:          string(data),
	})
	status := s.writeStatus
	s.mu.Unlock()

	if status >= http.StatusBadRequest {
		writeJSON(w, status, map[string]string{"code": "internal error", "message": "write rejected"})
		return
	}
	w.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
