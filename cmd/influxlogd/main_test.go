package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"github.com/nerrad567/influxlog/internal/api"
	"github.com/nerrad567/influxlog/internal/appender"
	"github.com/nerrad567/influxlog/internal/auth"
	"github.com/nerrad567/influxlog/internal/infrastructure/config"
	"github.com/nerrad567/influxlog/internal/infrastructure/influxdb/influxdbtest"
	"github.com/nerrad567/influxlog/internal/infrastructure/logging"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

// writeConfig writes a config pointing at influxURL and returns its path.
func writeConfig(t *testing.T, dir, influxURL string, apiPort int) string {
	t.Helper()
	u, err := url.Parse(influxURL)
	if err != nil {
		t.Fatalf("parsing influx URL: %v", err)
	}

	content := fmt.Sprintf(`
appender:
  host: %q
  port: %s
  username: root
  password: secret
  database: Logging
  level: info

logging:
  level: error
  format: text
  output: stdout

journal:
  enabled: true
  path: %q

api:
  enabled: true
  host: 127.0.0.1
  port: %d
  jwt_secret: %q
`, u.Hostname(), u.Port(), filepath.Join(dir, "data", "influxlog.db"), apiPort, testSecret)

	path := filepath.Join(dir, "influxlog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("INFLUXLOG_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_LockHeld verifies a second instance refuses to start.
func TestRun_LockHeld(t *testing.T) {
	dir := t.TempDir()
	influx := influxdbtest.New(t)
	t.Setenv("INFLUXLOG_CONFIG", writeConfig(t, dir, influx.URL, freePort(t)))

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	held := flock.New(filepath.Join(dataDir, lockFileName))
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("TryLock() = %v, %v", ok, err)
	}
	defer held.Unlock() //nolint:errcheck // test cleanup

	err := run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "another influxlogd instance") {
		t.Fatalf("run() error = %v, want lock error", err)
	}
}

// TestRun_ForwardsAndShutsDown starts the daemon against a fake InfluxDB,
// submits a record through the API and checks it arrives as a point.
func TestRun_ForwardsAndShutsDown(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	dir := t.TempDir()
	influx := influxdbtest.New(t)
	port := freePort(t)
	t.Setenv("INFLUXLOG_CONFIG", writeConfig(t, dir, influx.URL, port))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d/api/v1", port)
	if !waitFor(func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}) {
		cancel()
		t.Fatalf("API never became healthy (run: %v)", drain(done))
	}

	token, err := auth.GenerateIngestToken("billing", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateIngestToken() error = %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, base+"/logs", strings.NewReader(`{"level":"WARN","message":"from producer"}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("POST status = %d, want 202", resp.StatusCode)
	}

	var sawProducer, sawOwn bool
	for _, w := range influx.Writes() {
		sawProducer = sawProducer || strings.Contains(w.Body, `message="from producer"`)
		sawOwn = sawOwn || strings.Contains(w.Body, "appender activated")
	}
	if !sawProducer {
		t.Error("producer record was not written")
	}
	if !sawOwn {
		t.Error("the daemon's own log records were not forwarded")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	if _, err := os.Stat(filepath.Join(dir, "data", "influxlog.db")); err != nil {
		t.Errorf("journal database not created: %v", err)
	}
}

func TestTokenCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("INFLUXLOG_CONFIG", writeConfig(t, dir, "http://127.0.0.1:8086", 8087))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--producer", "billing", "--ttl", "1h"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "billing" {
		t.Errorf("Subject = %q", claims.Subject)
	}
}

func TestTokenCommand_RequiresProducer(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() without --producer should fail")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("INFLUXLOG_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
	t.Setenv("INFLUXLOG_CONFIG", "/etc/influxlog.yaml")
	if got := getConfigPath(); got != "/etc/influxlog.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestHealthCheck_NothingEnabled(t *testing.T) {
	if err := healthCheck(context.Background(), nil, nil, nil); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}
}

func TestHealthCheck_APIServer(t *testing.T) {
	server, err := api.New(api.Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: freePort(t)},
		Logger:   logging.Default(),
		Appender: appender.New(appender.Options{Config: config.DefaultAppenderConfig()}),
	})
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}

	err = healthCheck(context.Background(), nil, nil, server)
	if err == nil || !strings.HasPrefix(err.Error(), "api: ") {
		t.Errorf("healthCheck() before Start error = %v, want api failure", err)
	}

	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer server.Close() //nolint:errcheck // test cleanup

	if err := healthCheck(context.Background(), nil, nil, server); err != nil {
		t.Errorf("healthCheck() error = %v", err)
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(50 * time.Millisecond)
	}
	return false
}

func drain(done <-chan error) error {
	select {
	case err := <-done:
		return err
	case <-time.After(time.Second):
		return nil
	}
}
