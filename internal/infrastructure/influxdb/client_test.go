package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/config"
)

// fakeServer answers /ping and records /api/v2/write bodies.
type fakeServer struct {
	*httptest.Server
	healthy bool

	mu     sync.Mutex
	writes []string
}

func newFakeServer(t *testing.T, healthy bool) *fakeServer {
	t.Helper()
	fs := &fakeServer{healthy: healthy}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			if fs.healthy {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/api/v2/write":
			body, _ := io.ReadAll(r.Body)
			fs.mu.Lock()
			fs.writes = append(fs.writes, string(body))
			fs.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) body() string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return strings.Join(fs.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "graylogic",
		Bucket:        "doorlock",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://localhost:8086")
	cfg.Enabled = false

	if _, err := Connect(context.Background(), cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Connect(ctx, testConfig("http://127.0.0.1:1"))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Unhealthy(t *testing.T) {
	srv := newFakeServer(t, false)

	_, err := Connect(context.Background(), testConfig(srv.URL))
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWritePoint_Flush(t *testing.T) {
	srv := newFakeServer(t, true)

	client, err := Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v", err)
	}

	client.WritePoint("doorlock_events",
		map[string]string{"unit": "door-01", "type": "door_unlocked"},
		map[string]any{"attempts": 0, "hold_ms": int64(1000)},
		time.Unix(1700000000, 0),
	)
	client.Flush()

	deadline := time.Now().Add(3 * time.Second)
	for srv.body() == "" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	body := srv.body()
	for _, want := range []string{"doorlock_events", "unit=door-01", "type=door_unlocked", "hold_ms=1000i"} {
		if !strings.Contains(body, want) {
			t.Errorf("written line %q missing %q", body, want)
		}
	}
}

func TestClose_DropsLaterWrites(t *testing.T) {
	srv := newFakeServer(t, true)

	client, err := Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	client.WritePoint("doorlock_events", nil, map[string]any{"attempts": 1}, time.Time{})
	client.Flush()
}

func TestClose_Nil(t *testing.T) {
	var c Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client = %v", err)
	}
}
