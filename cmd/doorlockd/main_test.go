package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-doorlock/internal/actuator"
	"github.com/nerrad567/gray-logic-doorlock/internal/api"
	"github.com/nerrad567/gray-logic-doorlock/internal/credential"
	"github.com/nerrad567/gray-logic-doorlock/internal/events"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorlock/internal/protocol"
)

func testLogger() *logging.Logger {
	return logging.NewWriter(config.LoggingConfig{Level: "error"}, service, "test", io.Discard)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("DOORLOCK_CONFIG", "/nonexistent/path/doorlock.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

func TestRun_UnsupportedLinkScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doorlock.yaml")
	content := `
unit:
  id: door-test
link:
  url: "carrier-pigeon://loft"
storage:
  backend: memory
logging:
  level: error
  output: discard
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("DOORLOCK_CONFIG", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail to open an unsupported link")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("DOORLOCK_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}
	t.Setenv("DOORLOCK_CONFIG", "/etc/doorlock/doorlock.yaml")
	if got := getConfigPath(); got != "/etc/doorlock/doorlock.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}

func TestOpenStorage_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "doorlock.db")
	health := map[string]api.HealthFunc{}

	storage, closeStorage, err := openStorage(ctx, cfg, testLogger(), health)
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	defer closeStorage()

	if _, ok := health["database"]; !ok {
		t.Error("database health check not registered")
	}
	if err := health["database"](ctx); err != nil {
		t.Errorf("database health: %v", err)
	}

	store := credential.NewStore(storage)
	if ok, err := store.Initialized(ctx); err != nil || ok {
		t.Fatalf("fresh store Initialized() = %v, %v", ok, err)
	}
	want := protocol.MustParseCredential("24680")
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil || !got.Equal(want) {
		t.Errorf("Load() = %v, %v", got, err)
	}
}

func TestOpenStorage_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	health := map[string]api.HealthFunc{}

	storage, closeStorage, err := openStorage(context.Background(), cfg, testLogger(), health)
	if err != nil {
		t.Fatalf("openStorage() error: %v", err)
	}
	closeStorage()

	if _, ok := storage.(*credential.MemoryStorage); !ok {
		t.Errorf("storage = %T, want *credential.MemoryStorage", storage)
	}
	if len(health) != 0 {
		t.Errorf("memory backend registered health checks: %v", health)
	}
}

func TestSimMotionHandler(t *testing.T) {
	sensor := &actuator.SimSensor{}
	handle := simMotionHandler(sensor, testLogger())

	tests := []struct {
		payload string
		want    bool
		wantErr bool
	}{
		{payload: "true", want: true},
		{payload: " false\n", want: false},
		{payload: "1", want: true},
		{payload: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			sensor.Set(!tt.want)
			err := handle("graylogic/doorlock/door-01/sim/motion", []byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			got, _ := sensor.Motion(context.Background())
			if got != tt.want {
				t.Errorf("motion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestObstructionReporter(t *testing.T) {
	var got []events.Event
	pub := events.PublisherFunc(func(_ context.Context, ev events.Event) error {
		got = append(got, ev)
		return nil
	})

	obstructionReporter(pub, "door-01", testLogger())(context.Background(), 45*time.Second)

	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	if got[0].Type != events.DoorObstructed || got[0].HoldMS != 45000 || got[0].UnitID != "door-01" {
		t.Errorf("event = %+v", got[0])
	}
}

func TestHealthCheck(t *testing.T) {
	ok := func(context.Context) error { return nil }
	bad := func(context.Context) error { return io.ErrUnexpectedEOF }

	if err := healthCheck(context.Background(), map[string]api.HealthFunc{"a": ok}); err != nil {
		t.Errorf("healthCheck() = %v, want nil", err)
	}
	if err := healthCheck(context.Background(), map[string]api.HealthFunc{"a": ok, "b": bad}); err == nil {
		t.Error("healthCheck() should report the failing component")
	}
}
