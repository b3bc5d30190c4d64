// doorlockd is the door lock authority.
//
// It owns the stored credential, the attempt counter, the motor, the motion
// sensor and the alarm. The keypad front end (doorpanel) drives it over the
// serial link; every exchange is started by the front end.
//
// Lock events are logged and, when enabled, published to MQTT and recorded in
// InfluxDB. An optional read-only HTTP API reports status.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/nerrad567/gray-logic-doorlock/migrations"

	"github.com/nerrad567/gray-logic-doorlock/internal/actuator"
	"github.com/nerrad567/gray-logic-doorlock/internal/api"
	"github.com/nerrad567/gray-logic-doorlock/internal/authority"
	"github.com/nerrad567/gray-logic-doorlock/internal/credential"
	"github.com/nerrad567/gray-logic-doorlock/internal/events"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-doorlock/internal/link"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	service           = "doorlockd"
	defaultConfigPath = "configs/doorlock.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the authority and serves until ctx is cancelled or the link
// fails.
func run(ctx context.Context) error {
	log := logging.Default(service)
	log.Info("starting door lock authority",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, service, version).With("unit", cfg.Unit.ID)
	log.Info("configuration loaded",
		"path", configPath,
		"counter_mode", cfg.Policy.CounterMode,
		"max_attempts", cfg.Policy.MaxAttempts,
	)

	health := map[string]api.HealthFunc{}

	storage, closeStorage, err := openStorage(ctx, cfg, log, health)
	if err != nil {
		return err
	}
	defer closeStorage()
	store := credential.NewStore(storage)

	// Event sinks. The log sink is always present.
	sinks := events.Multi{events.NewLogPublisher(log.With("component", "events"))}

	hw := newSimHardware()
	log.Info("hardware driver", "driver", cfg.Hardware.Driver)

	var srv *authority.Server

	if cfg.MQTT.Enabled {
		mqttClient, err := mqtt.Connect(cfg.MQTT, cfg.Unit.ID)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() { log.Info("MQTT connected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		health["mqtt"] = mqttClient.HealthCheck
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		sinks = append(sinks, events.NewMQTTPublisher(mqttClient, cfg.Unit.ID, func() any {
			return srv.Status()
		}))

		topic := mqtt.Topics{UnitID: cfg.Unit.ID}.SimMotion()
		if err := mqttClient.Subscribe(topic, mqttClient.QoS(), simMotionHandler(hw.sensor, log)); err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
		defer func() {
			if err := mqttClient.Unsubscribe(topic); err != nil {
				log.Warn("unsubscribing", "topic", topic, "error", err)
			}
		}()
	} else {
		log.Info("MQTT disabled")
	}

	if cfg.InfluxDB.Enabled {
		influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		health["influxdb"] = influxClient.HealthCheck
		sinks = append(sinks, events.NewInfluxRecorder(influxClient))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	publisher := events.NewAsync(sinks, 0, log.With("component", "events"))
	defer func() {
		if closeErr := publisher.Close(); closeErr != nil {
			log.Warn("error draining events", "error", closeErr)
		}
	}()

	sequencer, err := actuator.NewSequencer(hw.motor, hw.sensor, actuator.Config{
		HoldDuration:    cfg.GetLockingTime(),
		PollInterval:    cfg.GetPollInterval(),
		ObstructionWarn: cfg.GetObstructionWarn(),
		OnObstructed:    obstructionReporter(publisher, cfg.Unit.ID, log),
		Logger:          log.With("component", "actuator"),
	})
	if err != nil {
		return fmt.Errorf("creating sequencer: %w", err)
	}

	log.Info("opening link", "url", cfg.Link.URL)
	ch, err := link.Open(ctx, cfg.Link.URL, link.Options{
		ReadTimeout: cfg.GetLinkReadTimeout(),
		Logger:      log.With("component", "link"),
	})
	if err != nil {
		return fmt.Errorf("opening link: %w", err)
	}
	defer func() {
		if closeErr := ch.Close(); closeErr != nil {
			log.Error("error closing link", "error", closeErr)
		}
	}()

	srv, err = authority.New(ctx, authority.Options{
		Config: authority.Config{
			UnitID:          cfg.Unit.ID,
			LockoutDuration: cfg.GetLockoutTime(),
			MaxAttempts:     cfg.Policy.MaxAttempts,
			Mode:            cfg.CounterMode(),
		},
		Link:      ch,
		Store:     store,
		Sequencer: sequencer,
		Alarm:     hw.alarm,
		Events:    publisher,
		Logger:    log.With("component", "authority"),
	})
	if err != nil {
		return fmt.Errorf("creating authority: %w", err)
	}

	if cfg.API.Enabled {
		apiServer, err := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Lock:    srv,
			Link:    ch,
			Health:  health,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, health); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, serving link")
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("serving link: %w", err)
	}

	log.Info("door lock authority stopped")
	return nil
}

// getConfigPath returns DOORLOCK_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("DOORLOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openStorage returns the slot storage named by storage.backend and a closer.
// The SQLite backend registers a database health check.
func openStorage(ctx context.Context, cfg *config.Config, log *logging.Logger, health map[string]api.HealthFunc) (credential.Storage, func(), error) {
	if cfg.Storage.Backend == "memory" {
		log.Warn("memory storage selected, the credential is lost on restart")
		return credential.NewMemoryStorage(), func() {}, nil
	}

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Storage.Path,
		WALMode:     cfg.Storage.WALMode,
		BusyTimeout: cfg.GetBusyTimeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closeDB := func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}
	if err := db.Migrate(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", cfg.Storage.Path)

	health["database"] = db.HealthCheck
	return credential.NewSQLiteStorage(db), closeDB, nil
}

// healthCheck runs every registered check once at startup.
func healthCheck(ctx context.Context, checks map[string]api.HealthFunc) error {
	var errs []error
	for name, check := range checks {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// simHardware is the in-process stand-in used when hardware.driver is sim.
type simHardware struct {
	motor  *actuator.SimMotor
	sensor *actuator.SimSensor
	alarm  *actuator.SimAlarm
}

func newSimHardware() simHardware {
	return simHardware{
		motor:  &actuator.SimMotor{},
		sensor: &actuator.SimSensor{},
		alarm:  &actuator.SimAlarm{},
	}
}

// simMotionHandler sets the simulated sensor from "true"/"false" payloads.
func simMotionHandler(sensor *actuator.SimSensor, log *logging.Logger) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		motion, err := strconv.ParseBool(strings.TrimSpace(string(payload)))
		if err != nil {
			return fmt.Errorf("invalid motion payload %q: %w", payload, err)
		}
		sensor.Set(motion)
		log.Info("simulated motion", "motion", motion)
		return nil
	}
}

// obstructionReporter publishes door_obstructed with the time waited so far.
func obstructionReporter(p events.Publisher, unitID string, log *logging.Logger) func(context.Context, time.Duration) {
	return func(ctx context.Context, waited time.Duration) {
		ev := events.New(events.DoorObstructed, unitID, time.Now())
		ev.HoldMS = waited.Milliseconds()
		if err := p.Publish(ctx, ev); err != nil {
			log.Warn("publishing event failed", "type", string(ev.Type), "error", err)
		}
	}
}
