package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/gray-logic-doorlock/internal/lockout"
)

// Config is the root configuration shared by doorlockd and doorpanel.
// Each binary reads the sections it needs.
type Config struct {
	Unit     UnitConfig     `yaml:"unit"`
	Link     LinkConfig     `yaml:"link"`
	Storage  StorageConfig  `yaml:"storage"`
	Timing   TimingConfig   `yaml:"timing"`
	Policy   PolicyConfig   `yaml:"policy"`
	Hardware HardwareConfig `yaml:"hardware"`
	Panel    PanelConfig    `yaml:"panel"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// UnitConfig identifies the door.
type UnitConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// LinkConfig selects the command channel transport.
type LinkConfig struct {
	// URL is serial:///dev/ttyUSB0?baud=9600, tcp://host:port,
	// tcp+listen://:port or unix:///path.
	URL string `yaml:"url"`

	// ReadTimeout bounds each byte read, in seconds. 0 waits forever.
	ReadTimeout int `yaml:"read_timeout"`
}

// StorageConfig selects where the credential record lives.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // sqlite or memory
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TimingConfig holds the door and alarm timings.
type TimingConfig struct {
	LockingTime     int `yaml:"locking_time"`      // seconds the motor runs per direction
	LockoutTime     int `yaml:"lockout_time"`      // seconds the alarm sounds
	PollIntervalMS  int `yaml:"poll_interval_ms"`  // motion re-sample interval
	ObstructionWarn int `yaml:"obstruction_warn"` // seconds; 0 disables the warning
}

// PolicyConfig holds the retry policy.
type PolicyConfig struct {
	MaxAttempts int    `yaml:"max_attempts"`
	CounterMode string `yaml:"counter_mode"` // legacy (default) or authoritative
}

// HardwareConfig selects the actuator driver.
type HardwareConfig struct {
	Driver string `yaml:"driver"` // only "sim" is built in
}

// PanelConfig holds front-end display pauses in milliseconds.
type PanelConfig struct {
	ReadyPauseMS    int `yaml:"ready_pause_ms"`
	MismatchPauseMS int `yaml:"mismatch_pause_ms"`
	RejectPauseMS   int `yaml:"reject_pause_ms"`
	SavedPauseMS    int `yaml:"saved_pause_ms"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // seconds
}

// APIConfig contains the status API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads path, applies DOORLOCK_* environment overrides and validates.
//
// Order: defaults, then file, then environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when a key is absent from the file.
func Default() *Config {
	return &Config{
		Unit: UnitConfig{
			ID:   "door-01",
			Name: "Front Door",
		},
		Link: LinkConfig{
			URL: "serial:///dev/ttyUSB0?baud=9600",
		},
		Storage: StorageConfig{
			Backend:     "sqlite",
			Path:        "./data/doorlock.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Timing: TimingConfig{
			LockingTime:    1,
			LockoutTime:    3,
			PollIntervalMS: 100,
		},
		Policy: PolicyConfig{
			MaxAttempts: lockout.DefaultMaxAttempts,
			CounterMode: string(lockout.ModeLegacy),
		},
		Hardware: HardwareConfig{
			Driver: "sim",
		},
		Panel: PanelConfig{
			ReadyPauseMS:    1000,
			MismatchPauseMS: 2000,
			RejectPauseMS:   1000,
			SavedPauseMS:    2000,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "doorlock-door-01",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "doorlock",
			BatchSize:     100,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies DOORLOCK_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("DOORLOCK_UNIT_ID", &cfg.Unit.ID)
	str("DOORLOCK_LINK_URL", &cfg.Link.URL)
	str("DOORLOCK_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("DOORLOCK_STORAGE_PATH", &cfg.Storage.Path)
	str("DOORLOCK_COUNTER_MODE", &cfg.Policy.CounterMode)
	str("DOORLOCK_MQTT_HOST", &cfg.MQTT.Broker.Host)
	str("DOORLOCK_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	str("DOORLOCK_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)
	str("DOORLOCK_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)
	str("DOORLOCK_API_HOST", &cfg.API.Host)
	str("DOORLOCK_LOG_LEVEL", &cfg.Logging.Level)

	if v := os.Getenv("DOORLOCK_LINK_READ_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Link.ReadTimeout = n
		}
	}
	if v := os.Getenv("DOORLOCK_MQTT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MQTT.Enabled = b
		}
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if c.Unit.ID == "" {
		errs = append(errs, "unit.id is required")
	}

	if c.Link.URL == "" {
		errs = append(errs, "link.url is required")
	} else if _, err := url.Parse(c.Link.URL); err != nil {
		errs = append(errs, fmt.Sprintf("link.url is invalid: %v", err))
	}
	if c.Link.ReadTimeout < 0 {
		errs = append(errs, "link.read_timeout must not be negative")
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, "storage.path is required for the sqlite backend")
		}
	case "memory":
	default:
		errs = append(errs, "storage.backend must be sqlite or memory")
	}

	if c.Timing.LockingTime <= 0 {
		errs = append(errs, "timing.locking_time must be positive")
	}
	if c.Timing.LockoutTime <= 0 {
		errs = append(errs, "timing.lockout_time must be positive")
	}
	if c.Timing.PollIntervalMS <= 0 {
		errs = append(errs, "timing.poll_interval_ms must be positive")
	}
	if c.Timing.ObstructionWarn < 0 {
		errs = append(errs, "timing.obstruction_warn must not be negative")
	}

	if c.Policy.MaxAttempts < 1 || c.Policy.MaxAttempts > 255 {
		errs = append(errs, "policy.max_attempts must be between 1 and 255")
	}
	if _, err := lockout.ParseMode(c.Policy.CounterMode); err != nil {
		errs = append(errs, "policy.counter_mode must be authoritative or legacy")
	}

	if c.Hardware.Driver != "sim" {
		errs = append(errs, "hardware.driver must be sim")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CounterMode returns the parsed policy.counter_mode.
func (c *Config) CounterMode() lockout.Mode {
	m, err := lockout.ParseMode(c.Policy.CounterMode)
	if err != nil {
		return lockout.ModeLegacy
	}
	return m
}

// GetLinkReadTimeout returns link.read_timeout as a Duration.
func (c *Config) GetLinkReadTimeout() time.Duration {
	return time.Duration(c.Link.ReadTimeout) * time.Second
}

// GetLockingTime returns the motor run time per direction.
func (c *Config) GetLockingTime() time.Duration {
	return time.Duration(c.Timing.LockingTime) * time.Second
}

// GetLockoutTime returns the alarm duration.
func (c *Config) GetLockoutTime() time.Duration {
	return time.Duration(c.Timing.LockoutTime) * time.Second
}

// GetPollInterval returns the motion re-sample interval.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Timing.PollIntervalMS) * time.Millisecond
}

// GetObstructionWarn returns the obstruction warning delay, zero when disabled.
func (c *Config) GetObstructionWarn() time.Duration {
	return time.Duration(c.Timing.ObstructionWarn) * time.Second
}

// GetBusyTimeout returns storage.busy_timeout as a Duration.
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Storage.BusyTimeout) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// Pause converts one of the panel millisecond settings.
func Pause(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
