package drive

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the drive node settings.
type Config struct {
	// NodeID is the CANopen node id of the drive (1..127).
	NodeID uint8 `yaml:"node_id"`
	// CycleMs is the communication cycle interval in milliseconds; the
	// axis evaluates one controlword per cycle.
	CycleMs int `yaml:"cycle_ms"`
	// HeartbeatMs is the heartbeat production interval in milliseconds.
	HeartbeatMs int `yaml:"heartbeat_ms"`
	// LogLevel is a logrus level name ("info", "debug", ...).
	LogLevel string `yaml:"log_level"`
}

// Defaults applied by Load for fields left unset.
const (
	DefaultCycleMs     = 10
	DefaultHeartbeatMs = 1000
)

// Load reads a yaml config from path and applies defaults. The result is
// not validated; call Validate.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("drive: read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("drive: parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CycleMs == 0 {
		c.CycleMs = DefaultCycleMs
	}
	if c.HeartbeatMs == 0 {
		c.HeartbeatMs = DefaultHeartbeatMs
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the config ranges.
func (c Config) Validate() error {
	if c.NodeID < 1 || c.NodeID > 127 {
		return fmt.Errorf("drive: node_id %d out of range 1..127", c.NodeID)
	}
	if c.CycleMs < 1 {
		return fmt.Errorf("drive: cycle_ms must be positive, got %d", c.CycleMs)
	}
	if c.HeartbeatMs < 1 {
		return fmt.Errorf("drive: heartbeat_ms must be positive, got %d", c.HeartbeatMs)
	}
	return nil
}

// CycleInterval returns the cycle interval as a duration.
func (c Config) CycleInterval() time.Duration {
	return time.Duration(c.CycleMs) * time.Millisecond
}

// HeartbeatInterval returns the heartbeat interval as a duration.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}
