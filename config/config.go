// Package config loads the daemon's YAML configuration file, governing
// the filesystem contract paths, the REST front-end bind address, and
// the optional voice-modem transport. Every field has a working default
// so the daemon runs unconfigured in emulation mode, matching the
// original's hardcoded-path behavior when no override is given.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's full ambient configuration.
type Config struct {
	// SensorDir is where "this sensor fired" marker files live.
	SensorDir string `yaml:"sensor_dir"`
	// DisableDir is where user-disable marker files live.
	DisableDir string `yaml:"disable_dir"`
	// Bind is the address the REST front-end listens on. A non-loopback
	// address is not refused at startup; the middleware rejects every
	// request from a non-loopback peer whatever this value is.
	Bind string `yaml:"bind"`
	// Debounce is parsed from the file but not applied: the edge watcher
	// uses a fixed 200 ms debounce window.
	Debounce time.Duration `yaml:"debounce"`
	// DSLPath is the state-machine program file to load at startup.
	DSLPath string `yaml:"dsl_path"`
	// Modem configures the optional voice-message queue.
	Modem ModemConfig `yaml:"modem"`
}

// ModemConfig configures the vmqueue package.
type ModemConfig struct {
	// SpoolDir is where queued command scripts are written for pickup.
	SpoolDir string `yaml:"spool_dir"`
	// ScriptDir is where the scripts those commands reference live.
	ScriptDir string `yaml:"script_dir"`
	// SerialPort, if set, is a directly-attached modem that receives an
	// AT wake line on every queued command.
	SerialPort string `yaml:"serial_port"`
}

// Default returns the configuration the daemon runs with when no
// config file is given.
func Default() Config {
	return Config{
		SensorDir:  "/var/spool/alarm/sensor",
		DisableDir: "/var/spool/alarm/disable",
		Bind:       "127.0.0.1:5000",
		Debounce:   200 * time.Millisecond,
		DSLPath:    "/etc/alarm/alarm.dsl",
		Modem: ModemConfig{
			SpoolDir:  "/var/spool/vm",
			ScriptDir: "/opt/alarm/scripts",
		},
	}
}

// Load reads and parses a YAML config file, filling in defaults for any
// field the file leaves zero-valued.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
