package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relabs-tech/posture_baseline/internal/calibration"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker             string
	MQTTClientIDCalibrator string
	MQTTClientIDProducer   string
	MQTTClientIDConsole    string
	MQTTClientIDWeb        string

	// Topics
	TopicLandmarks        string
	TopicCalibrationState string
	TopicBaseline         string

	// Calibration
	CalibrationDurationMS    int     // capture window in milliseconds
	CalibrationMinVisibility float64 // per-landmark visibility threshold, 0-1
	CalibrationMinSamples    int     // accepted frames needed to complete
	CalibrationFile          string
	CalibrationStrictRead    bool // reject unknown keys when loading the baseline file

	// Timing
	TickInterval int // milliseconds

	// Web Server
	WebServerPort int
}

// Default returns the configuration used for keys missing from the file.
// MQTT_BROKER has no default.
func Default() *Config {
	return &Config{
		MQTTClientIDCalibrator: "posture-calibrator",
		MQTTClientIDProducer:   "posture-producer-mock",
		MQTTClientIDConsole:    "posture-console",
		MQTTClientIDWeb:        "posture-web",

		TopicLandmarks:        "posture/landmarks",
		TopicCalibrationState: "posture/calibration/state",
		TopicBaseline:         "posture/calibration/baseline",

		CalibrationDurationMS:    5000,
		CalibrationMinVisibility: 0.5,
		CalibrationMinSamples:    1,
		CalibrationFile:          "data/calibration.json",

		TickInterval:  200,
		WebServerPort: 8080,
	}
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: only reachable through Get, so nothing outside this
//     package can swap it without the lock.
//   - configOnce: ensures InitGlobal() only runs once.
//   - configMu: write lock for initialization, read lock for Get().
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines from r on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_CALIBRATOR":
		c.MQTTClientIDCalibrator = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value

	// Topics
	case "TOPIC_LANDMARKS":
		c.TopicLandmarks = value
	case "TOPIC_CALIBRATION_STATE":
		c.TopicCalibrationState = value
	case "TOPIC_BASELINE":
		c.TopicBaseline = value

	// Calibration
	case "CALIBRATION_DURATION_MS":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_DURATION_MS %q: %w", value, err)
		}
		if ms <= 0 {
			return fmt.Errorf("CALIBRATION_DURATION_MS must be > 0, got %d", ms)
		}
		c.CalibrationDurationMS = ms
	case "CALIBRATION_MIN_VISIBILITY":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_MIN_VISIBILITY %q: %w", value, err)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("CALIBRATION_MIN_VISIBILITY must be 0-1, got %g", v)
		}
		c.CalibrationMinVisibility = v
	case "CALIBRATION_MIN_SAMPLES":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_MIN_SAMPLES %q: %w", value, err)
		}
		if n < 1 {
			return fmt.Errorf("CALIBRATION_MIN_SAMPLES must be >= 1, got %d", n)
		}
		c.CalibrationMinSamples = n
	case "CALIBRATION_FILE":
		c.CalibrationFile = value
	case "CALIBRATION_STRICT_READ":
		strict, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid CALIBRATION_STRICT_READ %q: %w", value, err)
		}
		c.CalibrationStrictRead = strict

	// Timing
	case "TICK_INTERVAL_MS":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid TICK_INTERVAL_MS %q: %w", value, err)
		}
		if interval <= 0 {
			return fmt.Errorf("TICK_INTERVAL_MS must be > 0, got %d", interval)
		}
		c.TickInterval = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.CalibrationFile == "" {
		return fmt.Errorf("CALIBRATION_FILE is required")
	}
	if c.TopicLandmarks == "" {
		return fmt.Errorf("TOPIC_LANDMARKS is required")
	}
	return nil
}

// Session returns the capture policy for a calibration session.
func (c *Config) Session() calibration.Config {
	return calibration.Config{
		Duration:      time.Duration(c.CalibrationDurationMS) * time.Millisecond,
		MinConfidence: c.CalibrationMinVisibility,
		MinSamples:    c.CalibrationMinSamples,
	}
}

// Tick returns TICK_INTERVAL_MS as a duration.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickInterval) * time.Millisecond
}

// LoadBaseline reads the configured baseline file with the configured
// reader mode.
func (c *Config) LoadBaseline() (calibration.Baseline, error) {
	if c.CalibrationStrictRead {
		return calibration.LoadStrict(c.CalibrationFile)
	}
	return calibration.Load(c.CalibrationFile)
}

// InitGlobal initializes the global configuration from file.
// Only the first call reads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
