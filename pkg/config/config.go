package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	Console     ConsoleConfig     `yaml:"console"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	Storage     StorageConfig     `yaml:"storage"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains the rig interface board link configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// ConsoleConfig controls the boot-time wait for the rig serial port.
// The wait is bounded: a headless deployment must never hang forever
// waiting for an interactive peer.
type ConsoleConfig struct {
	WaitForPort bool          `yaml:"wait_for_port"`
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// SamplingConfig contains acquisition parameters.
type SamplingConfig struct {
	PeriodMicros   uint32 `yaml:"period_usec"`     // interval between samples during an episode
	BufferCapacity int    `yaml:"buffer_capacity"` // working buffer size in bytes
}

// StorageConfig contains episode persistence parameters.
type StorageConfig struct {
	Dir         string `yaml:"dir"`
	FilePrefix  string `yaml:"file_prefix"`
	CatalogFile string `yaml:"catalog_file"` // SQLite episode index, relative to Dir
}

// CalibrationConfig converts raw 10-bit ADC counts to engineering units for
// the live status display. Stored values stay raw.
type CalibrationConfig struct {
	VRef           float32 `yaml:"vref"`            // ADC reference voltage (V)
	ShuntOhms      float32 `yaml:"shunt_ohms"`      // starter current shunt
	FuelShuntOhms  float32 `yaml:"fuel_shunt_ohms"` // fuel heater current shunt
	NewtonsPerVolt float32 `yaml:"newtons_per_volt"`
	CountsPerRev   float32 `yaml:"counts_per_rev"` // flywheel pulses per revolution
}

// MockConfig contains mock rig configuration.
type MockConfig struct {
	CrankDuration time.Duration `yaml:"crank_duration"`  // simulated episode length
	CrankPeriod   time.Duration `yaml:"crank_period"`    // time between simulated episodes
	CountsPerTick uint32        `yaml:"counts_per_tick"` // flywheel count advance per due sample
	CurrentBase   uint16        `yaml:"current_base"`    // baseline starter current (raw ADC)
	CurrentRipple uint16        `yaml:"current_ripple"`  // peak ripple on top of baseline
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		Console: ConsoleConfig{
			WaitForPort: false,
			WaitTimeout: 10 * time.Second,
		},
		Sampling: SamplingConfig{
			PeriodMicros:   400, // 2500 Hz nominal
			BufferCapacity: 8 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Dir:         "episodes",
			FilePrefix:  "crank",
			CatalogFile: "catalog.db",
		},
		Calibration: CalibrationConfig{
			VRef:           5.0,
			ShuntOhms:      0.0005, // 200 A full scale through a 100x amp
			FuelShuntOhms:  0.01,
			NewtonsPerVolt: 250,
			CountsPerRev:   60,
		},
		Mock: MockConfig{
			CrankDuration: 2 * time.Second,
			CrankPeriod:   10 * time.Second,
			CountsPerTick: 3,
			CurrentBase:   600,
			CurrentRipple: 120,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Console.WaitTimeout == 0 {
		c.Console.WaitTimeout = def.Console.WaitTimeout
	}

	if c.Sampling.PeriodMicros == 0 {
		c.Sampling.PeriodMicros = def.Sampling.PeriodMicros
	}
	if c.Sampling.BufferCapacity == 0 {
		c.Sampling.BufferCapacity = def.Sampling.BufferCapacity
	}

	if c.Storage.Dir == "" {
		c.Storage.Dir = def.Storage.Dir
	}
	if c.Storage.FilePrefix == "" {
		c.Storage.FilePrefix = def.Storage.FilePrefix
	}
	if c.Storage.CatalogFile == "" {
		c.Storage.CatalogFile = def.Storage.CatalogFile
	}

	if c.Calibration.VRef == 0 {
		c.Calibration.VRef = def.Calibration.VRef
	}
	if c.Calibration.ShuntOhms == 0 {
		c.Calibration.ShuntOhms = def.Calibration.ShuntOhms
	}
	if c.Calibration.FuelShuntOhms == 0 {
		c.Calibration.FuelShuntOhms = def.Calibration.FuelShuntOhms
	}
	if c.Calibration.NewtonsPerVolt == 0 {
		c.Calibration.NewtonsPerVolt = def.Calibration.NewtonsPerVolt
	}
	if c.Calibration.CountsPerRev == 0 {
		c.Calibration.CountsPerRev = def.Calibration.CountsPerRev
	}

	if c.Mock.CrankDuration == 0 {
		c.Mock.CrankDuration = def.Mock.CrankDuration
	}
	if c.Mock.CrankPeriod == 0 {
		c.Mock.CrankPeriod = def.Mock.CrankPeriod
	}
	if c.Mock.CountsPerTick == 0 {
		c.Mock.CountsPerTick = def.Mock.CountsPerTick
	}
}
