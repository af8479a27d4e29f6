package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration. Everything is read once at start-up.
type Config struct {
	CyclicPrefix         string        `yaml:"cyclic_prefix"`
	SubcarrierSpacingKHz uint32        `yaml:"subcarrier_spacing_khz"`
	GpsAlpha             float64       `yaml:"gps_alpha"`
	GpsBeta              int           `yaml:"gps_beta"`
	WarnOnLate           bool          `yaml:"warn_on_late"`
	CPUAffinity          int           `yaml:"cpu_affinity"` // -1 leaves the worker thread unpinned
	ExecutorQueueSize    int           `yaml:"executor_queue_size"`
	MetricsInterval      time.Duration `yaml:"metrics_interval"`
	LogLevel             string        `yaml:"log_level"`
	LogDevelopment       bool          `yaml:"log_development"`
	Pool                 PoolConfig    `yaml:"pool"`
}

type PoolConfig struct {
	Capacity       int  `yaml:"capacity"`
	NofPorts       int  `yaml:"nof_ports"`
	NofSubcarriers int  `yaml:"nof_subcarriers"`
	LockMemory     bool `yaml:"lock_memory"`
}

func Default() *Config {
	return &Config{
		CyclicPrefix:         "normal",
		SubcarrierSpacingKHz: 30,
		CPUAffinity:          -1,
		ExecutorQueueSize:    64,
		MetricsInterval:      time.Second,
		LogLevel:             "info",
		Pool: PoolConfig{
			Capacity:       16,
			NofPorts:       1,
			NofSubcarriers: 273 * 12,
		},
	}
}

// Load reads a YAML file on top of the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfig loads the file named by OFH_CONFIG, if any.
func LoadConfig() (*Config, error) {
	return Load(os.Getenv("OFH_CONFIG"))
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("OFH_CYCLIC_PREFIX"); ok {
		cfg.CyclicPrefix = v
	}
	if v, ok := os.LookupEnv("OFH_SCS_KHZ"); ok {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("OFH_SCS_KHZ: %w", err)
		}
		cfg.SubcarrierSpacingKHz = uint32(n)
	}
	if v, ok := os.LookupEnv("OFH_GPS_ALPHA"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OFH_GPS_ALPHA: %w", err)
		}
		cfg.GpsAlpha = f
	}
	if v, ok := os.LookupEnv("OFH_GPS_BETA"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OFH_GPS_BETA: %w", err)
		}
		cfg.GpsBeta = n
	}
	if v, ok := os.LookupEnv("OFH_WARN_ON_LATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("OFH_WARN_ON_LATE: %w", err)
		}
		cfg.WarnOnLate = b
	}
	if v, ok := os.LookupEnv("OFH_CPU"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("OFH_CPU: %w", err)
		}
		cfg.CPUAffinity = n
	}
	if v, ok := os.LookupEnv("OFH_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	return nil
}
