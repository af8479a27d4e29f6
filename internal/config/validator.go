package config

import (
	"fmt"
	"runtime"

	"github.com/ALEYI17/ofh_timing/internal/slot"
	"go.uber.org/multierr"
)

// Validate checks every field and reports all problems at once.
func Validate(cfg *Config) error {
	var err error

	if _, perr := slot.ParseCyclicPrefix(cfg.CyclicPrefix); perr != nil {
		err = multierr.Append(err, perr)
	}
	if _, nerr := slot.SubcarrierSpacing(cfg.SubcarrierSpacingKHz).Numerology(); nerr != nil {
		err = multierr.Append(err, nerr)
	}
	if cfg.CPUAffinity < -1 || cfg.CPUAffinity >= runtime.NumCPU() {
		err = multierr.Append(err, fmt.Errorf("cpu_affinity %d outside [-1, %d)", cfg.CPUAffinity, runtime.NumCPU()))
	}
	if cfg.ExecutorQueueSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("executor_queue_size must be > 0"))
	}
	if cfg.MetricsInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("metrics_interval must be > 0"))
	}

	if cfg.Pool.Capacity <= 0 {
		err = multierr.Append(err, fmt.Errorf("pool.capacity must be > 0"))
	}
	if cfg.Pool.NofPorts <= 0 {
		err = multierr.Append(err, fmt.Errorf("pool.nof_ports must be > 0"))
	}
	if cfg.Pool.NofSubcarriers <= 0 || cfg.Pool.NofSubcarriers%12 != 0 {
		err = multierr.Append(err, fmt.Errorf("pool.nof_subcarriers must be a positive multiple of 12, got %d", cfg.Pool.NofSubcarriers))
	}

	return err
}
