package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvSchedulerEnabled = "MIMAMORI_SCHEDULER_ENABLED"
	EnvSchedulerTick    = "MIMAMORI_SCHEDULER_TICK"
)

// SchedulerConfig controls the wall-clock scan scheduler.
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled"`
	Tick    string `toml:"tick"`
}

// TickDuration returns Tick as a time.Duration.
func (c *SchedulerConfig) TickDuration() time.Duration {
	d, _ := time.ParseDuration(c.Tick)
	return d
}

func (c *SchedulerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *SchedulerConfig) Merge(overlay *SchedulerConfig) {
	if overlay.Enabled {
		c.Enabled = true
	}
	if overlay.Tick != "" {
		c.Tick = overlay.Tick
	}
}

func (c *SchedulerConfig) loadDefaults() {
	if c.Tick == "" {
		c.Tick = "30s"
	}
}

func (c *SchedulerConfig) loadEnv() {
	if v := os.Getenv(EnvSchedulerEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv(EnvSchedulerTick); v != "" {
		c.Tick = v
	}
}

func (c *SchedulerConfig) validate() error {
	if _, err := time.ParseDuration(c.Tick); err != nil {
		return fmt.Errorf("invalid tick: %w", err)
	}
	return nil
}
