package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvBPSMode       = "MIMAMORI_BPS_MODE"
	EnvBPSWindowDays = "MIMAMORI_BPS_WINDOW_DAYS"

	BPSModeRule  = "rule"
	BPSModeAgent = "agent"
)

// BPSConfig selects the classification backend and the aggregation window.
// Mode "agent" uses the configured language model with rule fallback; mode
// "rule" is fully deterministic.
type BPSConfig struct {
	Mode       string `toml:"mode"`
	WindowDays int    `toml:"window_days"`
}

func (c *BPSConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *BPSConfig) Merge(overlay *BPSConfig) {
	if overlay.Mode != "" {
		c.Mode = overlay.Mode
	}
	if overlay.WindowDays != 0 {
		c.WindowDays = overlay.WindowDays
	}
}

func (c *BPSConfig) loadDefaults() {
	if c.Mode == "" {
		c.Mode = BPSModeRule
	}
	if c.WindowDays == 0 {
		c.WindowDays = 30
	}
}

func (c *BPSConfig) loadEnv() {
	if v := os.Getenv(EnvBPSMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvBPSWindowDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.WindowDays = n
		}
	}
}

func (c *BPSConfig) validate() error {
	if c.Mode != BPSModeRule && c.Mode != BPSModeAgent {
		return fmt.Errorf("mode must be %q or %q", BPSModeRule, BPSModeAgent)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	return nil
}
