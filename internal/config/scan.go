package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mimamori/mimamori/internal/alerts"
)

const (
	EnvScanLookbackDays   = "MIMAMORI_SCAN_LOOKBACK_DAYS"
	EnvScanPatientTimeout = "MIMAMORI_SCAN_PATIENT_TIMEOUT"
	EnvScanConcurrency    = "MIMAMORI_SCAN_CONCURRENCY"
)

// ScanConfig controls alert scans: the report lookback window, per-patient
// execution bounds, and the pattern catalog. An empty Patterns list falls
// back to the built-in catalog.
type ScanConfig struct {
	LookbackDays   int              `toml:"lookback_days"`
	PatientTimeout string           `toml:"patient_timeout"`
	Concurrency    int              `toml:"concurrency"`
	Patterns       []alerts.Pattern `toml:"patterns"`
}

// PatientTimeoutDuration returns PatientTimeout as a time.Duration.
func (c *ScanConfig) PatientTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.PatientTimeout)
	return d
}

func (c *ScanConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *ScanConfig) Merge(overlay *ScanConfig) {
	if overlay.LookbackDays != 0 {
		c.LookbackDays = overlay.LookbackDays
	}
	if overlay.PatientTimeout != "" {
		c.PatientTimeout = overlay.PatientTimeout
	}
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if len(overlay.Patterns) > 0 {
		c.Patterns = overlay.Patterns
	}
}

func (c *ScanConfig) loadDefaults() {
	if c.LookbackDays == 0 {
		c.LookbackDays = 3
	}
	if c.PatientTimeout == "" {
		c.PatientTimeout = "30s"
	}
	if c.Concurrency == 0 {
		c.Concurrency = 5
	}
}

func (c *ScanConfig) loadEnv() {
	if v := os.Getenv(EnvScanLookbackDays); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.LookbackDays = n
		}
	}
	if v := os.Getenv(EnvScanPatientTimeout); v != "" {
		c.PatientTimeout = v
	}
	if v := os.Getenv(EnvScanConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Concurrency = n
		}
	}
}

func (c *ScanConfig) validate() error {
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive")
	}
	if _, err := time.ParseDuration(c.PatientTimeout); err != nil {
		return fmt.Errorf("invalid patient_timeout: %w", err)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}
