package audit

import (
	"os"
	"strconv"
)

// Config controls the audit trail.
type Config struct {
	RetentionDays int  // Default 90
	Enabled       bool // Parsed from TLM_AUDIT_ENABLED; recording and retention do not consult it
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		Enabled:       true,
	}
}

// ConfigFromEnv loads config from TLM_AUDIT_RETENTION_DAYS and
// TLM_AUDIT_ENABLED.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()

	if v := os.Getenv("TLM_AUDIT_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.RetentionDays = days
		}
	}

	if v := os.Getenv("TLM_AUDIT_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}

	return cfg
}
