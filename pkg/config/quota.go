package config

import (
	"fmt"
	"time"
)

// defaultDailyLimit applies when daily_limit is absent from the document.
const defaultDailyLimit int64 = 50

// QuotaConfig configures the per-user daily AI quota.
//
// Example:
//
//	quota:
//	  enabled: true
//	  daily_limit: 50
//	  backend: sql
//	  database:
//	    driver: sqlite
//	    database: ./.agora/agora.db
type QuotaConfig struct {
	// Enabled controls whether the quota is enforced.
	// Default: true
	Enabled *bool `yaml:"enabled,omitempty"`

	// DailyLimit is the number of AI operations a user may perform per UTC
	// day. An explicit zero blocks all AI operations; leaving it unset
	// applies the default.
	// Default: 50
	DailyLimit *int64 `yaml:"daily_limit,omitempty"`

	// Backend is the usage store backend: "memory" (default) or "sql".
	Backend string `yaml:"backend,omitempty"`

	// Database configures the SQL connection. Required when Backend is "sql".
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// FailOpen allows AI operations when the usage store is unreachable.
	// Default: false (requests are rejected until the store recovers).
	FailOpen bool `yaml:"fail_open,omitempty"`

	// SweepInterval is how often stale usage records are evicted.
	// Default: 1h
	SweepInterval time.Duration `yaml:"sweep_interval,omitempty"`
}

// SetDefaults applies default values to QuotaConfig.
func (c *QuotaConfig) SetDefaults() {
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.DailyLimit == nil {
		limit := defaultDailyLimit
		c.DailyLimit = &limit
	}
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Hour
	}
	if c.Database != nil {
		c.Database.SetDefaults()
	}
}

// Validate checks the QuotaConfig. The root config is needed to resolve
// database references.
func (c *QuotaConfig) Validate(root *Config) error {
	if !c.IsEnabled() {
		return nil
	}

	if c.DailyLimit != nil && *c.DailyLimit < 0 {
		return fmt.Errorf("daily_limit must be non-negative")
	}

	switch c.Backend {
	case "memory":
	case "sql":
		if c.Database == nil {
			return fmt.Errorf("database is required when backend is sql")
		}
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	default:
		return fmt.Errorf("invalid backend %q (valid: memory, sql)", c.Backend)
	}

	if c.SweepInterval < time.Minute {
		return fmt.Errorf("sweep_interval must be at least 1 minute")
	}

	return nil
}

// IsEnabled returns true if the quota is enforced.
func (c *QuotaConfig) IsEnabled() bool {
	return c != nil && (c.Enabled == nil || *c.Enabled)
}

// Limit returns the configured daily limit. An explicit zero means no
// requests are ever allowed; only an absent value takes the default.
func (c *QuotaConfig) Limit() int64 {
	if c == nil || c.DailyLimit == nil {
		return defaultDailyLimit
	}
	return *c.DailyLimit
}
