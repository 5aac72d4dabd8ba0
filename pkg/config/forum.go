package config

import "fmt"

// ForumConfig configures thread and comment storage.
type ForumConfig struct {
	// Backend is the storage backend: "inmemory" (default) or "sql".
	Backend string `yaml:"backend,omitempty"`

	// Database references a connection in the databases section.
	// Required when Backend is "sql".
	Database string `yaml:"database,omitempty"`

	// PageSize is the default page size for listings.
	// Default: 20
	PageSize int `yaml:"page_size,omitempty"`

	// MaxPageSize caps the requested page size.
	// Default: 100
	MaxPageSize int `yaml:"max_page_size,omitempty"`
}

// SetDefaults applies default values to ForumConfig.
func (c *ForumConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "inmemory"
	}
	if c.PageSize == 0 {
		c.PageSize = 20
	}
	if c.MaxPageSize == 0 {
		c.MaxPageSize = 100
	}
}

// Validate checks the ForumConfig against the root config.
func (c *ForumConfig) Validate(root *Config) error {
	switch c.Backend {
	case "inmemory":
	case "sql":
		if c.Database == "" {
			return fmt.Errorf("database is required when backend is sql")
		}
		if root != nil {
			if _, ok := root.GetDatabase(c.Database); !ok {
				return fmt.Errorf("database %q not found", c.Database)
			}
		}
	default:
		return fmt.Errorf("invalid backend %q (valid: inmemory, sql)", c.Backend)
	}

	if c.PageSize < 1 {
		return fmt.Errorf("page_size must be positive")
	}
	if c.MaxPageSize < c.PageSize {
		return fmt.Errorf("max_page_size must be at least page_size")
	}

	return nil
}
