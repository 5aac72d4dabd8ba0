// Package config defines the agora configuration model and its YAML loader.
//
// Configuration is a single YAML document with ${ENV_VAR} expansion. Every
// section has SetDefaults and Validate methods; Load applies both, so a
// *Config obtained from Load is always complete and internally consistent.
package config

import "fmt"

// Config is the root configuration for the agora server.
type Config struct {
	// Server configures the HTTP listener, CORS, and auth.
	Server ServerConfig `yaml:"server,omitempty"`

	// Databases defines named SQL connections referenced by other sections.
	Databases map[string]*DatabaseConfig `yaml:"databases,omitempty"`

	// LLM configures the text generation provider.
	LLM LLMConfig `yaml:"llm,omitempty"`

	// Media configures image, video, and music generation.
	Media MediaConfig `yaml:"media,omitempty"`

	// Quota configures the per-user daily AI quota.
	Quota QuotaConfig `yaml:"quota,omitempty"`

	// Forum configures thread and comment storage.
	Forum ForumConfig `yaml:"forum,omitempty"`

	// Logger configures logging behavior.
	Logger LoggerConfig `yaml:"logger,omitempty"`
}

// SetDefaults applies default values to all sections.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	for _, db := range c.Databases {
		db.SetDefaults()
	}
	c.LLM.SetDefaults()
	c.Media.SetDefaults()
	c.Quota.SetDefaults()
	c.Forum.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	for name, db := range c.Databases {
		if db == nil {
			return fmt.Errorf("databases.%s: empty definition", name)
		}
		if err := db.Validate(); err != nil {
			return fmt.Errorf("databases.%s: %w", name, err)
		}
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.Media.Validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if err := c.Quota.Validate(c); err != nil {
		return fmt.Errorf("quota: %w", err)
	}
	if err := c.Forum.Validate(c); err != nil {
		return fmt.Errorf("forum: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	return nil
}

// GetDatabase returns the named database config.
func (c *Config) GetDatabase(name string) (*DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	return db, ok
}
