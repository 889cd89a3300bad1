package config

import "seqplan/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // console, json
	Categories map[string]bool `yaml:"categories"` // Per-category toggles, unlisted = enabled
}

// LoggerConfig converts the section for logging.Initialize. Debug runs always
// log at debug level.
func (c *Config) LoggerConfig() logging.Config {
	level := c.Logging.Level
	if c.Debug {
		level = "debug"
	}
	return logging.Config{
		Level:      level,
		Format:     c.Logging.Format,
		Categories: c.Logging.Categories,
	}
}
