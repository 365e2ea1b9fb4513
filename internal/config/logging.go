package config

import (
	"fmt"
	"strings"

	"ctxgraph/internal/logging"
)

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // console, json
	File       string          `yaml:"file"`       // empty = stderr
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Categories not listed are enabled.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Validate checks level, format and category names.
func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: invalid log level: %s", ErrInvalid, c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format: %s", ErrInvalid, c.Format)
	}
	for name := range c.Categories {
		if !knownCategory(name) {
			return fmt.Errorf("%w: unknown log category: %s", ErrInvalid, name)
		}
	}
	return nil
}

// ForLogger converts to the logging package's settings.
func (c *LoggingConfig) ForLogger() logging.Config {
	return logging.Config{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		Categories: c.Categories,
	}
}

func knownCategory(name string) bool {
	for _, c := range logging.AllCategories {
		if string(c) == name {
			return true
		}
	}
	return false
}
