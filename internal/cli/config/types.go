// Package config provides configuration management for the schemadoc CLI.
package config

import (
	"time"

	"github.com/leapstack-labs/schemadoc/internal/source"
)

// Config holds all CLI configuration options.
type Config struct {
	// Schema is the path or URL of the actual database schema.
	Schema string `koanf:"schema"`
	// Docs lists documentation paths or URLs, merged in order.
	Docs []string `koanf:"docs"`
	// URL is a documentation URL appended after Docs. It may contain {branch}.
	URL    string `koanf:"url"`
	Branch string `koanf:"branch"`
	// Verify is true, false or the path of a CA bundle.
	Verify   string        `koanf:"verify"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`
	Retries  uint64        `koanf:"retries"`

	LogLevel     string `koanf:"log_level"`
	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	Export       bool   `koanf:"export"`
	ExportDir    string `koanf:"export_dir"`
	ExportFormat string `koanf:"export_format"`

	// History is the path of the run history database; empty disables it.
	History string `koanf:"history"`
}

// Default configuration values.
const (
	DefaultVerify       = "true"
	DefaultLogLevel     = "warn"
	DefaultOutput       = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultExportDir    = "."
	DefaultExportFormat = "json"
)

// DocumentationSources returns the documentation locations in merge order.
func (c *Config) DocumentationSources() []string {
	sources := make([]string, 0, len(c.Docs)+1)
	for _, d := range c.Docs {
		if d != "" {
			sources = append(sources, d)
		}
	}
	if c.URL != "" {
		sources = append(sources, c.URL)
	}
	return sources
}

// SourceConfig returns the acquisition settings.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		Verify:   c.Verify,
		Username: c.Username,
		Password: c.Password,
		Branch:   c.Branch,
		Timeout:  c.Timeout,
		Retries:  c.Retries,
	}
}
