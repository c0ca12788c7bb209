package config

import (
	"fmt"

	"github.com/leapstack-labs/schemadoc/internal/cli/output"
	"github.com/leapstack-labs/schemadoc/pkg/schema"
)

// Validate checks if the configuration is valid. Sources are checked by the
// commands that need them so that help and history work without any.
func (c *Config) Validate() error {
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("invalid output %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if c.ExportFormat != "" {
		if _, err := schema.ParseEncoding(c.ExportFormat); err != nil {
			return fmt.Errorf("invalid export_format: %w", err)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// ValidateSources checks that a schema and at least one documentation
// source are configured.
func (c *Config) ValidateSources() error {
	if c.Schema == "" {
		return fmt.Errorf("schema is required\nHint: set schema in schemadoc.yaml or use --schema")
	}
	if len(c.DocumentationSources()) == 0 {
		return fmt.Errorf("documentation is required\nHint: set docs or url in schemadoc.yaml or use --docs")
	}
	return nil
}
