package config

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/snipcheck/internal/cli/output"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		return fmt.Errorf("%w: docs_dir is required", core.ErrConfiguration)
	}
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("%w: output must be one of auto, text, markdown, json (got %q)", core.ErrConfiguration, c.OutputFormat)
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("%w: serve.port out of range (got %d)", core.ErrConfiguration, c.Serve.Port)
	}
	return c.RunOptions().Validate()
}

// ValidateDirectories checks if the docs directory exists.
// Commands that walk the docs tree call this; help and init do not.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.DocsDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("docs directory does not exist: %s\nHint: Create the directory or use --docs-dir to specify a different path", c.DocsDir)
	}
	if err != nil {
		return fmt.Errorf("failed to access docs directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("docs path is not a directory: %s", c.DocsDir)
	}
	return nil
}
