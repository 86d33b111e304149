// Package config provides configuration management for the snipcheck CLI.
//
// Values are layered with koanf: built-in defaults, then snipcheck.yaml,
// then SNIPCHECK_* environment variables, then explicitly set flags.
// Unknown keys are rejected.
package config

import (
	"github.com/leapstack-labs/snipcheck/internal/loader"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Default configuration values.
const (
	DefaultDocsDir   = "docs"
	DefaultStateFile = ".snipcheck/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultServePort = 8787
)

// ConfigFileNames are the file names searched for, in order.
var ConfigFileNames = []string{"snipcheck.yaml", "snipcheck.yml"}

// ServeConfig holds configuration for the history API server.
type ServeConfig struct {
	Port int `koanf:"port"`
	// Watch re-runs the catalog when documents change.
	Watch bool `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	DocsDir             string      `koanf:"docs_dir"`
	Include             []string    `koanf:"include"`
	Exclude             []string    `koanf:"exclude"`
	TimeoutMs           int         `koanf:"timeout_ms"`
	FailFast            bool        `koanf:"fail_fast"`
	NormalizeWhitespace bool        `koanf:"normalize_whitespace"`
	Concurrency         int         `koanf:"concurrency"`
	Markers             []string    `koanf:"markers"`
	OutputCalls         []string    `koanf:"output_calls"`
	MaxCallStack        int         `koanf:"max_call_stack"`
	NormalizersDir      string      `koanf:"normalizers_dir"`
	StatePath           string      `koanf:"state_path"`
	History             bool        `koanf:"history"`
	OutputFormat        string      `koanf:"output"`
	Verbose             bool        `koanf:"verbose"`
	Serve               ServeConfig `koanf:"serve"`

	// ProjectRoot anchors relative paths. It is derived, never read from a source.
	ProjectRoot string `koanf:"-"`
	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// defaults returns the built-in configuration layer.
func defaults() map[string]any {
	opts := core.DefaultOptions()
	return map[string]any{
		"docs_dir":             DefaultDocsDir,
		"include":              loader.DefaultInclude,
		"exclude":              loader.DefaultExclude,
		"timeout_ms":           opts.TimeoutMs,
		"fail_fast":            opts.FailFast,
		"normalize_whitespace": opts.NormalizeWhitespace,
		"concurrency":          opts.Concurrency,
		"markers":              opts.Markers,
		"output_calls":         opts.OutputCalls,
		"max_call_stack":       opts.MaxCallStack,
		"normalizers_dir":      "",
		"state_path":           DefaultStateFile,
		"history":              true,
		"output":               DefaultOutput,
		"verbose":              false,
		"serve.port":           DefaultServePort,
		"serve.watch":          false,
	}
}

// RunOptions returns the core run options described by the configuration.
func (c *Config) RunOptions() core.Options {
	return core.Options{
		TimeoutMs:           c.TimeoutMs,
		FailFast:            c.FailFast,
		NormalizeWhitespace: c.NormalizeWhitespace,
		Concurrency:         c.Concurrency,
		Markers:             c.Markers,
		OutputCalls:         c.OutputCalls,
		MaxCallStack:        c.MaxCallStack,
	}
}
