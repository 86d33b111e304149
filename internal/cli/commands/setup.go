package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/cli/config"
	"github.com/leapstack-labs/snipcheck/internal/cli/output"
	"github.com/leapstack-labs/snipcheck/internal/corpus"
	"github.com/leapstack-labs/snipcheck/internal/engine"
	"github.com/leapstack-labs/snipcheck/internal/loader"
	"github.com/leapstack-labs/snipcheck/internal/normalize"
	"github.com/leapstack-labs/snipcheck/internal/state"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext resolves the configuration and renderer for cmd.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig(cmd)
	if err != nil {
		return nil, err
	}
	mode := output.Mode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// getConfig returns the configuration loaded by the root command.
// Commands executed on their own load it from the working directory and
// their own flags.
func getConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.FromContext(cmd.Context()); cfg != nil {
		return cfg, nil
	}
	return config.Load("", cmd.Flags())
}

// LoadDocuments reads the catalog. Explicit paths bypass the docs directory
// and its include/exclude patterns.
func (c *CommandContext) LoadDocuments(paths []string) ([]corpus.Document, error) {
	ld := loader.New(loader.Config{
		Dir:     c.Cfg.DocsDir,
		Include: c.Cfg.Include,
		Exclude: c.Cfg.Exclude,
		Logger:  c.Logger,
	})
	if len(paths) > 0 {
		return ld.LoadPaths(paths)
	}
	if err := c.Cfg.ValidateDirectories(); err != nil {
		return nil, err
	}
	return ld.Load()
}

// NewEngine builds an engine from the configuration. store may be nil.
// Normalizer hooks are reloaded on every call.
func (c *CommandContext) NewEngine(store core.HistoryStore) (*engine.Engine, error) {
	cfg := engine.Config{
		Options: c.Cfg.RunOptions(),
		Store:   store,
		Logger:  c.Logger,
	}

	chain, err := normalize.Load(c.Cfg.NormalizersDir, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load normalizers: %w", err)
	}
	if chain != nil {
		cfg.Normalizer = chain
	}

	return engine.New(cfg)
}

// OpenStore opens the history database, creating it if needed.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// HasHistory reports whether a history database exists.
func (c *CommandContext) HasHistory() bool {
	_, err := os.Stat(c.Cfg.StatePath)
	return err == nil
}

// WithHistory calls fn with an open store when history is enabled,
// and with nil otherwise.
func (c *CommandContext) WithHistory(fn func(store core.HistoryStore) error) error {
	if !c.Cfg.History {
		return fn(nil)
	}
	store, err := c.OpenStore()
	if err != nil {
		return err
	}
	return errors.Join(fn(store), store.Close())
}
