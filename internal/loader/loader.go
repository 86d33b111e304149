// Package loader discovers documentation files on disk and reads them into
// corpus documents. HTML pages are converted to Markdown so their code
// blocks become ordinary fenced regions.
package loader

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leapstack-labs/snipcheck/internal/corpus"
)

// Default discovery patterns.
var (
	DefaultInclude = []string{"**/*.md", "**/*.markdown", "**/*.html"}
	DefaultExclude = []string{"node_modules/**"}
)

// Config configures a Loader.
type Config struct {
	// Dir is the documentation root.
	Dir string
	// Include lists slash-separated glob patterns relative to Dir. "**" spans directories.
	Include []string
	// Exclude lists patterns removed from the include set.
	Exclude []string
	Logger  *slog.Logger
}

// Loader reads documents from a directory tree.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a loader. Empty Include uses DefaultInclude.
func New(cfg Config) *Loader {
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultInclude
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Discover returns the matching files as slash-separated paths relative to
// Dir, in lexical order.
func (l *Loader) Discover() ([]string, error) {
	info, err := os.Stat(l.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access docs directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("docs path is not a directory: %s", l.cfg.Dir)
	}

	var files []string
	err = filepath.WalkDir(l.cfg.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(l.cfg.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || l.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if matchAny(l.cfg.Include, rel) && !matchAny(l.cfg.Exclude, rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan docs directory: %w", err)
	}

	slices.Sort(files)
	l.logger.Debug("discovered documents", slog.String("dir", l.cfg.Dir), slog.Int("count", len(files)))
	return files, nil
}

// excludedDir reports whether every file under dir is excluded.
func (l *Loader) excludedDir(dir string) bool {
	return prunedBy(l.cfg.Exclude, dir)
}

// Load discovers and reads every matching document.
func (l *Loader) Load() ([]corpus.Document, error) {
	files, err := l.Discover()
	if err != nil {
		return nil, err
	}

	docs := make([]corpus.Document, 0, len(files))
	for _, rel := range files {
		doc, err := ReadDocument(filepath.Join(l.cfg.Dir, filepath.FromSlash(rel)), rel)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadPaths reads explicit files and directories. Directories are walked
// with the loader's patterns; files are read as given.
func (l *Loader) LoadPaths(paths []string) ([]corpus.Document, error) {
	var docs []corpus.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", p, err)
		}

		if !info.IsDir() {
			doc, err := ReadDocument(p, filepath.ToSlash(filepath.Clean(p)))
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
			continue
		}

		sub := New(Config{Dir: p, Include: l.cfg.Include, Exclude: l.cfg.Exclude, Logger: l.logger})
		files, err := sub.Discover()
		if err != nil {
			return nil, err
		}
		for _, rel := range files {
			full := filepath.Join(p, filepath.FromSlash(rel))
			doc, err := ReadDocument(full, filepath.ToSlash(filepath.Clean(full)))
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ReadDocument reads one file as a document named name.
// HTML files are converted to Markdown.
func ReadDocument(path, name string) (corpus.Document, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from discovery or explicit user input
	if err != nil {
		return corpus.Document{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(content)
	if IsHTML(path) {
		text, err = ConvertHTML(text)
		if err != nil {
			return corpus.Document{}, fmt.Errorf("failed to convert %s to markdown: %w", path, err)
		}
	}

	return corpus.Document{Name: name, Text: text}, nil
}

// IsHTML reports whether path names an HTML page.
func IsHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	default:
		return false
	}
}

// ConvertHTML converts an HTML page to Markdown.
// <pre><code class="language-js"> blocks become fenced js regions.
func ConvertHTML(html string) (string, error) {
	return htmltomarkdown.ConvertString(html)
}
