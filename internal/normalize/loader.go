// Package normalize loads Starlark output normalizers.
// Each .star file in the normalizers directory may define normalize(line),
// which rewrites one output line before expected and actual are compared.
package normalize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// HookFunc is the name of the function a normalizer file must define.
const HookFunc = "normalize"

// Loader scans a directory for .star files and loads their normalize hooks.
type Loader struct {
	dir string
}

// NewLoader creates a new normalizer loader for the specified directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Hook is one loaded normalize function.
type Hook struct {
	// Name is derived from the filename (e.g., "timestamps" from "timestamps.star").
	Name string

	// Path is the path to the .star file.
	Path string

	fn starlark.Callable
}

// Load scans the directory and loads every .star file in lexical order.
// A missing directory yields no hooks.
func (l *Loader) Load() ([]*Hook, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access normalizers directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("normalizers path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan normalizers directory: %w", err)
	}
	sort.Strings(files)

	var hooks []*Hook
	for _, file := range files {
		hook, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, hook)
	}

	return hooks, nil
}

// loadFile executes a single .star file and extracts its hook.
func (l *Loader) loadFile(path string) (*Hook, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the normalizers directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	name := strings.TrimSuffix(filepath.Base(path), ".star")

	thread := &starlark.Thread{
		Name:  fmt.Sprintf("load:%s", name),
		Print: func(_ *starlark.Thread, _ string) {},
	}

	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, path, content, nil)
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}
	globals.Freeze()

	value, ok := globals[HookFunc]
	if !ok {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("missing %s(line) function", HookFunc)}
	}
	fn, ok := value.(starlark.Callable)
	if !ok {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("%s is a %s, not a function", HookFunc, value.Type())}
	}
	if f, isFunc := fn.(*starlark.Function); isFunc && f.NumParams() != 1 {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("%s must take exactly one parameter (got %d)", HookFunc, f.NumParams())}
	}

	return &Hook{Name: name, Path: path, fn: fn}, nil
}

// LoadError represents an error loading a normalizer file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("normalizers/%s: %s", filepath.Base(e.File), e.Message)
}
