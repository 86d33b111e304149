package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to the slash-separated rel path under root,
// creating parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	return full
}

// PassingDoc is a document whose every snippet matches its expected output.
const PassingDoc = "# Arithmetic\n\n```js\nconsole.log(1 + 1) // 2\n```\n\n```ts\nconst xs: number[] = [1, 2]\nconsole.log(xs.length) // 2\n```\n"

// FailingDoc has one mismatching snippet and one snippet that throws.
const FailingDoc = "# Broken\n\n```js\nconsole.log(1 + 1) // 3\n```\n\n```js\nconsole.log('start')\nthrow new Error('boom')\n```\n"

// SetupTestProject creates a temporary project with a snipcheck.yaml and a
// docs tree holding two passing snippets and one skipped snippet. When
// failing is set a document with a Fail and an Errored snippet is included.
func SetupTestProject(t testing.TB, failing bool) string {
	t.Helper()

	root := t.TempDir()
	WriteFile(t, root, "snipcheck.yaml", "docs_dir: docs\ntimeout_ms: 1000\n")
	WriteFile(t, root, "docs/guide/arithmetic.md", PassingDoc)
	WriteFile(t, root, "docs/notes.md", "# Notes\n\n```js\nconst unused = 1\n```\n\n```js\nconsole.log('hello')\n```\n")
	if failing {
		WriteFile(t, root, "docs/broken.md", FailingDoc)
	}
	return root
}
