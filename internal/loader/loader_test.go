package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/snipcheck/internal/corpus"
	"github.com/leapstack-labs/snipcheck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"**/*.md", "a.md", true},
		{"**/*.md", "guide/a.md", true},
		{"**/*.md", "guide/deep/a.md", true},
		{"**/*.md", "a.txt", false},
		{"*.md", "guide/a.md", false},
		{"guide/*.md", "guide/a.md", true},
		{"guide/**", "guide/a/b.md", true},
		{"node_modules/**", "node_modules/pkg/readme.md", true},
		{"node_modules/**", "docs/node_modules/readme.md", false},
		{"**/node_modules/**", "docs/node_modules/readme.md", true},
		{"guide/**/api.md", "guide/api.md", true},
		{"guide/**/api.md", "guide/v1/v2/api.md", true},
		{"[", "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"~"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.pattern, tt.name))
		})
	}
}

func TestPrunedBy(t *testing.T) {
	exclude := []string{"node_modules/**", "**/drafts/**", "*.tmp"}

	tests := []struct {
		dir  string
		want bool
	}{
		{"node_modules", true},
		{"drafts", true},
		{"guide/drafts", true},
		{"guide", false},
		{"docs/node_modules", false},
		{"a.tmp", false},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.want, prunedBy(exclude, tt.dir))
		})
	}
}

func TestLoader_Discover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "intro.md", "# Intro")
	writeFile(t, root, "guide/async.markdown", "# Async")
	writeFile(t, root, "guide/page.html", "<h1>Page</h1>")
	writeFile(t, root, "guide/notes.txt", "not docs")
	writeFile(t, root, "node_modules/pkg/readme.md", "# Vendor")
	writeFile(t, root, ".git/description.md", "# hidden")
	writeFile(t, root, "drafts/wip.md", "# WIP")

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    []string
	}{
		{
			name:    "defaults",
			exclude: DefaultExclude,
			want:    []string{"drafts/wip.md", "guide/async.markdown", "guide/page.html", "intro.md"},
		},
		{
			name:    "extra exclude",
			exclude: []string{"node_modules/**", "drafts/**"},
			want:    []string{"guide/async.markdown", "guide/page.html", "intro.md"},
		},
		{
			name:    "narrow include",
			include: []string{"guide/*.markdown"},
			want:    []string{"guide/async.markdown"},
		},
		{
			name:    "exclude single file",
			include: []string{"**/*.md"},
			exclude: []string{"node_modules/**", "intro.md"},
			want:    []string{"drafts/wip.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := New(Config{Dir: root, Include: tt.include, Exclude: tt.exclude}).Discover()
			require.NoError(t, err)
			assert.Equal(t, tt.want, files)
		})
	}
}

func TestLoader_DiscoverErrors(t *testing.T) {
	_, err := New(Config{Dir: "/nonexistent/docs"}).Discover()
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(Config{Dir: file}).Discover()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLoader_Load(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "second")
	writeFile(t, root, "a.md", "first")

	docs, err := New(Config{Dir: root}).Load()
	require.NoError(t, err)
	assert.Equal(t, []corpus.Document{
		{Name: "a.md", Text: "first"},
		{Name: "b.md", Text: "second"},
	}, docs)
}

func TestLoader_LoadPaths(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "single.md", "single")
	writeFile(t, root, "dir/one.md", "one")
	writeFile(t, root, "dir/skip.txt", "skip")

	docs, err := New(Config{}).LoadPaths([]string{
		filepath.Join(root, "single.md"),
		filepath.Join(root, "dir"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "single.md")), docs[0].Name)
	assert.Equal(t, filepath.ToSlash(filepath.Join(root, "dir", "one.md")), docs[1].Name)
	assert.Equal(t, "one", docs[1].Text)

	_, err = New(Config{}).LoadPaths([]string{filepath.Join(root, "missing.md")})
	assert.Error(t, err)
}

func TestConvertHTML_CodeBlocksBecomeFences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.html", `<html><body>
<h1>Arithmetic</h1>
<p>Adding numbers:</p>
<pre><code class="language-js">const x = 1 + 1
console.log(x) // 2
</code></pre>
</body></html>`)

	doc, err := ReadDocument(filepath.Join(root, "page.html"), "page.html")
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "# Arithmetic")
	assert.Contains(t, doc.Text, "```js")

	records := corpus.NewParser(corpus.Config{}).Parse(doc)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"2"}, records[0].Expected)
	assert.Equal(t, core.LanguageJavaScript, records[0].Language)
}

func TestIsHTML(t *testing.T) {
	assert.True(t, IsHTML("a/b.html"))
	assert.True(t, IsHTML("A.HTM"))
	assert.False(t, IsHTML("a.md"))
}
