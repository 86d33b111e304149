// Package transpile lowers snippet source to the JavaScript level the sandbox
// runtime evaluates, using esbuild.
package transpile

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// tsconfigRaw enables legacy decorators, which most TypeScript material uses.
const tsconfigRaw = `{"compilerOptions":{"experimentalDecorators":true,"useDefineForClassFields":false}}`

// Transpiler lowers TypeScript and modern JavaScript to ES2017.
// A Transpiler holds no state and is safe for concurrent use.
type Transpiler struct {
	target api.Target
}

// New creates a transpiler targeting ES2017.
func New() *Transpiler {
	return &Transpiler{target: api.ES2017}
}

// Error is a transform failure located in the snippet.
type Error struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Lower transforms source written in lang. name is used in error locations.
func (t *Transpiler) Lower(name string, lang core.Language, source string) (string, error) {
	opts := api.TransformOptions{
		Sourcefile: name,
		Target:     t.target,
		Loader:     api.LoaderJS,
		LogLevel:   api.LogLevelSilent,
		Charset:    api.CharsetUTF8,
	}
	if lang == core.LanguageTypeScript {
		opts.Loader = api.LoaderTS
		opts.TsconfigRaw = tsconfigRaw
	}

	result := api.Transform(source, opts)
	if len(result.Errors) > 0 {
		msg := result.Errors[0]
		e := &Error{File: name, Message: msg.Text}
		if msg.Location != nil {
			e.Line = msg.Location.Line
			// esbuild columns are 0-based
			e.Column = msg.Location.Column + 1
		}
		if extra := len(result.Errors) - 1; extra > 0 {
			e.Message += fmt.Sprintf(" (and %d more)", extra)
		}
		return "", e
	}

	return strings.TrimRight(string(result.Code), "\n"), nil
}
