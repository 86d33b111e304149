package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/snipcheck/internal/sandbox"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	var typescript bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Evaluate snippets interactively in the sandbox",
		Long: `Start an interactive prompt that evaluates each entry in the same
sandbox used for catalog runs. Console output is printed as it happens.

Every entry runs in a fresh context: variables do not carry over.
End a line with \ to continue the entry on the next line.`,
		Example: `  # JavaScript prompt
  snipcheck repl

  # TypeScript prompt
  snipcheck repl --ts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lang := core.LanguageJavaScript
			if typescript {
				lang = core.LanguageTypeScript
			}
			return runREPL(cmd, lang)
		},
	}

	cmd.Flags().BoolVar(&typescript, "ts", false, "Start in TypeScript mode")

	return cmd
}

const (
	replPrompt         = "snipcheck> "
	replContinuePrompt = "      ...> "
)

func runREPL(cmd *cobra.Command, lang core.Language) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	session, err := newREPLSession(cc, cmd.OutOrStdout(), cmd.ErrOrStderr(), lang)
	if err != nil {
		return err
	}

	// History lives next to the state database.
	historyFile := ""
	if dir := filepath.Dir(cc.Cfg.StatePath); os.MkdirAll(dir, 0750) == nil {
		historyFile = filepath.Join(dir, "repl_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "snipcheck REPL (%s, timeout %dms)\n", lang, cc.Cfg.TimeoutMs)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if cont, ok := strings.CutSuffix(line, `\`); ok {
			buf.WriteString(cont)
			buf.WriteString("\n")
			rl.SetPrompt(replContinuePrompt)
			continue
		}
		buf.WriteString(line)
		input := buf.String()
		buf.Reset()
		rl.SetPrompt(replPrompt)

		if session.handle(ctx, input) {
			break
		}
	}

	return nil
}

// replSession evaluates REPL entries.
type replSession struct {
	exec   *sandbox.Executor
	out    io.Writer
	errOut io.Writer
	lang   core.Language
	count  int
}

func newREPLSession(cc *CommandContext, out, errOut io.Writer, lang core.Language) (*replSession, error) {
	opts := cc.Cfg.RunOptions()
	opts.ApplyDefaults()
	exec, err := sandbox.New(sandbox.Config{
		Timeout:      opts.Timeout(),
		MaxCallStack: opts.MaxCallStack,
		Logger:       cc.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &replSession{exec: exec, out: out, errOut: errOut, lang: lang}, nil
}

// handle evaluates one entry and reports whether the session should end.
func (s *replSession) handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}
	if strings.HasPrefix(input, ".") {
		return s.dotCommand(input)
	}

	s.count++
	rec := core.ExampleRecord{
		ID:       fmt.Sprintf("repl#%d", s.count),
		Document: "repl",
		Ordinal:  s.count,
		Line:     1,
		Source:   input,
		Language: s.lang,
	}
	res := s.exec.Stream(ctx, rec, writerSink{out: s.out, errOut: s.errOut})
	if res.Err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %s\n", res.Err.Error())
	}
	return false
}

func (s *replSession) dotCommand(line string) bool {
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		printREPLHelp(s.out)
	case ".js":
		s.lang = core.LanguageJavaScript
		_, _ = fmt.Fprintln(s.out, "Language: javascript")
	case ".ts":
		s.lang = core.LanguageTypeScript
		_, _ = fmt.Fprintln(s.out, "Language: typescript")
	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")
	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

// writerSink prints console output as it is emitted.
type writerSink struct {
	out    io.Writer
	errOut io.Writer
}

func (w writerSink) Emit(stream sandbox.Stream, line string) {
	if stream == sandbox.StreamStderr {
		_, _ = fmt.Fprintln(w.errOut, line)
		return
	}
	_, _ = fmt.Fprintln(w.out, line)
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .js             Evaluate entries as JavaScript
  .ts             Evaluate entries as TypeScript
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - End a line with \ to continue on the next line
  - Each entry runs in a fresh context
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".js"),
		readline.PcItem(".ts"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem("console.log("),
	)
}
