package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

var titleCaser = cases.Title(language.English)

// VerdictLabel returns the display label of a classification, e.g. "Errored".
func VerdictLabel(c core.Classification) string {
	return titleCaser.String(string(c))
}

// UnifiedDiff renders expected versus actual output as a unified diff.
// Returns "" when both sides are equal.
func UnifiedDiff(expected, actual []string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(expected),
		B:        splitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

func splitLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	return difflib.SplitLines(strings.Join(lines, "\n"))
}

// WriteJSON writes v as indented JSON to the renderer's output.
func (r *Renderer) WriteJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Summary renders a finalized run summary.
func (r *Renderer) Summary(s core.Summary) error {
	switch r.EffectiveMode() {
	case ModeJSON:
		return r.WriteJSON(s)
	case ModeMarkdown:
		r.summaryMarkdown(s)
	default:
		r.summaryText(s)
	}
	return nil
}

func (r *Renderer) summaryText(s core.Summary) {
	styles := r.styles

	for _, e := range s.Failures {
		label := styles.Verdict(e.Classification).Render(strings.ToUpper(string(e.Classification)))
		r.Printf("%s %s %s\n", label, styles.RecordID.Render(e.ID), styles.Muted.Render(fmt.Sprintf("(line %d)", e.Line)))
		if e.Err != nil {
			r.Println("  " + styles.Error.Render(e.Err.Error()))
		}
		if diff := UnifiedDiff(e.Expected, e.Actual); diff != "" {
			for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
				r.Println("  " + diffLineStyle(styles, line))
			}
		}
		r.Println("")
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Verdict", "Count"})
	for _, c := range core.Classifications {
		t.AppendRow(table.Row{VerdictLabel(c), s.Counts.Get(c)})
	}
	t.AppendFooter(table.Row{"Total", s.Total()})
	t.Render()

	if s.Aborted {
		r.Println(styles.Warning.Render(fmt.Sprintf("Stopped after first failure; %d record(s) unreported", len(s.Unreported))))
	}

	line := fmt.Sprintf("%d passed, %d failed, %d errored, %d skipped in %dms",
		s.Counts.Pass, s.Counts.Fail, s.Counts.Errored, s.Counts.Skipped, s.DurationMs)
	if s.OK() {
		r.Println(styles.Success.Render(line))
	} else {
		r.Println(styles.Error.Render(line))
	}
}

func diffLineStyle(styles *Styles, line string) string {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
		return styles.Muted.Render(line)
	case strings.HasPrefix(line, "+"):
		return styles.Success.Render(line)
	case strings.HasPrefix(line, "-"):
		return styles.Error.Render(line)
	default:
		return line
	}
}

func (r *Renderer) summaryMarkdown(s core.Summary) {
	r.Println(FormatHeader(1, "Run Summary"))
	r.Println("")
	if s.RunID != "" {
		r.Println(FormatKeyValue("Run", s.RunID))
	}
	for _, c := range core.Classifications {
		r.Println(FormatKeyValue(VerdictLabel(c), fmt.Sprintf("%d", s.Counts.Get(c))))
	}
	r.Println(FormatKeyValue("Duration", fmt.Sprintf("%dms", s.DurationMs)))
	if s.Aborted {
		r.Println(FormatKeyValue("Aborted", fmt.Sprintf("yes (%d unreported)", len(s.Unreported))))
	}
	r.Println("")

	if len(s.Failures) == 0 {
		return
	}

	r.Println(FormatHeader(2, "Failures"))
	r.Println("")
	for _, e := range s.Failures {
		r.Println(FormatHeader(3, e.ID))
		r.Println("")
		r.Println(FormatKeyValue("Verdict", VerdictLabel(e.Classification)))
		r.Println(FormatKeyValue("Line", fmt.Sprintf("%d", e.Line)))
		if e.Err != nil {
			r.Println(FormatKeyValue("Error", e.Err.Error()))
		}
		if diff := UnifiedDiff(e.Expected, e.Actual); diff != "" {
			r.Println("")
			r.Println("```diff")
			r.Printf("%s", diff)
			r.Println("```")
		}
		r.Println("")
	}
}
