package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// RecordInfo is the JSON shape of a listed record.
type RecordInfo struct {
	ID       string        `json:"id"`
	Document string        `json:"document"`
	Line     int           `json:"line"`
	Language core.Language `json:"language,omitempty"`
	Expected int           `json:"expected"`
	Error    string        `json:"error,omitempty"`
}

// ListOutput is the JSON document written by the list command.
type ListOutput struct {
	Records    []RecordInfo `json:"records"`
	Total      int          `json:"total"`
	Verifiable int          `json:"verifiable"`
	Malformed  int          `json:"malformed"`
}

// NewListOutput summarizes parsed records.
func NewListOutput(records []core.ExampleRecord) ListOutput {
	out := ListOutput{Records: make([]RecordInfo, 0, len(records)), Total: len(records)}
	for _, rec := range records {
		info := RecordInfo{
			ID:       rec.ID,
			Document: rec.Document,
			Line:     rec.Line,
			Language: rec.Language,
			Expected: len(rec.Expected),
		}
		switch {
		case rec.IsSynthetic():
			info.Error = rec.ParseErr.Message
			out.Malformed++
		case rec.Verifiable():
			out.Verifiable++
		}
		out.Records = append(out.Records, info)
	}
	return out
}

// Records renders the parsed records of a catalog.
func (r *Renderer) Records(records []core.ExampleRecord) error {
	list := NewListOutput(records)

	switch r.EffectiveMode() {
	case ModeJSON:
		return r.WriteJSON(list)
	case ModeMarkdown:
		r.Println(FormatHeader(1, fmt.Sprintf("Records (%d total)", list.Total)))
		r.Println("")
		r.Println("| ID | Language | Line | Expected | Error |")
		r.Println("|----|----------|------|----------|-------|")
		for _, info := range list.Records {
			r.Printf("| %s | %s | %d | %d | %s |\n", info.ID, info.Language, info.Line, info.Expected, info.Error)
		}
		r.Println("")
		return nil
	}

	r.Header(1, fmt.Sprintf("Records (%d total, %d verifiable, %d malformed)", list.Total, list.Verifiable, list.Malformed))
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Language", "Line", "Expected", "Error"})
	for _, info := range list.Records {
		t.AppendRow(table.Row{info.ID, info.Language, info.Line, info.Expected, r.styles.Error.Render(info.Error)})
	}
	t.Render()
	return nil
}

// Runs renders a list of recorded runs, newest first.
func (r *Renderer) Runs(runs []*core.Run) error {
	if runs == nil {
		runs = []*core.Run{}
	}

	switch r.EffectiveMode() {
	case ModeJSON:
		return r.WriteJSON(runs)
	case ModeMarkdown:
		r.Println(FormatHeader(1, fmt.Sprintf("Runs (%d)", len(runs))))
		r.Println("")
		r.Println("| Run | Status | Started | Pass | Fail | Errored | Skipped | Duration |")
		r.Println("|-----|--------|---------|------|------|---------|---------|----------|")
		for _, run := range runs {
			r.Printf("| %s | %s | %s | %d | %d | %d | %d | %dms |\n",
				run.ID, run.Status, run.StartedAt.Format(time.RFC3339),
				run.Counts.Pass, run.Counts.Fail, run.Counts.Errored, run.Counts.Skipped, run.DurationMs)
		}
		r.Println("")
		return nil
	}

	if len(runs) == 0 {
		r.Println(r.styles.Muted.Render("No runs recorded yet"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Status", "Started", "Pass", "Fail", "Errored", "Skipped", "Duration"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID, run.Status, run.StartedAt.Local().Format(time.DateTime),
			run.Counts.Pass, run.Counts.Fail, run.Counts.Errored, run.Counts.Skipped,
			fmt.Sprintf("%dms", run.DurationMs),
		})
	}
	t.Render()
	return nil
}

// RunDetail is the JSON document for one recorded run.
type RunDetail struct {
	Run     *core.Run    `json:"run"`
	Entries []core.Entry `json:"entries"`
}

// RunDetail renders one run and its entries.
func (r *Renderer) RunDetail(run *core.Run, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}

	switch r.EffectiveMode() {
	case ModeJSON:
		return r.WriteJSON(RunDetail{Run: run, Entries: entries})
	case ModeMarkdown:
		r.Println(FormatHeader(1, "Run "+run.ID))
		r.Println("")
		r.Println(FormatKeyValue("Status", string(run.Status)))
		r.Println(FormatKeyValue("Started", run.StartedAt.Format(time.RFC3339)))
		r.Println(FormatKeyValue("Duration", fmt.Sprintf("%dms", run.DurationMs)))
		if run.Error != "" {
			r.Println(FormatKeyValue("Error", run.Error))
		}
		r.Println("")
		r.Println("| ID | Verdict | Line | Duration |")
		r.Println("|----|---------|------|----------|")
		for _, e := range entries {
			r.Printf("| %s | %s | %d | %dms |\n", e.ID, VerdictLabel(e.Classification), e.Line, e.DurationMs)
		}
		r.Println("")
		return nil
	}

	r.Header(1, fmt.Sprintf("Run %s (%s)", run.ID, run.Status))
	if run.Error != "" {
		r.Println(r.styles.Error.Render(run.Error))
	}
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Verdict", "Line", "Duration"})
	for _, e := range entries {
		verdict := r.styles.Verdict(e.Classification).Render(VerdictLabel(e.Classification))
		t.AppendRow(table.Row{e.ID, verdict, e.Line, fmt.Sprintf("%dms", e.DurationMs)})
	}
	t.Render()
	return nil
}
