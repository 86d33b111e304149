package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	RecordID lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	verdicts map[core.Classification]lipgloss.Style
}

// NewStyles builds styles bound to w with the given color profile.
// termenv.Ascii disables all color.
func NewStyles(w io.Writer, profile termenv.Profile) *Styles {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(profile)

	green := lipgloss.Color("2")
	red := lipgloss.Color("1")
	yellow := lipgloss.Color("3")
	gray := lipgloss.Color("8")

	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Underline(true),
		Header2:  lr.NewStyle().Bold(true),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Foreground(gray),
		Success:  lr.NewStyle().Foreground(green),
		Warning:  lr.NewStyle().Foreground(yellow),
		Error:    lr.NewStyle().Foreground(red),
		RecordID: lr.NewStyle().Bold(true),

		StatusSuccess: lr.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  lr.NewStyle().Foreground(red).SetString("✗"),

		verdicts: map[core.Classification]lipgloss.Style{
			core.ClassificationPass:    lr.NewStyle().Foreground(green),
			core.ClassificationFail:    lr.NewStyle().Foreground(red).Bold(true),
			core.ClassificationErrored: lr.NewStyle().Foreground(red),
			core.ClassificationSkipped: lr.NewStyle().Foreground(gray),
		},
	}
}

// Verdict returns the style for a classification.
func (s *Styles) Verdict(c core.Classification) lipgloss.Style {
	if st, ok := s.verdicts[c]; ok {
		return st
	}
	return s.Muted
}
