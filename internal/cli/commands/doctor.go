package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/snipcheck/internal/cli/output"
	"github.com/leapstack-labs/snipcheck/internal/corpus"
	"github.com/leapstack-labs/snipcheck/internal/normalize"
	"github.com/leapstack-labs/snipcheck/internal/sandbox"
	"github.com/leapstack-labs/snipcheck/pkg/core"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup without running the catalog",
		Long: `Inspect configuration, catalog, sandbox and history and report problems.

The doctor command parses every document but does not execute its snippets.
It reports:
- Catalog summary (documents, snippets, verifiable, malformed)
- Checks grouped by category (Configuration, Catalog, Runtime, History)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  snipcheck doctor

  # Output as JSON
  snipcheck doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         CatalogSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// CatalogSummary contains catalog-level statistics.
type CatalogSummary struct {
	Documents   int `json:"documents"`
	Snippets    int `json:"snippets"`
	Verifiable  int `json:"verifiable"`
	Malformed   int `json:"malformed"`
	Normalizers int `json:"normalizers"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func newCheck(id, name, group string) HealthCheck {
	return HealthCheck{RuleID: id, Name: name, Group: group, Status: checkPass}
}

// fail records an issue, keeping the most severe status.
func (c *HealthCheck) fail(status, detail string) {
	if c.Status != checkError {
		c.Status = status
	}
	c.IssueCount++
	c.Details = append(c.Details, detail)
}

func runDoctor(cmd *cobra.Command) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	out := diagnose(cmd.Context(), cc)

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.WriteJSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func diagnose(ctx context.Context, cc *CommandContext) *DoctorOutput {
	var summary CatalogSummary
	var checks []HealthCheck

	// Configuration
	cfgFile := newCheck("CF01", "Config file", "configuration")
	if cc.Cfg.File == "" {
		cfgFile.fail(checkWarn, "no snipcheck.yaml found; using built-in defaults")
	}
	checks = append(checks, cfgFile)

	normalizers := newCheck("CF02", "Output normalizers", "configuration")
	if cc.Cfg.NormalizersDir != "" {
		chain, err := normalize.Load(cc.Cfg.NormalizersDir, cc.Logger)
		switch {
		case err != nil:
			normalizers.fail(checkError, err.Error())
		case chain != nil:
			summary.Normalizers = chain.Len()
		}
	}
	checks = append(checks, normalizers)

	// Catalog
	checks = append(checks, diagnoseCatalog(cc, &summary)...)

	// Runtime
	checks = append(checks, diagnoseRuntime(ctx, cc)...)

	// History
	checks = append(checks, diagnoseHistory(cc))

	slices.SortStableFunc(checks, func(a, b HealthCheck) int {
		return strings.Compare(groupOrder(a.Group), groupOrder(b.Group))
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Snippets),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func groupOrder(group string) string {
	switch group {
	case "configuration":
		return "1"
	case "catalog":
		return "2"
	case "runtime":
		return "3"
	default:
		return "4"
	}
}

func diagnoseCatalog(cc *CommandContext, summary *CatalogSummary) []HealthCheck {
	docsDir := newCheck("CA01", "Docs directory", "catalog")
	if err := cc.Cfg.ValidateDirectories(); err != nil {
		docsDir.fail(checkError, err.Error())
		return []HealthCheck{docsDir}
	}

	documents := newCheck("CA02", "Documents", "catalog")
	malformed := newCheck("CA03", "Malformed snippets", "catalog")
	unverified := newCheck("CA04", "Snippets without expected output", "catalog")
	unique := newCheck("CA05", "Unique snippet ids", "catalog")
	checks := []HealthCheck{docsDir, documents, malformed, unverified, unique}

	docs, err := cc.LoadDocuments(nil)
	if err != nil {
		checks[1].fail(checkError, err.Error())
		return checks
	}
	summary.Documents = len(docs)
	if len(docs) == 0 {
		checks[1].fail(checkWarn, fmt.Sprintf("no documents match %s under %s",
			strings.Join(cc.Cfg.Include, ", "), cc.Cfg.DocsDir))
	}

	parser := corpus.NewParser(corpus.ConfigFromOptions(cc.Cfg.RunOptions()))
	seen := make(map[string]bool)
	for _, doc := range docs {
		for rec := range parser.Records(doc) {
			if seen[rec.ID] {
				checks[4].fail(checkError, "duplicate id "+rec.ID)
			}
			seen[rec.ID] = true
			summary.Snippets++

			switch {
			case rec.IsSynthetic():
				summary.Malformed++
				checks[2].fail(checkError, fmt.Sprintf("%s: %s", rec.ID, rec.ParseErr.Message))
			case rec.Verifiable():
				summary.Verifiable++
			default:
				checks[3].fail(checkWarn, fmt.Sprintf("%s (line %d) will be skipped", rec.ID, rec.Line))
			}
		}
	}
	return checks
}

func diagnoseRuntime(ctx context.Context, cc *CommandContext) []HealthCheck {
	probes := []struct {
		id, name string
		lang     core.Language
		source   string
	}{
		{"RT01", "JavaScript sandbox", core.LanguageJavaScript, "console.log(1 + 1)"},
		{"RT02", "TypeScript lowering", core.LanguageTypeScript, "const n: number = 2\nconsole.log(n)"},
	}

	opts := cc.Cfg.RunOptions()
	opts.ApplyDefaults()
	exec, err := sandbox.New(sandbox.Config{
		Timeout:      opts.Timeout(),
		MaxCallStack: opts.MaxCallStack,
		Logger:       cc.Logger,
	})

	checks := make([]HealthCheck, 0, len(probes))
	for _, p := range probes {
		check := newCheck(p.id, p.name, "runtime")
		if err != nil {
			check.fail(checkError, err.Error())
			checks = append(checks, check)
			continue
		}
		res := exec.Execute(ctx, core.ExampleRecord{
			ID:       "doctor#" + p.id,
			Document: "doctor",
			Line:     1,
			Source:   p.source,
			Language: p.lang,
		})
		switch {
		case res.Err != nil:
			check.fail(checkError, res.Err.Error())
		case !slices.Equal(res.Actual, []string{"2"}):
			check.fail(checkError, fmt.Sprintf("unexpected output %q", res.Actual))
		}
		checks = append(checks, check)
	}
	return checks
}

func diagnoseHistory(cc *CommandContext) HealthCheck {
	check := newCheck("HI01", "Run history", "history")
	if !cc.Cfg.History || !cc.HasHistory() {
		return check
	}

	store, err := cc.OpenStore()
	if err != nil {
		check.fail(checkError, err.Error())
		return check
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetLatestRun()
	switch {
	case err != nil:
		check.fail(checkError, err.Error())
	case run != nil && run.Status != core.RunStatusPassed:
		check.fail(checkWarn, fmt.Sprintf("last run %s %s (%d failed, %d errored)",
			run.ID, run.Status, run.Counts.Fail, run.Counts.Errored))
	}
	return check
}

// calculateHealthScore computes a health score from 0-100.
// Errors count double; larger catalogs dilute each issue.
func calculateHealthScore(checks []HealthCheck, snippetCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if snippetCount > 10 {
		basePenalty = 3.0
	}
	if snippetCount > 50 {
		basePenalty = 2.0
	}
	if snippetCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case checkError:
			score -= float64(check.IssueCount) * basePenalty * 2
		case checkWarn:
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Run 'snipcheck init' to create a snipcheck.yaml"
	case "CF02":
		return "Fix the normalizer files so each defines normalize(line)"
	case "CA01":
		return "Point docs_dir at your documentation or pass --docs-dir"
	case "CA02":
		return "Adjust include patterns so documents are discovered"
	case "CA03":
		return "Fix malformed fences and frontmatter; they are reported as errored"
	case "CA04":
		return "Add expected output comments (// value) or mark narrative blocks with 'skip'"
	case "CA05":
		return "Rename documents so snippet ids are unique"
	case "RT01", "RT02":
		return "Check timeout_ms and max_call_stack; the sandbox could not run a trivial snippet"
	case "HI01":
		return "Run 'snipcheck history latest' to inspect the last failing run"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("snipcheck Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Catalog Summary"))
	r.Printf("   Documents: %d | Snippets: %d | Normalizers: %d\n", out.Summary.Documents, out.Summary.Snippets, out.Summary.Normalizers)
	r.Printf("   Verifiable: %d | Malformed: %d\n", out.Summary.Verifiable, out.Summary.Malformed)
	r.Println("")

	r.Println(styles.Header2.Render("Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# snipcheck Health Report")
	r.Println("")

	r.Println("## Catalog Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Documents", fmt.Sprint(out.Summary.Documents)))
	r.Println(output.FormatKeyValue("Snippets", fmt.Sprint(out.Summary.Snippets)))
	r.Println(output.FormatKeyValue("Verifiable", fmt.Sprint(out.Summary.Verifiable)))
	r.Println(output.FormatKeyValue("Malformed", fmt.Sprint(out.Summary.Malformed)))
	r.Println(output.FormatKeyValue("Normalizers", fmt.Sprint(out.Summary.Normalizers)))
	r.Println("")

	r.Println("## Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case checkWarn:
			status = "WARN"
		case checkError:
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
