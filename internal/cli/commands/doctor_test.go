package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clitestutil "github.com/leapstack-labs/snipcheck/internal/cli/testutil"
	"github.com/leapstack-labs/snipcheck/internal/testutil"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name         string
		checks       []HealthCheck
		snippetCount int
		minScore     int
		maxScore     int
	}{
		{
			name:         "no checks returns 100",
			snippetCount: 10,
			minScore:     100,
			maxScore:     100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "CA01", Status: checkPass},
				{RuleID: "CA02", Status: checkPass},
			},
			snippetCount: 10,
			minScore:     100,
			maxScore:     100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "CA01", Status: checkPass},
				{RuleID: "CA04", Status: checkWarn, IssueCount: 2},
			},
			snippetCount: 10,
			minScore:     80,
			maxScore:     95,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "CA03", Status: checkError, IssueCount: 2},
			},
			snippetCount: 10,
			minScore:     70,
			maxScore:     85,
		},
		{
			name: "larger catalogs dilute each issue",
			checks: []HealthCheck{
				{RuleID: "CA04", Status: checkWarn, IssueCount: 5},
			},
			snippetCount: 200,
			minScore:     90,
			maxScore:     100,
		},
		{
			name: "many issues clamp to 0",
			checks: []HealthCheck{
				{RuleID: "CA03", Status: checkError, IssueCount: 20},
				{RuleID: "CA05", Status: checkError, IssueCount: 20},
			},
			snippetCount: 5,
			minScore:     0,
			maxScore:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := calculateHealthScore(tt.checks, tt.snippetCount)
			assert.GreaterOrEqual(t, score, tt.minScore)
			assert.LessOrEqual(t, score, tt.maxScore)
		})
	}
}

func TestHealthCheck_FailKeepsMostSevereStatus(t *testing.T) {
	c := newCheck("CA03", "Malformed snippets", "catalog")
	c.fail(checkError, "a")
	c.fail(checkWarn, "b")

	assert.Equal(t, checkError, c.Status)
	assert.Equal(t, 2, c.IssueCount)
	assert.Equal(t, []string{"a", "b"}, c.Details)
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "CF01", IssueCount: 1},
		{RuleID: "RT01", IssueCount: 1},
		{RuleID: "RT02", IssueCount: 1},
		{RuleID: "CA02", IssueCount: 0},
	}

	recs := generateRecommendations(checks)
	require.Len(t, recs, 2, "duplicate recommendations are merged")
	assert.Contains(t, recs[0], "snipcheck init")
}

func checkByID(t *testing.T, out *DoctorOutput, id string) HealthCheck {
	t.Helper()
	for _, c := range out.HealthChecks {
		if c.RuleID == id {
			return c
		}
	}
	t.Fatalf("check %s not reported", id)
	return HealthCheck{}
}

func TestDoctor_HealthyProject(t *testing.T) {
	root := testutil.SetupTestProject(t, false)
	t.Chdir(root)
	t.Setenv("SNIPCHECK_OUTPUT", "json")

	out, _, err := executeCommand(t, NewDoctorCommand())
	require.NoError(t, err)

	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, CatalogSummary{Documents: 2, Snippets: 3, Verifiable: 2}, report.Summary)
	assert.Equal(t, checkPass, checkByID(t, &report, "CF01").Status)
	assert.Equal(t, checkPass, checkByID(t, &report, "RT01").Status)
	assert.Equal(t, checkPass, checkByID(t, &report, "RT02").Status)
	assert.Equal(t, checkPass, checkByID(t, &report, "HI01").Status)

	skipped := checkByID(t, &report, "CA04")
	assert.Equal(t, checkWarn, skipped.Status)
	assert.Equal(t, 1, skipped.IssueCount)
	assert.Equal(t, 1, report.IssueCount)

	groups := make([]string, 0, len(report.HealthChecks))
	for _, c := range report.HealthChecks {
		if len(groups) == 0 || groups[len(groups)-1] != c.Group {
			groups = append(groups, c.Group)
		}
	}
	assert.Equal(t, []string{"configuration", "catalog", "runtime", "history"}, groups)
}

func TestDoctor_Problems(t *testing.T) {
	root := testutil.SetupTestProject(t, false)
	testutil.WriteFile(t, root, "docs/bad.md", "---\nskip: [\n---\n\n```js\nconsole.log(1) // 1\n```\n")
	testutil.WriteFile(t, root, "normalizers/broken.star", "normalize = 1\n")
	testutil.WriteFile(t, root, "snipcheck.yaml", "docs_dir: docs\nnormalizers_dir: normalizers\n")
	t.Chdir(root)
	t.Setenv("SNIPCHECK_OUTPUT", "json")

	out, _, err := executeCommand(t, NewDoctorCommand())
	require.NoError(t, err)

	var report DoctorOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, checkError, checkByID(t, &report, "CF02").Status)
	malformed := checkByID(t, &report, "CA03")
	assert.Equal(t, checkError, malformed.Status)
	require.NotEmpty(t, malformed.Details)
	assert.Contains(t, malformed.Details[0], "bad.md#0")
	assert.Equal(t, 1, report.Summary.Malformed)
	assert.Less(t, report.Score, 100)
	assert.NotEmpty(t, report.Recommendations)
}

func TestDoctor_MissingDocsDir(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	tr := clitestutil.NewTestRendererMarkdown()
	cc := &CommandContext{Renderer: tr.Renderer, Logger: testutil.NewTestLogger(t)}
	cmd := NewDoctorCommand()
	var err error
	cc.Cfg, err = getConfig(cmd)
	require.NoError(t, err)

	report := diagnose(t.Context(), cc)
	assert.Equal(t, checkWarn, checkByID(t, report, "CF01").Status)
	docs := checkByID(t, report, "CA01")
	assert.Equal(t, checkError, docs.Status)
	assert.Contains(t, docs.Details[0], "does not exist")

	require.NoError(t, renderDoctorMarkdown(tr.Renderer, report))
	assert.Contains(t, tr.Output(), "- **[ERROR]** CA01: Docs directory (1 issues)")
	assert.Contains(t, tr.Output(), "### Catalog")
	clitestutil.AssertValidMarkdown(t, tr.Output())
	clitestutil.AssertNoANSI(t, tr.Output())
}
