package reporting

import (
	"os"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
)

func runWith(id string, issues ...ir.Issue) *ir.Run {
	return &ir.Run{
		ID:     id,
		Units:  []ir.UnitSummary{{Path: "a.java", Layer: ir.LayerExposition}},
		Issues: issues,
		Errors: []ir.AnalysisError{{File: "b.java", Kind: ir.ErrorExtraction, Message: "<broken>"}},
	}
}

func TestDiff(t *testing.T) {
	base := runWith("base",
		ir.Issue{ID: "R-1", RuleID: "R", File: "a.java", Line: 3, Severity: ir.SeverityMajor, Message: "m"},
		ir.Issue{ID: "R-2", RuleID: "R", File: "a.java", Line: 5, Severity: ir.SeverityMajor, Message: "m"},
	)
	head := runWith("head",
		ir.Issue{ID: "R-1", RuleID: "R", File: "a.java", Line: 4, Severity: ir.SeverityMajor, Message: "m"},
		ir.Issue{ID: "S-1", RuleID: "S", File: "b.java", Severity: ir.SeverityCritical, Message: "n"},
	)
	d := Diff("base", "head", base, head)
	assert.Equal(t, DiffSummary{NewCount: 1, RemovedCount: 1, ChangedCount: 1}, d.Summary)
	assert.Equal(t, "S-1", d.New[0].ID)
	assert.Equal(t, "R-2", d.Removed[0].ID)
	assert.Equal(t, []string{"line"}, d.Changed[0].Changed)
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	run := runWith("r1", ir.Issue{ID: "R-1", RuleID: "R", File: "a.java", Line: 3, Severity: ir.SeverityCritical, Message: "uses <Repo>", Effort: 30})

	p, err := WriteJSON("r1", dir, run)
	require.NoError(t, err)
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var got struct {
		Run struct {
			ID string `json:"id"`
		} `json:"run"`
		Effort struct {
			TotalMinutes int `json:"total_minutes"`
		} `json:"effort"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "r1", got.Run.ID)
	assert.Equal(t, 30, got.Effort.TotalMinutes)

	p, err = WriteHTML("r1", dir, run)
	require.NoError(t, err)
	b, err = os.ReadFile(p)
	require.NoError(t, err)
	h := string(b)
	assert.Contains(t, h, "uses &lt;Repo&gt;")
	assert.Contains(t, h, "&lt;broken&gt;")
	assert.True(t, strings.HasSuffix(h, "</body></html>"))

	p, err = WriteDiffJSON("r1", "r1", dir, run, run)
	require.NoError(t, err)
	assert.FileExists(t, p)
}
