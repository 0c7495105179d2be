package reporting

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/codewithboateng/archlint/internal/ir"
)

type DiffPayload struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary DiffSummary   `json:"summary"`
	New     []DiffIssue   `json:"new"`
	Removed []DiffIssue   `json:"removed"`
	Changed []DiffChanged `json:"changed"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type DiffIssue struct {
	ID       string `json:"id"`
	RuleID   string `json:"rule_id"`
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

type DiffChanged struct {
	Key     string    `json:"key"`
	Base    DiffIssue `json:"base"`
	Head    DiffIssue `json:"head"`
	Changed []string  `json:"fields_changed"`
}

// Diff compares two runs. Issues are matched by their stable id, so a line
// shift alone shows up as a change, not as a removal plus an addition.
func Diff(baseID, headID string, base, head *ir.Run) DiffPayload {
	bm := map[string]ir.Issue{}
	hm := map[string]ir.Issue{}
	for _, is := range base.Issues {
		bm[keyOf(is)] = is
	}
	for _, is := range head.Issues {
		hm[keyOf(is)] = is
	}

	var added, removed []DiffIssue
	var changed []DiffChanged

	// additions & changes
	for k, hi := range hm {
		bi, ok := bm[k]
		if !ok {
			added = append(added, asDiff(hi))
			continue
		}
		var fields []string
		if norm(string(bi.Severity)) != norm(string(hi.Severity)) {
			fields = append(fields, "severity")
		}
		if strings.TrimSpace(bi.Message) != strings.TrimSpace(hi.Message) {
			fields = append(fields, "message")
		}
		if bi.Line != hi.Line {
			fields = append(fields, "line")
		}
		if len(fields) > 0 {
			changed = append(changed, DiffChanged{Key: k, Base: asDiff(bi), Head: asDiff(hi), Changed: fields})
		}
	}
	// removals
	for k, bi := range bm {
		if _, ok := hm[k]; !ok {
			removed = append(removed, asDiff(bi))
		}
	}

	sortDiff(added)
	sortDiff(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	return DiffPayload{
		BaseID: baseID, HeadID: headID,
		Summary: DiffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
}

func WriteDiffJSON(baseID, headID, outDir string, base, head *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, "diff_"+baseID+"__"+headID+".json")
	b, err := json.MarshalIndent(Diff(baseID, headID, base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

func keyOf(is ir.Issue) string {
	if is.ID != "" {
		return is.ID
	}
	return norm(is.RuleID) + "|" + is.File + "|" + norm(is.Evidence)
}

func asDiff(is ir.Issue) DiffIssue {
	return DiffIssue{
		ID:       is.ID,
		RuleID:   is.RuleID,
		File:     is.File,
		Line:     is.Line,
		Severity: string(is.Severity),
		Message:  is.Message,
	}
}

func sortDiff(in []DiffIssue) {
	sort.Slice(in, func(i, j int) bool {
		if in[i].File != in[j].File {
			return in[i].File < in[j].File
		}
		if in[i].RuleID != in[j].RuleID {
			return in[i].RuleID < in[j].RuleID
		}
		return in[i].ID < in[j].ID
	})
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
