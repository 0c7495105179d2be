package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/codewithboateng/archlint/internal/cost"
	"github.com/codewithboateng/archlint/internal/ir"
)

// Reporter turns hits for one file into Issues. Duplicate hits collapse, and
// rules with ReportAll unset yield at most one Issue per file.
type Reporter struct {
	file   string
	layer  ir.Layer
	seen   map[string]struct{}
	once   map[string]bool
	occurs map[string]int
	issues []ir.Issue
}

func NewReporter(file string, layer ir.Layer) *Reporter {
	return &Reporter{file: file, layer: layer, seen: map[string]struct{}{}, once: map[string]bool{}, occurs: map[string]int{}}
}

// Record adds an Issue for hit h of rule d unless it is a duplicate.
func (r *Reporter) Record(d *Definition, h Hit) {
	if !d.ReportAll {
		if r.once[d.ID] {
			return
		}
	}
	key := strings.Join([]string{d.ID, string(h.Site), strconv.Itoa(h.Line), h.Evidence, h.Owner}, "\x00")
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.once[d.ID] = true

	line := h.Line
	if line < 0 {
		line = 0
	}
	// Repeats of the same element on other lines are numbered in arrival
	// order, so ids stay unique within a file without depending on lines.
	base := issueKey(d.ID, r.file, h)
	n := r.occurs[base]
	r.occurs[base] = n + 1
	r.issues = append(r.issues, ir.Issue{
		ID:       issueID(d.ID, base, n),
		RuleID:   d.ID,
		File:     r.file,
		Line:     line,
		Severity: d.Severity,
		Layer:    r.layer,
		Message:  render(d.Message, r.file, r.layer, h),
		Evidence: h.Evidence,
		Effort:   cost.EffortMinutes(d.Severity, string(h.Site)),
	})
}

// Issues returns the recorded issues sorted.
func (r *Reporter) Issues() []ir.Issue {
	out := append([]ir.Issue(nil), r.issues...)
	SortIssues(out)
	return out
}

// SortIssues orders issues by file, line, rule id and evidence.
func SortIssues(in []ir.Issue) {
	sort.SliceStable(in, func(i, j int) bool {
		a, b := in[i], in[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Evidence != b.Evidence {
			return a.Evidence < b.Evidence
		}
		return a.ID < b.ID
	})
}

func issueKey(rule, file string, h Hit) string {
	return rule + "|" + file + "|" + string(h.Site) + "|" + h.Owner + "|" + h.Evidence
}

// issueID is stable across runs so issues can be diffed and waived. The
// first occurrence of a key keeps the bare hash.
func issueID(rule, key string, occurrence int) string {
	if occurrence > 0 {
		key += "|" + strconv.Itoa(occurrence)
	}
	return fmt.Sprintf("%s-%016x", rule, xxhash.Sum64String(key))
}

func render(tmpl, file string, layer ir.Layer, h Hit) string {
	return strings.NewReplacer(
		"{evidence}", h.Evidence,
		"{owner}", h.Owner,
		"{site}", string(h.Site),
		"{detail}", h.Detail,
		"{layer}", string(layer),
		"{file}", file,
	).Replace(tmpl)
}
