package rules

import (
	"path"
	"strings"
	"time"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/storage"
)

// ApplyWaivers filters out issues that match any waiver active at now.
// Returns (kept, waivedCount).
func (c *Catalog) ApplyWaivers(in []ir.Issue, waivers []storage.Waiver, now time.Time) ([]ir.Issue, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	var active []storage.Waiver
	for _, w := range waivers {
		if w.RevokedAt != nil || (!w.ExpiresAt.IsZero() && !w.ExpiresAt.After(now)) {
			continue
		}
		if d, ok := c.Get(w.RuleID); ok {
			w.RuleID = d.ID
		}
		active = append(active, w)
	}

	var out []ir.Issue
	waived := 0
nextIssue:
	for _, is := range in {
		for _, w := range active {
			if !strings.EqualFold(strings.TrimSpace(w.RuleID), is.RuleID) {
				continue
			}
			if w.FileGlob != "" && !globMatch(w.FileGlob, is.File) {
				continue
			}
			if w.PatternSub != "" {
				ps := strings.ToUpper(w.PatternSub)
				if !strings.Contains(strings.ToUpper(is.Evidence), ps) &&
					!strings.Contains(strings.ToUpper(is.Message), ps) {
					continue
				}
			}
			waived++
			continue nextIssue
		}
		out = append(out, is)
	}
	return out, waived
}

// globMatch matches a slash-separated glob against the whole path or, for
// patterns without a slash, against the base name.
func globMatch(glob, file string) bool {
	file = strings.ReplaceAll(file, "\\", "/")
	glob = strings.ReplaceAll(strings.TrimSpace(glob), "\\", "/")
	if ok, _ := path.Match(glob, file); ok {
		return true
	}
	if !strings.Contains(glob, "/") {
		ok, _ := path.Match(glob, path.Base(file))
		return ok
	}
	if strings.HasSuffix(glob, "/**") {
		return strings.HasPrefix(file, strings.TrimSuffix(glob, "**"))
	}
	return false
}
