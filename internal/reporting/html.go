package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/archlint/internal/cost"
	"github.com/codewithboateng/archlint/internal/ir"
)

func WriteHTML(runID, outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	effort := cost.Summarize(run.Issues)
	layers := map[ir.Layer]int{}
	for _, u := range run.Units {
		layers[u.Layer]++
	}

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(runID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .CRITICAL{color:#b00020;font-weight:600}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>archlint report – <span class='mono'>%s</span></h1>", html.EscapeString(runID))
	fmt.Fprintf(f, "<p>Units: %d &nbsp; Issues: %d &nbsp; Errors: %d", len(run.Units), len(run.Issues), len(run.Errors))
	if run.Waived > 0 {
		fmt.Fprintf(f, " &nbsp; Waived: %d", run.Waived)
	}
	fmt.Fprint(f, "</p>")
	if run.Cancelled {
		fmt.Fprint(f, "<p class='CRITICAL'>Run was cancelled; results are partial.</p>")
	}
	fmt.Fprintf(f, "<p><b>Estimated remediation</b>: %d min <span class='dim'>(heuristic)</span></p>", effort.TotalMinutes)

	// Layer breakdown
	fmt.Fprint(f, "<p class='dim'>Layers:")
	for _, l := range append(append([]ir.Layer(nil), ir.LayerPriority...), ir.LayerUnclassified) {
		fmt.Fprintf(f, " &nbsp; %s=%d", html.EscapeString(string(l)), layers[l])
	}
	fmt.Fprint(f, "</p>")

	// Severity/disabled banner
	fmt.Fprintf(f, "<p class='dim'>Severity threshold: %s", html.EscapeString(run.Context.SeverityThreshold))
	if n := len(run.Context.DisabledRules); n > 0 {
		fmt.Fprintf(f, " &nbsp; Disabled rules: %d", n)
	}
	if run.Context.CatalogFingerprint != "" {
		fmt.Fprintf(f, " &nbsp; Catalog: <span class='mono'>%s</span>", html.EscapeString(run.Context.CatalogFingerprint))
	}
	fmt.Fprint(f, "</p>")

	// By rule
	if len(effort.ByRule) > 0 {
		fmt.Fprint(f, "<h2>By Rule</h2><table><tr><th>Rule</th><th>Issues</th><th>Effort (min)</th></tr>")
		for _, re := range effort.ByRule {
			fmt.Fprintf(f, "<tr><td>%s</td><td>%d</td><td>%d</td></tr>", html.EscapeString(re.RuleID), re.Issues, re.Minutes)
		}
		fmt.Fprint(f, "</table>")
	}

	// Top files
	byFile := map[string]int{}
	for _, is := range run.Issues {
		byFile[is.File]++
	}
	if len(byFile) > 0 {
		type fc struct {
			file string
			n    int
		}
		var files []fc
		for k, v := range byFile {
			files = append(files, fc{k, v})
		}
		sort.Slice(files, func(i, j int) bool {
			if files[i].n == files[j].n {
				return files[i].file < files[j].file
			}
			return files[i].n > files[j].n
		})
		limit := len(files)
		if limit > 20 {
			limit = 20
		}
		fmt.Fprint(f, "<h2>Top Files</h2><table><tr><th>File</th><th>Issues</th></tr>")
		for _, x := range files[:limit] {
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%d</td></tr>", html.EscapeString(x.file), x.n)
		}
		fmt.Fprint(f, "</table>")
	}

	// All issues
	if len(run.Issues) > 0 {
		fmt.Fprint(f, "<h2>All Issues</h2><table><tr><th>Severity</th><th>Rule</th><th>File</th><th>Line</th><th>Message</th></tr>")
		for _, is := range run.Issues {
			line := "-"
			if is.Line > 0 {
				line = fmt.Sprint(is.Line)
			}
			fmt.Fprintf(f, "<tr><td class='%s'>%s</td><td>%s</td><td class='mono'>%s</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(string(is.Severity)),
				html.EscapeString(string(is.Severity)),
				html.EscapeString(is.RuleID),
				html.EscapeString(is.File),
				line,
				html.EscapeString(is.Message),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprint(f, "<h2>All Issues</h2><p class='dim'>No issues at or above the configured threshold.</p>")
	}

	// Errors
	if len(run.Errors) > 0 {
		fmt.Fprint(f, "<h2>Analysis Errors</h2><table><tr><th>Kind</th><th>File</th><th>Rule</th><th>Message</th></tr>")
		for _, e := range run.Errors {
			fmt.Fprintf(f, "<tr><td>%s</td><td class='mono'>%s</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(string(e.Kind)),
				html.EscapeString(e.File),
				html.EscapeString(e.RuleID),
				html.EscapeString(e.Message),
			)
		}
		fmt.Fprint(f, "</table>")
	}

	fmt.Fprint(f, "</body></html>")
	return path, nil
}
