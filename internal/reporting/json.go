// Package reporting renders stored runs as JSON, HTML and run-to-run diffs.
package reporting

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/codewithboateng/archlint/internal/cost"
	"github.com/codewithboateng/archlint/internal/ir"
)

type jsonReport struct {
	Run    *ir.Run      `json:"run"`
	Effort cost.Summary `json:"effort"`
}

func WriteJSON(runID, outDir string, run *ir.Run) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, runID+".json")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonReport{Run: run, Effort: cost.Summarize(run.Issues)}); err != nil {
		return "", err
	}
	return path, nil
}
