// Package parser loads SourceUnit facts written by a language front end.
//
// Facts are JSON (*.json) or YAML (*.yaml, *.yml) files holding either one
// unit or a list under "units". A file that cannot be read or decoded is
// still returned, as a unit carrying an ExtractionError, so the failure is
// reported against that file instead of aborting the batch.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/archlint/internal/ir"
)

var ErrNoFacts = errors.New("no facts in file")

type Diagnostics struct {
	Files    int
	Warnings []string
}

type factsFile struct {
	ir.SourceUnit `yaml:",inline"`
	Units         []ir.SourceUnit `json:"units" yaml:"units"`
}

// Parse walks path (a file or directory) and returns every unit found,
// sorted by path.
func Parse(path string) ([]ir.SourceUnit, Diagnostics, error) {
	var (
		units []ir.SourceUnit
		diags Diagnostics
	)
	st, err := os.Stat(path)
	if err != nil {
		return nil, diags, fmt.Errorf("facts source: %w", err)
	}
	root := path
	if !st.IsDir() {
		root = filepath.Dir(path)
	}

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			diags.Warnings = append(diags.Warnings, fmt.Sprintf("%s: %v", p, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isFactsFile(d.Name()) {
			return nil
		}
		diags.Files++
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			rel = p
		}
		units = append(units, loadFile(p, filepath.ToSlash(rel))...)
		return nil
	})
	if walkErr != nil {
		return nil, diags, walkErr
	}
	if diags.Files == 0 {
		diags.Warnings = append(diags.Warnings, "no facts files (*.json, *.yaml, *.yml) found")
	}
	sort.SliceStable(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	return units, diags, nil
}

func isFactsFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func loadFile(p, rel string) []ir.SourceUnit {
	b, err := os.ReadFile(p)
	if err != nil {
		return []ir.SourceUnit{{Path: rel, ExtractionError: err.Error()}}
	}
	units, err := ParseBytes(rel, b)
	if err != nil {
		return []ir.SourceUnit{{Path: rel, ExtractionError: err.Error()}}
	}
	return units
}

// ParseBytes decodes one facts document. name selects the format by
// extension and is used as the unit path when the document has none.
func ParseBytes(name string, b []byte) ([]ir.SourceUnit, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, ErrNoFacts
	}
	var ff factsFile
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		if err := json.Unmarshal(b, &ff); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &ff); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	}

	units := ff.Units
	if len(units) == 0 {
		if ff.Path == "" && ff.Package == "" && len(ff.Types) == 0 && len(ff.Imports) == 0 &&
			len(ff.Literals) == 0 && ff.ExtractionError == "" {
			return nil, ErrNoFacts
		}
		units = []ir.SourceUnit{ff.SourceUnit}
	}
	for i := range units {
		if units[i].Path == "" {
			if len(units) == 1 {
				units[i].Path = name
			} else {
				units[i].Path = fmt.Sprintf("%s#%d", name, i)
			}
		}
	}
	return units, nil
}
