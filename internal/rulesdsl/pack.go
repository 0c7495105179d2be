// Package rulesdsl loads rule packs from YAML and compiles them into rule and
// pattern catalogs. The built-in pack is embedded; user packs are merged on
// top of it.
package rulesdsl

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/archlint/internal/patterns"
	"github.com/codewithboateng/archlint/internal/rules"
)

//go:embed default_rules.yaml
var defaultPack []byte

type Pack struct {
	Patterns PatternSpec `yaml:"patterns"`
	Rules    []RuleSpec  `yaml:"rules"`
}

// PatternSpec adds tokens to the pattern catalog. Layer keys accept the
// same names as source_layers.
type PatternSpec struct {
	Layers     map[string][]string                `yaml:"layers"`
	Categories map[string]patterns.CategoryTokens `yaml:"categories"`
}

type RuleSpec struct {
	ID           string      `yaml:"id"`
	Aliases      []string    `yaml:"aliases"`
	Summary      string      `yaml:"summary"`
	Severity     string      `yaml:"severity"` // MAJOR|CRITICAL
	Enabled      *bool       `yaml:"enabled"`
	ReportAll    *bool       `yaml:"report_all_occurrences"`
	SourceLayers []string    `yaml:"source_layers"`
	When         WhenSpec    `yaml:"when"`
	Message      string      `yaml:"message"`
	Checks       []CheckSpec `yaml:"checks"`
}

type WhenSpec struct {
	AnnotationsAny []string `yaml:"annotations_any"`
}

type CheckSpec struct {
	Kind        string   `yaml:"kind"`
	Categories  []string `yaml:"categories"`
	Sites       []string `yaml:"sites"`
	Annotations []string `yaml:"annotations"`
	Patterns    []string `yaml:"patterns"`
	Threshold   *int     `yaml:"threshold"`
	Kinds       []string `yaml:"kinds"`
}

// Default returns the embedded pack.
func Default() (Pack, error) {
	return parse(defaultPack, "default_rules.yaml")
}

// LoadFile reads a user pack from path.
func LoadFile(path string) (Pack, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, &ConfigError{Field: "file", Err: fmt.Errorf("read rules pack: %w", err)}
	}
	return parse(b, path)
}

func parse(b []byte, name string) (Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Pack{}, &ConfigError{Field: "yaml", Err: fmt.Errorf("parse %s: %w", name, err)}
	}
	return p, nil
}

// Merge overlays user on base. A user rule whose id or any alias matches a
// base rule's id or alias overrides the fields it sets; the rest are added
// in order.
func Merge(base, user Pack) Pack {
	out := Pack{
		Patterns: PatternSpec{
			Layers:     map[string][]string{},
			Categories: map[string]patterns.CategoryTokens{},
		},
		Rules: append([]RuleSpec(nil), base.Rules...),
	}
	for _, ps := range []PatternSpec{base.Patterns, user.Patterns} {
		for k, v := range ps.Layers {
			out.Patterns.Layers[k] = append(out.Patterns.Layers[k], v...)
		}
		for k, v := range ps.Categories {
			cur := out.Patterns.Categories[k]
			cur.Segments = append(cur.Segments, v.Segments...)
			cur.Prefixes = append(cur.Prefixes, v.Prefixes...)
			cur.Names = append(cur.Names, v.Names...)
			cur.Suffixes = append(cur.Suffixes, v.Suffixes...)
			out.Patterns.Categories[k] = cur
		}
	}

	for _, u := range user.Rules {
		if i := findRule(out.Rules, u); i >= 0 {
			out.Rules[i] = overlay(out.Rules[i], u)
			continue
		}
		out.Rules = append(out.Rules, u)
	}
	return out
}

func findRule(rs []RuleSpec, u RuleSpec) int {
	keys := map[string]bool{}
	for _, k := range append([]string{u.ID}, u.Aliases...) {
		if k = strings.ToUpper(strings.TrimSpace(k)); k != "" {
			keys[k] = true
		}
	}
	for i, r := range rs {
		for _, k := range append([]string{r.ID}, r.Aliases...) {
			if keys[strings.ToUpper(strings.TrimSpace(k))] {
				return i
			}
		}
	}
	return -1
}

func overlay(b, u RuleSpec) RuleSpec {
	for _, a := range append([]string{u.ID}, u.Aliases...) {
		if !strings.EqualFold(a, b.ID) && !containsFold(b.Aliases, a) {
			b.Aliases = append(b.Aliases, a)
		}
	}
	if u.Summary != "" {
		b.Summary = u.Summary
	}
	if u.Severity != "" {
		b.Severity = u.Severity
	}
	if u.Enabled != nil {
		b.Enabled = u.Enabled
	}
	if u.ReportAll != nil {
		b.ReportAll = u.ReportAll
	}
	if len(u.SourceLayers) > 0 {
		b.SourceLayers = u.SourceLayers
	}
	if len(u.When.AnnotationsAny) > 0 {
		b.When = u.When
	}
	if u.Message != "" {
		b.Message = u.Message
	}
	if len(u.Checks) > 0 {
		b.Checks = u.Checks
	}
	return b
}

func containsFold(ss []string, s string) bool {
	for _, x := range ss {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

// Load builds catalogs from the embedded pack merged with the pack at path
// (if non-empty).
func Load(path string, s rules.Settings) (*rules.Catalog, *patterns.Catalog, error) {
	base, err := Default()
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(path) != "" {
		user, err := LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		base = Merge(base, user)
	}
	rc, pc, err := Build(base, s)
	if err != nil {
		return nil, nil, err
	}
	if unk := rc.UnknownDisabled(); len(unk) > 0 {
		slog.Warn("disabled rules match no rule id or alias", "keys", unk)
	}
	return rc, pc, nil
}
