package rulesdsl

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
	"github.com/codewithboateng/archlint/internal/patterns"
	"github.com/codewithboateng/archlint/internal/rules"
)

var layerNames = map[string]ir.Layer{
	"exposition":     ir.LayerExposition,
	"exposicion":     ir.LayerExposition,
	"presentation":   ir.LayerExposition,
	"presentacion":   ir.LayerExposition,
	"controller":     ir.LayerExposition,
	"service":        ir.LayerService,
	"servicio":       ir.LayerService,
	"application":    ir.LayerService,
	"domain":         ir.LayerDomain,
	"dominio":        ir.LayerDomain,
	"model":          ir.LayerDomain,
	"repository":     ir.LayerRepository,
	"repositorio":    ir.LayerRepository,
	"persistence":    ir.LayerRepository,
	"infrastructure": ir.LayerRepository,
}

// ParseLayer maps a layer name or synonym, case-insensitively.
func ParseLayer(s string) (ir.Layer, bool) {
	l, ok := layerNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

var statementKinds = map[ir.StatementKind]bool{
	ir.StmtAssignment: true, ir.StmtCall: true, ir.StmtConditional: true, ir.StmtLoop: true,
	ir.StmtTry: true, ir.StmtReturn: true, ir.StmtDeclaration: true, ir.StmtThrow: true, ir.StmtOther: true,
}

// Build compiles p into a rule catalog and the pattern catalog its checks
// resolve against. Every problem is a *ConfigError.
func Build(p Pack, s rules.Settings) (*rules.Catalog, *patterns.Catalog, error) {
	ext := patterns.Extension{
		Layers:     map[ir.Layer][]string{},
		Categories: map[ir.Category]patterns.CategoryTokens{},
	}
	for name, toks := range p.Patterns.Layers {
		l, ok := ParseLayer(name)
		if !ok {
			return nil, nil, cfgErr("", "patterns.layers", "unknown layer %q", name)
		}
		ext.Layers[l] = append(ext.Layers[l], toks...)
	}
	for name, ct := range p.Patterns.Categories {
		if strings.TrimSpace(name) == "" {
			return nil, nil, cfgErr("", "patterns.categories", "empty category name")
		}
		ext.Categories[ir.Category(strings.ToLower(strings.TrimSpace(name)))] = ct
	}
	pc := patterns.Default().Extend(ext)

	defs := make([]rules.Definition, 0, len(p.Rules))
	for _, r := range p.Rules {
		d, err := compileRule(r, pc)
		if err != nil {
			return nil, nil, err
		}
		defs = append(defs, d)
	}
	rc, err := rules.NewCatalog(defs, s)
	if err != nil {
		return nil, nil, asConfig(err)
	}
	return rc, pc, nil
}

func compileRule(r RuleSpec, pc *patterns.Catalog) (rules.Definition, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return rules.Definition{}, cfgErr("", "id", "missing rule id")
	}
	d := rules.Definition{
		ID:            id,
		Aliases:       r.Aliases,
		Summary:       r.Summary,
		Severity:      ir.Severity(strings.ToUpper(strings.TrimSpace(r.Severity))),
		AnnotatedWith: r.When.AnnotationsAny,
		Message:       r.Message,
		ReportAll:     true,
		Enabled:       true,
	}
	if r.Enabled != nil {
		d.Enabled = *r.Enabled
	}
	if r.ReportAll != nil {
		d.ReportAll = *r.ReportAll
	}
	if d.Severity == "" {
		return d, cfgErr(id, "severity", "missing")
	}
	if !rules.ValidSeverity(string(d.Severity)) {
		return d, cfgErr(id, "severity", "unknown severity %q", r.Severity)
	}
	if strings.TrimSpace(d.Message) == "" {
		return d, cfgErr(id, "message", "missing")
	}
	if len(r.SourceLayers) == 0 {
		return d, cfgErr(id, "source_layers", "missing")
	}
	seen := map[ir.Layer]bool{}
	for _, name := range r.SourceLayers {
		l, ok := ParseLayer(name)
		if !ok {
			return d, cfgErr(id, "source_layers", "unknown layer %q", name)
		}
		if !seen[l] {
			seen[l] = true
			d.Layers = append(d.Layers, l)
		}
	}
	sort.Slice(d.Layers, func(i, j int) bool { return d.Layers[i] < d.Layers[j] })

	if len(r.Checks) == 0 {
		return d, cfgErr(id, "checks", "at least one check is required")
	}
	for i, c := range r.Checks {
		st, err := compileCheck(id, i, c, pc)
		if err != nil {
			return d, err
		}
		d.Strategies = append(d.Strategies, st)
	}
	return d, nil
}

func compileCheck(id string, i int, c CheckSpec, pc *patterns.Catalog) (rules.Strategy, error) {
	field := "checks[" + strconv.Itoa(i) + "]"
	switch rules.Kind(strings.ToLower(strings.TrimSpace(c.Kind))) {
	case rules.KindImport:
		cats, err := categories(id, field, c.Categories, pc)
		if err != nil {
			return nil, err
		}
		return rules.ImportCheck{Categories: cats}, nil

	case rules.KindTypeUsage:
		cats, err := categories(id, field, c.Categories, pc)
		if err != nil {
			return nil, err
		}
		sites := rules.TypeSites
		if len(c.Sites) > 0 {
			sites = nil
			for _, s := range c.Sites {
				site := rules.Site(strings.ToLower(strings.TrimSpace(s)))
				if !isTypeSite(site) {
					return nil, cfgErr(id, field+".sites", "unknown site %q", s)
				}
				sites = append(sites, site)
			}
		}
		return rules.TypeUsageCheck{Categories: cats, Sites: sites}, nil

	case rules.KindAnnotation:
		if len(c.Annotations) == 0 {
			return nil, cfgErr(id, field+".annotations", "missing")
		}
		return rules.AnnotationCheck{Names: c.Annotations}, nil

	case rules.KindContent:
		if len(c.Patterns) == 0 {
			return nil, cfgErr(id, field+".patterns", "missing")
		}
		var res []*regexp.Regexp
		for _, p := range c.Patterns {
			re, err := regexp.Compile("(?is)" + p)
			if err != nil {
				return nil, cfgErr(id, field+".patterns", "%w", err)
			}
			res = append(res, re)
		}
		return rules.ContentCheck{Patterns: res}, nil

	case rules.KindStatementCount:
		if c.Threshold == nil {
			return nil, cfgErr(id, field+".threshold", "missing")
		}
		if *c.Threshold < 0 {
			return nil, cfgErr(id, field+".threshold", "must not be negative")
		}
		var kinds []ir.StatementKind
		for _, k := range c.Kinds {
			sk := ir.StatementKind(strings.ToLower(strings.TrimSpace(k)))
			if !statementKinds[sk] {
				return nil, cfgErr(id, field+".kinds", "unknown statement kind %q", k)
			}
			kinds = append(kinds, sk)
		}
		return rules.StatementCountCheck{Threshold: *c.Threshold, Kinds: kinds}, nil

	case "":
		return nil, cfgErr(id, field+".kind", "missing")
	default:
		return nil, cfgErr(id, field+".kind", "unknown strategy kind %q", c.Kind)
	}
}

func categories(id, field string, names []string, pc *patterns.Catalog) ([]ir.Category, error) {
	if len(names) == 0 {
		return nil, cfgErr(id, field+".categories", "missing")
	}
	out := make([]ir.Category, 0, len(names))
	for _, n := range names {
		cat := ir.Category(strings.ToLower(strings.TrimSpace(n)))
		if !pc.KnownCategory(cat) {
			return nil, cfgErr(id, field+".categories", "unknown category %q", n)
		}
		out = append(out, cat)
	}
	return out, nil
}

func isTypeSite(s rules.Site) bool {
	for _, t := range rules.TypeSites {
		if t == s {
			return true
		}
	}
	return false
}
