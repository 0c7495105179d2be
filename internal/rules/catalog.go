package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/codewithboateng/archlint/internal/ir"
)

// Catalog is the validated, read-only set of rule definitions. It is safe
// for concurrent use once built.
type Catalog struct {
	defs     []*Definition
	index    map[string]*Definition
	settings Settings
	active   []*Definition
	unknown  []string
}

// NewCatalog validates defs and applies s. Any structural problem is reported
// as an error wrapping ErrConfig.
func NewCatalog(defs []Definition, s Settings) (*Catalog, error) {
	if s.SeverityThreshold != "" && !ValidSeverity(s.SeverityThreshold) {
		return nil, fmt.Errorf("%w: unknown severity threshold %q", ErrConfig, s.SeverityThreshold)
	}
	c := &Catalog{index: map[string]*Definition{}, settings: s}
	for i := range defs {
		d := defs[i]
		if err := validate(&d); err != nil {
			return nil, err
		}
		for _, key := range append([]string{d.ID}, d.Aliases...) {
			k := normKey(key)
			if prev, dup := c.index[k]; dup {
				return nil, fmt.Errorf("%w: rule %s: key %q already used by %s", ErrConfig, d.ID, key, prev.ID)
			}
			c.index[k] = &d
		}
		c.defs = append(c.defs, &d)
	}
	sort.Slice(c.defs, func(i, j int) bool { return c.defs[i].ID < c.defs[j].ID })

	disabled := map[string]bool{}
	for k, v := range s.Disabled {
		if !v {
			continue
		}
		if d, ok := c.index[normKey(k)]; ok {
			disabled[d.ID] = true
		} else {
			c.unknown = append(c.unknown, k)
		}
	}
	sort.Strings(c.unknown)
	for _, d := range c.defs {
		if !d.Enabled || disabled[d.ID] {
			continue
		}
		if !SeverityAtLeast(string(d.Severity), s.SeverityThreshold) {
			continue
		}
		c.active = append(c.active, d)
	}
	return c, nil
}

func validate(d *Definition) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: rule without id", ErrConfig)
	}
	if !ValidSeverity(string(d.Severity)) {
		return fmt.Errorf("%w: rule %s: unknown severity %q", ErrConfig, d.ID, d.Severity)
	}
	if len(d.Layers) == 0 {
		return fmt.Errorf("%w: rule %s: no source layers", ErrConfig, d.ID)
	}
	for _, l := range d.Layers {
		switch l {
		case ir.LayerExposition, ir.LayerService, ir.LayerDomain, ir.LayerRepository:
		default:
			return fmt.Errorf("%w: rule %s: unknown layer %q", ErrConfig, d.ID, l)
		}
	}
	if len(d.Strategies) == 0 {
		return fmt.Errorf("%w: rule %s: no checks", ErrConfig, d.ID)
	}
	for i, st := range d.Strategies {
		if st == nil {
			return fmt.Errorf("%w: rule %s: check %d is nil", ErrConfig, d.ID, i)
		}
	}
	if strings.TrimSpace(d.Message) == "" {
		return fmt.Errorf("%w: rule %s: empty message", ErrConfig, d.ID)
	}
	return nil
}

func normKey(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// Get looks a rule up by id or alias, case-insensitively.
func (c *Catalog) Get(key string) (*Definition, bool) {
	d, ok := c.index[normKey(key)]
	return d, ok
}

// All returns every definition, including disabled ones, sorted by id.
func (c *Catalog) All() []*Definition { return c.defs }

// List returns the active definitions sorted by id.
func (c *Catalog) List() []*Definition { return c.active }

// Active reports whether the rule with this id is evaluated.
func (c *Catalog) Active(id string) bool {
	for _, d := range c.active {
		if d.ID == id {
			return true
		}
	}
	return false
}

// UnknownDisabled lists disabled keys that name no rule id or alias.
func (c *Catalog) UnknownDisabled() []string { return c.unknown }

// Settings returns the settings the catalog was built with.
func (c *Catalog) Settings() Settings { return c.settings }

// Select returns the active rules that apply to a unit of layer l.
func (c *Catalog) Select(l ir.Layer, v SourceView) []*Definition {
	var out []*Definition
	for _, d := range c.active {
		if d.AppliesTo(l, v) {
			out = append(out, d)
		}
	}
	return out
}

// Fingerprint is a stable hash of the active rule set.
func (c *Catalog) Fingerprint() string {
	h := xxhash.New()
	for _, d := range c.active {
		_, _ = h.WriteString(d.ID)
		_, _ = h.WriteString("|" + string(d.Severity) + "|")
		for _, l := range d.Layers {
			_, _ = h.WriteString(string(l) + ",")
		}
		_, _ = h.WriteString("|" + strings.Join(d.AnnotatedWith, ",") + "|")
		for _, st := range d.Strategies {
			_, _ = h.WriteString(st.Describe() + ";")
		}
		_, _ = h.WriteString(fmt.Sprintf("|%t|%s\n", d.ReportAll, d.Message))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
