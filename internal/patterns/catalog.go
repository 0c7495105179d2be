// Package patterns holds the token tables that map layer names and type
// categories to path, package and type-name tokens.
package patterns

import (
	"sort"
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
)

// CategoryTokens describes how a fully qualified name is matched to a category.
// Segments and Prefixes are compared lower-cased; Names and Suffixes are
// compared against the simple type name as written. Names only apply to
// unqualified references.
type CategoryTokens struct {
	Segments []string `yaml:"segments" json:"segments,omitempty"`
	Prefixes []string `yaml:"prefixes" json:"prefixes,omitempty"`
	Names    []string `yaml:"names" json:"names,omitempty"`
	Suffixes []string `yaml:"suffixes" json:"suffixes,omitempty"`
}

type tokenSet struct {
	segments map[string]struct{}
	prefixes []string
	names    map[string]struct{}
	suffixes []string
}

// Catalog is immutable once built. Extend returns a copy.
type Catalog struct {
	layers     map[ir.Layer]map[string]struct{}
	categories map[ir.Category]*tokenSet
}

// Extension adds tokens on top of an existing catalog.
type Extension struct {
	Layers     map[ir.Layer][]string          `yaml:"layers"`
	Categories map[ir.Category]CategoryTokens `yaml:"categories"`
}

var defaultLayers = map[ir.Layer][]string{
	ir.LayerExposition: {"exposition", "exposicion", "presentation", "presentacion", "controller", "controllers", "rest", "web", "api", "endpoint", "endpoints"},
	ir.LayerService:    {"service", "services", "servicio", "servicios", "application", "aplicacion", "usecase", "usecases"},
	ir.LayerDomain:     {"domain", "dominio", "model", "models", "modelo", "modelos", "entity", "entities", "entidad", "entidades"},
	ir.LayerRepository: {"repository", "repositories", "repositorio", "repositorios", "persistence", "persistencia", "dao", "infrastructure", "infraestructura"},
}

var defaultCategories = map[ir.Category]CategoryTokens{
	ir.CategoryDomain: {
		Segments: []string{"domain", "dominio", "model", "models", "modelo", "modelos", "entity", "entities", "entidad", "entidades"},
	},
	ir.CategoryRepository: {
		Segments: []string{"repository", "repositories", "repositorio", "repositorios", "dao", "daos"},
		Suffixes: []string{"Repository", "Dao", "DAO"},
	},
	ir.CategoryPresentation: {
		Segments: []string{"exposition", "exposicion", "presentation", "presentacion", "controller", "controllers", "rest", "web", "api", "endpoint", "endpoints"},
		Suffixes: []string{"Controller", "Endpoint"},
	},
	ir.CategoryService: {
		Segments: []string{"service", "services", "servicio", "servicios", "application", "aplicacion", "usecase", "usecases"},
		Suffixes: []string{"Service", "ServiceImpl", "UseCase"},
	},
	ir.CategoryDTO: {
		Segments: []string{"dto", "dtos", "request", "requests", "response", "responses"},
		Suffixes: []string{"DTO", "Dto"},
	},
	ir.CategoryPersistenceAPI: {
		Prefixes: []string{
			"java.sql.", "javax.sql.", "javax.persistence.", "jakarta.persistence.",
			"org.hibernate.", "org.springframework.jdbc.", "org.springframework.data.jpa.", "org.springframework.orm.",
		},
		Names: []string{
			"EntityManager", "EntityManagerFactory", "Session", "SessionFactory",
			"Connection", "DataSource", "Statement", "PreparedStatement", "CallableStatement", "ResultSet",
			"JdbcTemplate", "NamedParameterJdbcTemplate", "Query", "TypedQuery", "CriteriaBuilder",
		},
	},
	ir.CategoryInfrastructure: {
		Segments: []string{"infrastructure", "infraestructura", "infra", "adapter", "adapters", "adaptador", "adaptadores", "config", "configuration", "persistence", "persistencia", "dao", "external", "externo"},
	},
	ir.CategoryFramework: {
		Prefixes: []string{
			"org.springframework.", "javax.inject.", "jakarta.inject.", "javax.persistence.", "jakarta.persistence.",
			"org.hibernate.", "javax.ws.rs.", "jakarta.ws.rs.", "javax.ejb.", "jakarta.ejb.", "com.google.inject.",
		},
	},
}

// Default returns the built-in bilingual catalog.
func Default() *Catalog {
	c := &Catalog{
		layers:     map[ir.Layer]map[string]struct{}{},
		categories: map[ir.Category]*tokenSet{},
	}
	for l, toks := range defaultLayers {
		c.addLayerTokens(l, toks)
	}
	for cat, ct := range defaultCategories {
		c.addCategoryTokens(cat, ct)
	}
	return c
}

// Extend returns a new catalog holding the receiver's tokens plus ext.
func (c *Catalog) Extend(ext Extension) *Catalog {
	out := c.clone()
	for l, toks := range ext.Layers {
		out.addLayerTokens(l, toks)
	}
	for cat, ct := range ext.Categories {
		out.addCategoryTokens(cat, ct)
	}
	return out
}

// KnownCategory reports whether cat has a token set.
func (c *Catalog) KnownCategory(cat ir.Category) bool {
	_, ok := c.categories[cat]
	return ok
}

// LayerTokens lists the tokens of a layer, sorted.
func (c *Catalog) LayerTokens(l ir.Layer) []string {
	out := make([]string, 0, len(c.layers[l]))
	for t := range c.layers[l] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Matches reports whether fqn resolves to cat.
func (c *Catalog) Matches(fqn string, cat ir.Category) bool {
	ts, ok := c.categories[cat]
	if !ok {
		return false
	}
	pkg, simple := SplitQualified(fqn)
	return ts.match(strings.TrimSpace(fqn), pkg, simple)
}

// Resolve returns every category fqn belongs to, in a stable order.
func (c *Catalog) Resolve(fqn string) []ir.Category {
	pkg, simple := SplitQualified(fqn)
	var out []ir.Category
	for cat, ts := range c.categories {
		if ts.match(strings.TrimSpace(fqn), pkg, simple) {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (ts *tokenSet) match(fqn string, pkg []string, simple string) bool {
	for _, seg := range pkg {
		if _, ok := ts.segments[strings.ToLower(seg)]; ok {
			return true
		}
	}
	if len(ts.prefixes) > 0 {
		low := strings.ToLower(fqn)
		for _, p := range ts.prefixes {
			if strings.HasPrefix(low, p) {
				return true
			}
		}
	}
	if simple == "" {
		return false
	}
	// Bare API names only count when the reference is unqualified; a
	// qualified name is decided by its package.
	if _, ok := ts.names[simple]; ok && len(pkg) == 0 {
		return true
	}
	for _, s := range ts.suffixes {
		if strings.HasSuffix(simple, s) {
			return true
		}
	}
	return false
}

func (c *Catalog) addLayerTokens(l ir.Layer, toks []string) {
	set, ok := c.layers[l]
	if !ok {
		set = map[string]struct{}{}
		c.layers[l] = set
	}
	for _, t := range toks {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
}

func (c *Catalog) addCategoryTokens(cat ir.Category, ct CategoryTokens) {
	ts, ok := c.categories[cat]
	if !ok {
		ts = &tokenSet{segments: map[string]struct{}{}, names: map[string]struct{}{}}
		c.categories[cat] = ts
	}
	for _, s := range ct.Segments {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			ts.segments[s] = struct{}{}
		}
	}
	for _, p := range ct.Prefixes {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			ts.prefixes = append(ts.prefixes, p)
		}
	}
	for _, n := range ct.Names {
		if n = strings.TrimSpace(n); n != "" {
			ts.names[n] = struct{}{}
		}
	}
	for _, s := range ct.Suffixes {
		if s = strings.TrimSpace(s); s != "" {
			ts.suffixes = append(ts.suffixes, s)
		}
	}
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		layers:     make(map[ir.Layer]map[string]struct{}, len(c.layers)),
		categories: make(map[ir.Category]*tokenSet, len(c.categories)),
	}
	for l, set := range c.layers {
		cp := make(map[string]struct{}, len(set))
		for t := range set {
			cp[t] = struct{}{}
		}
		out.layers[l] = cp
	}
	for cat, ts := range c.categories {
		cp := &tokenSet{
			segments: make(map[string]struct{}, len(ts.segments)),
			prefixes: append([]string(nil), ts.prefixes...),
			names:    make(map[string]struct{}, len(ts.names)),
			suffixes: append([]string(nil), ts.suffixes...),
		}
		for s := range ts.segments {
			cp.segments[s] = struct{}{}
		}
		for n := range ts.names {
			cp.names[n] = struct{}{}
		}
		out.categories[cat] = cp
	}
	return out
}
