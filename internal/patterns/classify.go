package patterns

import (
	"strings"

	"github.com/codewithboateng/archlint/internal/ir"
)

// Classify assigns exactly one layer to a unit from its path and package.
// Only whole segments are compared, so "domainxyz" never matches "domain".
// When several layers match, ir.LayerPriority decides.
func (c *Catalog) Classify(path, pkg string) ir.Layer {
	segs := unitSegments(path, pkg)
	for _, l := range ir.LayerPriority {
		set := c.layers[l]
		for _, s := range segs {
			if _, ok := set[s]; ok {
				return l
			}
		}
	}
	return ir.LayerUnclassified
}

// unitSegments returns the lower-cased directory segments of path followed
// by the package segments. The file base name is not a segment.
func unitSegments(path, pkg string) []string {
	var segs []string

	p := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		for _, s := range strings.Split(p[:i], "/") {
			if s != "" && s != "." && s != ".." {
				segs = append(segs, s)
			}
		}
	}

	k := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(pkg), "/", "."))
	for _, s := range strings.Split(k, ".") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
