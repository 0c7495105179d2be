package patterns

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrEmptyName     = errors.New("empty type name")
	ErrMalformedName = errors.New("malformed type name")
)

var (
	fqnRe      = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.([\p{L}_$][\p{L}\p{N}_$]*|\*))*$`)
	typeExprRe = regexp.MustCompile(`^[\p{L}\p{N}_$.<>,?\[\]&\s]+$`)
)

// SplitQualified splits a dotted name into package segments and the simple
// type name. The first segment starting with an upper-case letter is taken
// as the type, so static imports and nested types resolve to their
// outermost type. Wildcard imports have no simple name.
func SplitQualified(fqn string) (pkg []string, simple string) {
	segs := strings.Split(strings.TrimSpace(fqn), ".")
	if len(segs) == 1 {
		return nil, segs[0]
	}
	for i, s := range segs {
		if s == "*" {
			return segs[:i], ""
		}
		if s != "" && unicode.IsUpper([]rune(s)[0]) {
			return segs[:i], s
		}
	}
	return segs, ""
}

// ValidateFQN checks that name looks like a dotted identifier path.
func ValidateFQN(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return ErrEmptyName
	}
	if !fqnRe.MatchString(n) {
		return fmt.Errorf("%w: %q", ErrMalformedName, name)
	}
	return nil
}

// TypeNames unwraps a declared type expression into the names it mentions:
// "Map<String, List<UsuarioDTO>>" gives [Map String List UsuarioDTO].
func TypeNames(expr string) ([]string, error) {
	e := strings.TrimSpace(expr)
	if e == "" {
		return nil, ErrEmptyName
	}
	if !typeExprRe.MatchString(e) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedName, expr)
	}
	parts := strings.FieldsFunc(e, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("<>,?[]&", r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "extends", "super":
			continue
		}
		if err := ValidateFQN(p); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedName, expr)
		}
		out = append(out, p)
	}
	return out, nil
}
