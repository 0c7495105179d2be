package rulesdsl

import (
	"errors"
	"fmt"

	"github.com/codewithboateng/archlint/internal/rules"
)

// ConfigError is a malformed rule pack entry. errors.Is(err, rules.ErrConfig)
// holds for every ConfigError.
type ConfigError struct {
	RuleID string
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.RuleID != "" && e.Field != "":
		return fmt.Sprintf("rule %s: %s: %v", e.RuleID, e.Field, e.Err)
	case e.RuleID != "":
		return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == rules.ErrConfig }

func cfgErr(ruleID, field, format string, args ...any) error {
	return &ConfigError{RuleID: ruleID, Field: field, Err: fmt.Errorf(format, args...)}
}

// asConfig wraps a catalog validation error so callers can use errors.As.
func asConfig(err error) error {
	var ce *ConfigError
	if err == nil || errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Err: err}
}
