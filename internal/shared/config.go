package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./archlint.db"
	} `yaml:"database"`

	Analysis struct {
		Sources []string `yaml:"sources"` // facts files or directories
		Workers int      `yaml:"workers"` // 0 = NumCPU
	} `yaml:"analysis"`

	Rules struct {
		Pack              string   `yaml:"pack"`               // optional user rule pack
		Disabled          []string `yaml:"disabled"`           // rule ids or aliases
		SeverityThreshold string   `yaml:"severity_threshold"` // MAJOR|CRITICAL
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "./reports"
	} `yaml:"reporting"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	Server struct {
		Addr           string   `yaml:"addr"`             // ":8080"
		AdminTokenHash string   `yaml:"admin_token_hash"` // bcrypt, see "archlint hash-token"
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./archlint.db"
	c.Rules.SeverityThreshold = "MAJOR"
	c.Reporting.OutDir = "./reports"
	c.Logging.Format = "json"
	c.Logging.Level = "info"
	c.Server.Addr = ":8080"
	return c
}

// LoadConfig reads path (if it exists) over the defaults, then applies
// ARCHLINT_* environment overrides. A missing file is not an error; a
// malformed one is.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return c, fmt.Errorf("read config: %w", err)
		}
	}
	applyEnv(&c)
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("ARCHLINT_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ARCHLINT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.Workers = n
		}
	}
	if v := os.Getenv("ARCHLINT_RULES_PACK"); v != "" {
		c.Rules.Pack = v
	}
	if v := os.Getenv("ARCHLINT_DISABLED_RULES"); v != "" {
		c.Rules.Disabled = splitList(v)
	}
	if v := os.Getenv("ARCHLINT_SEVERITY_THRESHOLD"); v != "" {
		c.Rules.SeverityThreshold = strings.ToUpper(v)
	}
	if v := os.Getenv("ARCHLINT_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("ARCHLINT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARCHLINT_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	if v := os.Getenv("ARCHLINT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ARCHLINT_ADMIN_TOKEN_HASH"); v != "" {
		c.Server.AdminTokenHash = v
	}
}

// DisabledSet turns the disabled list into the form rules.Settings expects.
func (c Config) DisabledSet() map[string]bool {
	m := map[string]bool{}
	for _, id := range c.Rules.Disabled {
		if id = strings.TrimSpace(id); id != "" {
			m[id] = true
		}
	}
	return m
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
