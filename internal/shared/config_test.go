package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFileAndEnv(t *testing.T) {
	p := filepath.Join(t.TempDir(), "archlint.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
analysis:
  workers: 2
rules:
  disabled: [ExpositionMustDelegateToService]
logging:
  format: text
`), 0o644))
	t.Setenv("ARCHLINT_SEVERITY_THRESHOLD", "critical")
	t.Setenv("ARCHLINT_DISABLED_RULES", "A, B,")

	c, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Analysis.Workers)
	assert.Equal(t, "text", c.Logging.Format)
	assert.Equal(t, "CRITICAL", c.Rules.SeverityThreshold)
	assert.Equal(t, map[string]bool{"A": true, "B": true}, c.DisabledSet())
	assert.Equal(t, "./archlint.db", c.Database.DSN)
}

func TestLoadConfigMissingAndMalformed(t *testing.T) {
	c, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("analysis: [\n"), 0o644))
	_, err = LoadConfig(p)
	assert.Error(t, err)
}

func TestInitLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	lg := InitLogger(&buf, "json", "warn")
	lg.Info("hidden")
	lg.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
