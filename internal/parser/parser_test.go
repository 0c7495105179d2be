package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
)

const jsonUnit = `{
  "path": "src/com/acme/exposition/rest/UsuarioController.java",
  "package": "com.acme.exposition.rest",
  "imports": [{"name": "com.acme.repository.UsuarioRepository", "line": 3}],
  "types": [{
    "name": "UsuarioController",
    "annotations": [{"name": "RestController", "line": 5}],
    "methods": [{"name": "get", "line": 9, "return_type": "UsuarioDTO",
                 "params": [{"name": "id", "type": "Long"}],
                 "statements": ["return"]}]
  }],
  "literals": [{"value": "SELECT * FROM usuarios", "line": 12}]
}`

const yamlUnits = `
units:
  - path: src/com/acme/servicios/UsuarioService.java
    package: com.acme.servicios
    types:
      - name: UsuarioService
        fields:
          - {name: controller, type: UsuarioController, line: 7}
  - package: com.acme.domain.model
`

func TestParseBytesJSON(t *testing.T) {
	units, err := ParseBytes("u.json", []byte(jsonUnit))
	require.NoError(t, err)
	require.Len(t, units, 1)
	u := units[0]
	assert.Equal(t, "com.acme.exposition.rest", u.Package)
	assert.Equal(t, 3, u.Imports[0].Line)
	assert.Equal(t, []ir.StatementKind{ir.StmtReturn}, u.Types[0].Methods[0].Statements)
	assert.Equal(t, "SELECT * FROM usuarios", u.Literals[0].Value)
}

func TestParseBytesYAMLList(t *testing.T) {
	units, err := ParseBytes("facts.yaml", []byte(yamlUnits))
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "UsuarioController", units[0].Types[0].Fields[0].Type)
	assert.Equal(t, "facts.yaml#1", units[1].Path)
}

func TestParseBytesErrors(t *testing.T) {
	_, err := ParseBytes("x.json", []byte("  "))
	assert.ErrorIs(t, err, ErrNoFacts)
	_, err = ParseBytes("x.json", []byte("{not json"))
	assert.Error(t, err)
	_, err = ParseBytes("x.yaml", []byte("other: 1\n"))
	assert.ErrorIs(t, err, ErrNoFacts)
}

func TestParseDirectoryTurnsBrokenFilesIntoUnits(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(jsonUnit), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(yamlUnits), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"path": `), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	units, diags, err := Parse(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, diags.Files)
	require.Len(t, units, 4)

	var broken *ir.SourceUnit
	for i := range units {
		if units[i].Path == "broken.json" {
			broken = &units[i]
		}
	}
	require.NotNil(t, broken)
	assert.NotEmpty(t, broken.ExtractionError)

	for i := 1; i < len(units); i++ {
		assert.LessOrEqual(t, units[i-1].Path, units[i].Path)
	}
}

func TestParseMissingSource(t *testing.T) {
	_, _, err := Parse(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
