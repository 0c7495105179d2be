package golden

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/engine"
	"github.com/codewithboateng/archlint/internal/parser"
	"github.com/codewithboateng/archlint/internal/rules"
	"github.com/codewithboateng/archlint/internal/rulesdsl"
)

func analyzeFacts(t *testing.T, files map[string]string, threshold string) engine.Result {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	units, _, err := parser.Parse(dir)
	require.NoError(t, err)

	rc, pc, err := rulesdsl.Load("", rules.Settings{SeverityThreshold: threshold})
	require.NoError(t, err)
	eng, err := engine.New(rc, pc, engine.Options{Workers: 4, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	res, err := eng.Analyze(context.Background(), units)
	require.NoError(t, err)
	return res
}

// layeredApp is a small application with one violation per layer boundary,
// written as JSON facts.
const layeredApp = `{"units": [
  {"path": "app/controller/UsuarioController.java", "package": "com.acme.controller",
   "imports": [{"name": "com.acme.service.UsuarioService", "line": 3}],
   "types": [{"name": "UsuarioController", "line": 6,
     "annotations": [{"name": "RestController", "line": 5}],
     "fields": [{"name": "service", "type": "UsuarioService", "line": 7}],
     "methods": [{"name": "get", "line": 9, "return_type": "UsuarioDTO",
       "statements": ["return"]}]}]},
  {"path": "app/controller/AdminController.java", "package": "com.acme.controller",
   "imports": [{"name": "com.acme.domain.model.Usuario", "line": 3}],
   "types": [{"name": "AdminController", "line": 6,
     "annotations": [{"name": "RestController", "line": 5}, {"name": "Transactional", "line": 5}],
     "methods": [{"name": "all", "line": 9, "return_type": "List<Usuario>",
       "statements": ["declaration", "loop", "conditional", "return"]}]}]},
  {"path": "app/service/UsuarioService.java", "package": "com.acme.service",
   "imports": [{"name": "com.acme.controller.UsuarioController", "line": 3},
               {"name": "javax.persistence.EntityManager", "line": 4}],
   "types": [{"name": "UsuarioService", "line": 7,
     "fields": [{"name": "controller", "type": "UsuarioController", "line": 8},
                {"name": "em", "type": "EntityManager", "line": 9}]}]},
  {"path": "app/domain/model/Usuario.java", "package": "com.acme.domain.model",
   "imports": [{"name": "org.springframework.stereotype.Component", "line": 3}],
   "types": [{"name": "Usuario", "line": 6, "annotations": [{"name": "Component", "line": 5}]}]},
  {"path": "app/repository/UsuarioRepository.java", "package": "com.acme.repository",
   "imports": [{"name": "com.acme.service.UsuarioService", "line": 3}],
   "types": [{"name": "UsuarioRepository", "line": 5}]}
]}`

func byRule(res engine.Result) map[string]int {
	out := map[string]int{}
	for _, is := range res.Issues {
		out[is.RuleID]++
	}
	return out
}

func TestLayeredApp_ContainsKeyIssues(t *testing.T) {
	res := analyzeFacts(t, map[string]string{"app.json": layeredApp}, "")
	counts := byRule(res)

	required := []string{
		"NoDomainAccessFromExposition",
		"AvoidDomainModelInExposition",
		"ExpositionMustDelegateToService",
		"NoOtherLayerAnnotationsInController",
		"NoControllerAccessFromService",
		"ServiceShouldNotDependOnController",
		"NoPersistenceInService",
		"NoFrameworkDependenciesInDomain",
		"NoUpperLayerAccessFromRepository",
	}
	for _, id := range required {
		assert.Positive(t, counts[id], "expected at least 1 issue for %s; counts=%v", id, counts)
	}

	// the thin controller is clean
	for _, is := range res.Issues {
		assert.NotEqual(t, "app/controller/UsuarioController.java", is.File, "unexpected %s", is.RuleID)
	}
	// once per file in the domain
	assert.Equal(t, 1, counts["NoFrameworkDependenciesInDomain"])
	assert.Empty(t, res.Errors)
}

func TestLayeredApp_CriticalThresholdFilters(t *testing.T) {
	all := analyzeFacts(t, map[string]string{"app.json": layeredApp}, "")
	crit := analyzeFacts(t, map[string]string{"app.json": layeredApp}, "CRITICAL")

	require.Less(t, len(crit.Issues), len(all.Issues))
	require.NotEmpty(t, crit.Issues)
	for _, is := range crit.Issues {
		assert.Equal(t, "NoUpperLayerAccessFromRepository", is.RuleID)
	}
}

func TestLayeredApp_StableAcrossRuns(t *testing.T) {
	a := analyzeFacts(t, map[string]string{"app.json": layeredApp}, "")
	b := analyzeFacts(t, map[string]string{"app.json": layeredApp}, "")
	assert.Equal(t, a.Issues, b.Issues)
}
