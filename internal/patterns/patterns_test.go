package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archlint/internal/ir"
)

func TestClassify(t *testing.T) {
	c := Default()
	cases := []struct {
		path, pkg string
		want      ir.Layer
	}{
		{"src/main/java/com/acme/exposition/rest/UsuarioController.java", "com.acme.exposition.rest", ir.LayerExposition},
		{"", "mx.ipn.app.exposicion", ir.LayerExposition},
		{"", "com.acme.servicios", ir.LayerService},
		{"", "com.acme.service.impl", ir.LayerService},
		{"", "com.acme.domain.model", ir.LayerDomain},
		{"", "com.acme.modelo", ir.LayerDomain},
		{"", "com.acme.persistencia", ir.LayerRepository},
		{"", "com.acme.repository.entity", ir.LayerDomain},
		{`C:\work\app\controller\Foo.java`, "", ir.LayerExposition},
		{"", "com.acme.domainxyz", ir.LayerUnclassified},
		{"src/Domain.java", "", ir.LayerUnclassified},
		{"", "", ir.LayerUnclassified},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Classify(tc.path, tc.pkg), "%s | %s", tc.path, tc.pkg)
	}
}

func TestClassifyPriority(t *testing.T) {
	c := Default()
	// exposition beats everything, service beats domain, domain beats repository
	assert.Equal(t, ir.LayerExposition, c.Classify("", "com.acme.repository.web"))
	assert.Equal(t, ir.LayerService, c.Classify("", "com.acme.domain.services"))
	assert.Equal(t, ir.LayerDomain, c.Classify("", "com.acme.dao.model"))
}

func TestClassifyDeterministic(t *testing.T) {
	c := Default()
	first := c.Classify("a/b/web/X.java", "com.acme.domain")
	for i := 0; i < 100; i++ {
		require.Equal(t, first, c.Classify("a/b/web/X.java", "com.acme.domain"))
	}
	// classifying other units in between never changes the answer
	c.Classify("x/y", "com.acme.servicios")
	assert.Equal(t, first, c.Classify("a/b/web/X.java", "com.acme.domain"))
}

func TestMatchesCategories(t *testing.T) {
	c := Default()
	assert.True(t, c.Matches("com.acme.repository.UsuarioRepository", ir.CategoryRepository))
	assert.True(t, c.Matches("UsuarioRepository", ir.CategoryRepository))
	assert.True(t, c.Matches("com.acme.domain.Usuario", ir.CategoryDomain))
	assert.True(t, c.Matches("com.acme.entidad.Usuario", ir.CategoryDomain))
	assert.False(t, c.Matches("com.acme.domainxyz.Usuario", ir.CategoryDomain))
	assert.True(t, c.Matches("javax.persistence.EntityManager", ir.CategoryPersistenceAPI))
	assert.True(t, c.Matches("EntityManager", ir.CategoryPersistenceAPI))
	assert.False(t, c.Matches("com.acme.domain.Session", ir.CategoryPersistenceAPI), "qualified names are decided by package")
	assert.True(t, c.Matches("org.springframework.stereotype.Service", ir.CategoryFramework))
	assert.True(t, c.Matches("com.acme.exposition.dto.UsuarioDTO", ir.CategoryDTO))
	assert.False(t, c.Matches("anything", "no-such-category"))
}

func TestResolveMultipleCategories(t *testing.T) {
	c := Default()
	got := c.Resolve("com.acme.repository.UsuarioDao")
	assert.Equal(t, []ir.Category{ir.CategoryRepository}, got)

	got = c.Resolve("javax.persistence.Entity")
	assert.Equal(t, []ir.Category{ir.CategoryFramework, ir.CategoryInfrastructure, ir.CategoryPersistenceAPI}, got)
}

func TestExtendDoesNotMutateReceiver(t *testing.T) {
	base := Default()
	ext := base.Extend(Extension{
		Layers:     map[ir.Layer][]string{ir.LayerService: {"Handlers"}},
		Categories: map[ir.Category]CategoryTokens{"messaging": {Prefixes: []string{"org.apache.kafka."}}},
	})
	assert.Equal(t, ir.LayerService, ext.Classify("", "com.acme.handlers"))
	assert.Equal(t, ir.LayerUnclassified, base.Classify("", "com.acme.handlers"))
	assert.True(t, ext.KnownCategory("messaging"))
	assert.False(t, base.KnownCategory("messaging"))
	assert.Contains(t, ext.LayerTokens(ir.LayerService), "handlers")
}

func TestTypeNames(t *testing.T) {
	got, err := TypeNames("Map<String, List<? extends UsuarioDTO>>")
	require.NoError(t, err)
	assert.Equal(t, []string{"Map", "String", "List", "UsuarioDTO"}, got)

	got, err = TypeNames("com.acme.domain.Usuario[]")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.domain.Usuario"}, got)

	_, err = TypeNames("")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = TypeNames("Foo;Bar")
	assert.ErrorIs(t, err, ErrMalformedName)
	_, err = TypeNames("a..b")
	assert.ErrorIs(t, err, ErrMalformedName)
}

func TestSplitQualified(t *testing.T) {
	pkg, simple := SplitQualified("com.acme.repository.UsuarioRepository")
	assert.Equal(t, []string{"com", "acme", "repository"}, pkg)
	assert.Equal(t, "UsuarioRepository", simple)

	pkg, simple = SplitQualified("com.acme.Outer.Inner")
	assert.Equal(t, []string{"com", "acme"}, pkg)
	assert.Equal(t, "Outer", simple)

	pkg, simple = SplitQualified("com.acme.repository.*")
	assert.Equal(t, []string{"com", "acme", "repository"}, pkg)
	assert.Empty(t, simple)
}
