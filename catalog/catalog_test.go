package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Key order is deliberately non-alphabetical: the loader must keep the
// file's order, not sort it.
const fixtureJSON = `{
	"brands": {
		"honda": {"brand_value": "honda", "brand_text": "Honda", "models": [
			{"value": "civic", "text": "Civic"}
		]},
		"bmw": {"brand_value": "bmw", "brand_text": "BMW", "models": [
			{"value": "x5", "text": "X5"},
			{"value": "seria-3", "text": "Seria 3"}
		]},
		"audi": {"brand_value": "audi", "brand_text": "Audi", "models": []},
		"zeta": {"brand_value": "zeta", "brand_text": "Zeta", "models": []},
		"fiat": {"brand_value": "fiat", "brand_text": "Fiat", "models": []},
		"alfa-romeo": {"brand_value": "alfa-romeo", "brand_text": "Alfa Romeo", "models": []}
	}
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "otomoto_database.json")
	require.NoError(t, os.WriteFile(path, []byte(fixtureJSON), 0644))
	return path
}

func TestLoadPreservesFileOrder(t *testing.T) {
	cat := Load(writeFixture(t))

	assert.Equal(t, 6, cat.Len())
	assert.Equal(t, []string{"honda", "bmw", "audi", "zeta", "fiat", "alfa-romeo"}, cat.Keys())

	bmw, ok := cat.Brand("bmw")
	require.True(t, ok)
	assert.Equal(t, "BMW", bmw.Text)
	require.Len(t, bmw.Models, 2)
	assert.Equal(t, "x5", bmw.Models[0].Value)
}

func TestLoadMissingFileDegradesToEmptyCatalog(t *testing.T) {
	cat := Load(filepath.Join(t.TempDir(), "nope.json"))

	assert.Zero(t, cat.Len())
	result := cat.Validate("bmw", "")
	assert.False(t, result.Valid)
}

func TestValidate(t *testing.T) {
	cat := Load(writeFixture(t))

	t.Run("no brand input is trivially valid", func(t *testing.T) {
		result := cat.Validate("", "")
		assert.True(t, result.Valid)
		assert.Empty(t, result.BrandValue)
	})

	t.Run("brand matches case-insensitively", func(t *testing.T) {
		result := cat.Validate("BMW", "")
		assert.True(t, result.Valid)
		assert.Equal(t, "bmw", result.BrandValue)
	})

	t.Run("brand matches by display text", func(t *testing.T) {
		result := cat.Validate("Alfa Romeo", "")
		assert.True(t, result.Valid)
		assert.Equal(t, "alfa-romeo", result.BrandValue)
	})

	t.Run("unknown brand suggests first five catalog keys", func(t *testing.T) {
		result := cat.Validate("lada", "")
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "'lada'")
		assert.Equal(t, []string{"honda", "bmw", "audi", "zeta", "fiat"}, result.Suggestions.Brands)
	})

	t.Run("model matches by text or value", func(t *testing.T) {
		result := cat.Validate("bmw", "X5")
		assert.True(t, result.Valid)
		assert.Equal(t, "x5", result.ModelValue)

		result = cat.Validate("bmw", "seria-3")
		assert.True(t, result.Valid)
		assert.Equal(t, "seria-3", result.ModelValue)
	})

	t.Run("unknown model suggests all model texts", func(t *testing.T) {
		result := cat.Validate("bmw", "x9")
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "'x9'")
		assert.Equal(t, []string{"X5", "Seria 3"}, result.Suggestions.Models)
	})
}
