package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("registry.base_url", "http://localhost:9999/api"))
	require.NoError(t, store.Set("enrichment.batch_size", int64(25)))
	require.NoError(t, store.Set("registry.requests_per_second", 1.5))
	require.NoError(t, store.Set("debug", true))

	assert.Equal(t, "http://localhost:9999/api", store.GetString("registry.base_url"))
	assert.Equal(t, 25, store.GetInt("enrichment.batch_size"))
	assert.Equal(t, 1.5, store.GetFloat("registry.requests_per_second"))
	assert.True(t, store.GetBool("debug"))
}

func TestConfigStore_Get_MissingKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("does.not.exist")
	assert.False(t, ok)
	assert.Equal(t, "", store.GetString("does.not.exist"))
	assert.Equal(t, 0, store.GetInt("does.not.exist"))
	assert.Equal(t, 0.0, store.GetFloat("does.not.exist"))
	assert.False(t, store.GetBool("does.not.exist"))
}

func TestConfigStore_GetString_WrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("enrichment.batch_size", int64(50)))
	assert.Equal(t, "", store.GetString("enrichment.batch_size"))
}

func TestConfigStore_GetFloat_FromInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("registry.requests_per_second", int64(3)))
	assert.Equal(t, 3.0, store.GetFloat("registry.requests_per_second"))
}

func TestConfigStore_Set_PersistsImmediately(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("enrichment.tax_id_field", "cnpj"))

	// A fresh store reading the same file sees the value.
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "cnpj", reloaded.GetString("enrichment.tax_id_field"))
}

func TestConfigStore_Load_NestedTOML(t *testing.T) {
	dir := t.TempDir()
	content := `
[registry]
base_url = "https://brasilapi.com.br/api"
requests_per_second = 3.0

[enrichment]
batch_size = 50
concurrency = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://brasilapi.com.br/api", store.GetString("registry.base_url"))
	assert.Equal(t, 3.0, store.GetFloat("registry.requests_per_second"))
	assert.Equal(t, 50, store.GetInt("enrichment.batch_size"))
	assert.Equal(t, 3, store.GetInt("enrichment.concurrency"))
}

func TestConfigStore_Load_MissingFile(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Save_RestrictedPermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "value"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Path(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
