package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/resolver"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReconcileIndexesNewFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.rs", "fn foo() {\n    bar();\n}\nfn bar() {}\n")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	out, err := File(store, nil, path)
	require.NoError(t, err)
	assert.Equal(t, Reindexed, out.Kind)
	assert.Equal(t, 2, out.Symbols)
	assert.Equal(t, 1, out.Calls)
}

func TestReconcileIsUnchangedWhenHashMatches(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.rs", "fn foo() {}\n")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	_, err := File(store, nil, path)
	require.NoError(t, err)

	out, err := File(store, nil, path)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, out.Kind)
}

func TestReconcileReindexesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.rs", "fn foo() {}\n")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	_, err := File(store, nil, path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("fn foo() {}\nfn bar() {}\n"), 0o644))
	out, err := File(store, nil, path)
	require.NoError(t, err)
	assert.Equal(t, Reindexed, out.Kind)
	assert.Equal(t, 2, out.Symbols)
}

func TestReconcileDeletesWhenFileRemoved(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "lib.rs", "fn foo() {}\n")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	_, err := File(store, nil, path)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	out, err := File(store, nil, path)
	require.NoError(t, err)
	assert.Equal(t, Deleted, out.Kind)

	_, found := store.FileFact(path)
	assert.False(t, found)
}

func TestReconcileIsIdempotentOnRepeatedDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.rs")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	out, err := File(store, nil, path)
	require.NoError(t, err)
	assert.Equal(t, Deleted, out.Kind)

	assert.NotPanics(t, func() {
		out, err := File(store, nil, path)
		require.NoError(t, err)
		assert.Equal(t, Deleted, out.Kind)
	})
}

func TestReconcileResolvesCrateRelativeImports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))
	writeFile(t, dir, filepath.Join("src", "foo.rs"), "pub fn helper() {}\n")
	writeFile(t, dir, filepath.Join("src", "main.rs"), "use crate::foo;\nfn main() {}\n")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	_, err = File(store, res, filepath.Join("src", "foo.rs"))
	require.NoError(t, err)
	_, err = File(store, res, filepath.Join("src", "main.rs"))
	require.NoError(t, err)

	assert.Equal(t, "src/foo.rs", res.ResolvePath("src/main.rs", []string{"crate", "foo"}))
}
