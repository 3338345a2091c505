package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/config"
	"github.com/oldnordic/magellan/internal/diag"
	"github.com/oldnordic/magellan/internal/filter"
	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/resolver"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanIndexesAllMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "fn foo() {\n    bar();\n}\nfn bar() {}\n")
	writeFile(t, dir, "src/helper.py", "def baz():\n    pass\n")
	writeFile(t, dir, "README.md", "not indexed\n")

	f, err := filter.New(dir, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	result, err := Scan(context.Background(), store, res, dir, f)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Indexed)
	assert.Equal(t, 0, result.Unchanged)
}

func TestScanIsIdempotentOnSecondPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "fn foo() {}\n")

	f, err := filter.New(dir, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	_, err = Scan(context.Background(), store, res, dir, f)
	require.NoError(t, err)

	result, err := Scan(context.Background(), store, res, dir, f)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)
	assert.Equal(t, 1, result.Unchanged)
}

func TestScanSkipsInternalDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/lib.rs", "fn foo() {}\n")
	writeFile(t, dir, "target/debug/build.rs", "fn generated() {}\n")
	writeFile(t, dir, "node_modules/pkg/index.js", "function unused() {}\n")

	f, err := filter.New(dir, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	result, err := Scan(context.Background(), store, res, dir, f)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
}

func TestScanRecordsSkippedDiagnosticForUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "just text\n")

	f, err := filter.New(dir, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	result, err := Scan(context.Background(), store, res, dir, f)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].String(), "UnsupportedLanguage")
}

func TestPrepareAllReportsErrorForFileVanishedBeforeRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.rs")

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	prepared, diagnostics := prepareAll(context.Background(), store, []string{path}, 1)

	assert.Empty(t, prepared)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, diag.StageRead, diagnostics[0].Stage)
	assert.Contains(t, diagnostics[0].String(), "ERROR")

	_, found := store.FileFact(path)
	assert.False(t, found)
}

func TestScanErrorsWhenRootIsNotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lib.rs", "fn foo() {}\n")

	f, err := filter.New(dir, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	_, err = Scan(context.Background(), store, res, filepath.Join(dir, "lib.rs"), f)
	assert.Error(t, err)
}

func TestScanReportsSymlinkEscapeDiagnostic(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.rs")
	require.NoError(t, os.WriteFile(target, []byte("fn secret() {}\n"), 0o644))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.rs")))

	f, err := filter.New(root, false, config.Filter{})
	require.NoError(t, err)

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	res := resolver.New(store)

	result, err := Scan(context.Background(), store, res, root, f)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Indexed)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].String(), "SymlinkEscape")
}
