package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/config"
	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/types"
)

func buildStore(t *testing.T) *graphstore.Store {
	t.Helper()
	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	fileID := store.FindOrCreateFile(types.FileFact{Path: "src/lib.rs", ContentHash: "abc"})
	store.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{
			{SymbolID: "foo-id", Name: "foo", FQN: "crate::foo", Kind: types.KindFunction, FilePath: "src/lib.rs"},
			{SymbolID: "bar-id", Name: "bar", FQN: "crate::bar", Kind: types.KindFunction, FilePath: "src/lib.rs"},
		},
		Calls: []types.CallFact{
			{FilePath: "src/lib.rs", Caller: "foo", Callee: "bar", CallerSymbolID: "foo-id", CalleeSymbolID: "bar-id"},
		},
	})
	return store
}

func TestCollectSortsRecordsDeterministically(t *testing.T) {
	store := buildStore(t)
	cfg := config.Export{IncludeSymbols: true, IncludeCalls: true}

	snap := Collect(store, cfg)
	require.Len(t, snap.Symbols, 2)
	assert.Equal(t, "bar", snap.Symbols[0].Name)
	assert.Equal(t, "foo", snap.Symbols[1].Name)
	require.Len(t, snap.Calls, 1)
	assert.Equal(t, "foo", snap.Calls[0].Caller)
}

func TestWriteJSONProducesSingleDocument(t *testing.T) {
	store := buildStore(t)
	cfg := config.Export{Format: config.ExportJSON, IncludeSymbols: true}
	snap := Collect(store, cfg)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap, cfg))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "files")
	assert.Contains(t, doc, "symbols")
}

func TestWriteJSONLOrdersFileBeforeSymbolBeforeCall(t *testing.T) {
	store := buildStore(t)
	cfg := config.Export{Format: config.ExportJSONL, IncludeSymbols: true, IncludeCalls: true}
	snap := Collect(store, cfg)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap, cfg))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4) // 1 file + 2 symbols + 1 call

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "file", first["type"])

	var last map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "call", last["type"])
}

func TestCollectIncludesMetricsWhenRequested(t *testing.T) {
	store := buildStore(t)
	cfg := config.Export{IncludeMetrics: true}

	snap := Collect(store, cfg)
	require.Len(t, snap.FileMetrics, 1)
	assert.Equal(t, "src/lib.rs", snap.FileMetrics[0].Path)

	require.Len(t, snap.SymbolMetrics, 2)
	bySymbol := map[types.SymbolID]SymbolMetricsRecord{}
	for _, m := range snap.SymbolMetrics {
		bySymbol[m.SymbolID] = m
	}
	assert.Equal(t, 1, bySymbol["bar-id"].FanIn)
	assert.Equal(t, 1, bySymbol["foo-id"].FanOut)
}

func TestCollectOmitsMetricsByDefault(t *testing.T) {
	store := buildStore(t)
	snap := Collect(store, config.Export{})
	assert.Empty(t, snap.FileMetrics)
	assert.Empty(t, snap.SymbolMetrics)
}

func TestVerifyDriftReportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	require.NoError(t, os.WriteFile(path, []byte("fn foo() {}\n"), 0o644))

	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	store.FindOrCreateFile(types.FileFact{Path: path, ContentHash: "deadbeef"})

	drift, err := VerifyDrift(store)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, "content hash mismatch", drift[0].Reason)

	require.NoError(t, os.Remove(path))
	drift, err = VerifyDrift(store)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, "missing on disk", drift[0].Reason)
}
