package graphstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/types"
)

func newTestStore() *Store {
	return NewStore(NewMemoryBackend())
}

func TestFindOrCreateFileIsIdempotent(t *testing.T) {
	s := newTestStore()
	id1 := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs", ContentHash: "h1"})
	id2 := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs", ContentHash: "h1"})
	assert.Equal(t, id1, id2)
}

func TestInsertFileFactsWiresCallerAndCallsEdges(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})

	foo := types.SymbolFact{SymbolID: "foo-id", Name: "foo", FQN: "crate::foo", DisplayFQN: "crate::foo", Kind: types.KindFunction}
	bar := types.SymbolFact{SymbolID: "bar-id", Name: "bar", FQN: "crate::bar", DisplayFQN: "crate::bar", Kind: types.KindFunction}
	call := types.CallFact{FilePath: "src/a.rs", Caller: "foo", Callee: "bar", CallerSymbolID: "foo-id", CalleeSymbolID: "bar-id"}

	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{foo, bar},
		Calls:   []types.CallFact{call},
	})

	fooSym, fooID, found := s.ResolveBySymbolID("foo-id")
	require.True(t, found)
	assert.Equal(t, "foo", fooSym.Name)

	callIDs := s.Neighbors(fooID, NeighborQuery{Direction: types.DirOut, EdgeKind: edgeKindPtr(types.EdgeCaller)})
	require.Len(t, callIDs, 1)

	_, barID, found := s.ResolveBySymbolID("bar-id")
	require.True(t, found)
	calleeIDs := s.Neighbors(callIDs[0], NeighborQuery{Direction: types.DirOut, EdgeKind: edgeKindPtr(types.EdgeCalls)})
	require.Len(t, calleeIDs, 1)
	assert.Equal(t, barID, calleeIDs[0])
}

func TestDeleteFileFactsRemovesEverythingDefinedByFile(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})
	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{
			{SymbolID: "foo-id", Name: "foo", DisplayFQN: "crate::foo"},
		},
		References: []types.ReferenceFact{
			{FilePath: "src/a.rs", ReferencedName: "foo", SymbolID: "foo-id"},
		},
	})

	before := s.backend.EntityCount()
	assert.True(t, before > 0)

	result := s.DeleteFileFacts("src/a.rs")
	assert.Equal(t, 1, result.SymbolsDeleted)
	assert.Equal(t, 1, result.ReferencesDeleted)
	assert.False(t, result.IsEmpty())

	_, _, found := s.ResolveBySymbolID("foo-id")
	assert.False(t, found)

	// Deleting an already-gone file is a no-op, not a panic.
	assert.NotPanics(t, func() {
		result := s.DeleteFileFacts("src/a.rs")
		assert.True(t, result.IsEmpty())
	})
}

func TestDisplayNameAmbiguityGrouping(t *testing.T) {
	s := newTestStore()
	fileA := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})
	fileB := s.FindOrCreateFile(types.FileFact{Path: "src/b.rs"})

	s.InsertFileFacts(fileA, types.FileFacts{Symbols: []types.SymbolFact{
		{SymbolID: "a-id", Name: "process", DisplayFQN: "crate::process"},
	}})
	s.InsertFileFacts(fileB, types.FileFacts{Symbols: []types.SymbolFact{
		{SymbolID: "b-id", Name: "process", DisplayFQN: "crate::process"},
	}})

	candidates := s.ResolveByDisplayFQN("crate::process")
	assert.Len(t, candidates, 2)
}

func TestEntityIDsSortedAscending(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})
	s.InsertFileFacts(fileID, types.FileFacts{Symbols: []types.SymbolFact{
		{SymbolID: "x", Name: "x"},
		{SymbolID: "y", Name: "y"},
	}})

	ids := s.EntityIDs()
	require.True(t, len(ids) >= 3)
	for i := 1; i < len(ids); i++ {
		assert.True(t, ids[i-1] < ids[i])
	}
}

func TestDeleteFileFactsTearsDownChunksAndCFGBlocks(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})
	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{{SymbolID: "foo-id", Name: "foo", DisplayFQN: "crate::foo"}},
		Chunks: []types.ChunkFact{
			{FilePath: "src/a.rs", SymbolID: "foo-id", Source: "fn foo() {}"},
		},
		CFGBlocks: []types.CFGBlockFact{
			{FilePath: "src/a.rs", SymbolID: "foo-id", BlockKind: "if"},
		},
	})

	result := s.DeleteFileFacts("src/a.rs")
	assert.Equal(t, 1, result.ChunksDeleted)
	assert.Equal(t, 1, result.CFGBlocksDeleted)
}

func TestSymbolMetricsReflectsFanInFanOutAndComplexity(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})

	foo := types.SymbolFact{SymbolID: "foo-id", Name: "foo", DisplayFQN: "crate::foo", Span: types.Span{StartLine: 1, EndLine: 3}}
	bar := types.SymbolFact{SymbolID: "bar-id", Name: "bar", DisplayFQN: "crate::bar", Span: types.Span{StartLine: 4, EndLine: 4}}
	call := types.CallFact{FilePath: "src/a.rs", Caller: "foo", Callee: "bar", CallerSymbolID: "foo-id", CalleeSymbolID: "bar-id"}

	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{foo, bar},
		Calls:   []types.CallFact{call},
		CFGBlocks: []types.CFGBlockFact{
			{FilePath: "src/a.rs", SymbolID: "foo-id", BlockKind: "if"},
		},
	})

	_, fooID, found := s.ResolveBySymbolID("foo-id")
	require.True(t, found)
	fooMetrics, ok := s.SymbolMetrics(fooID)
	require.True(t, ok)
	assert.Equal(t, 0, fooMetrics.FanIn)
	assert.Equal(t, 1, fooMetrics.FanOut)
	assert.Equal(t, 3, fooMetrics.LOC)
	assert.Equal(t, 2, fooMetrics.Complexity)

	_, barID, found := s.ResolveBySymbolID("bar-id")
	require.True(t, found)
	barMetrics, ok := s.SymbolMetrics(barID)
	require.True(t, ok)
	assert.Equal(t, 1, barMetrics.FanIn)
	assert.Equal(t, 0, barMetrics.FanOut)
}

func TestFileMetricsReportsLOCAndSymbolCount(t *testing.T) {
	s := newTestStore()
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs", LOC: 10})
	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{{SymbolID: "foo-id", Name: "foo", DisplayFQN: "crate::foo"}},
	})

	m, ok := s.FileMetrics("src/a.rs")
	require.True(t, ok)
	assert.Equal(t, 10, m.LOC)
	assert.Equal(t, 1, m.SymbolCount)
}

func TestMigrateBringsNewStoreToCurrentVersion(t *testing.T) {
	s := newTestStore()
	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion())
	require.NoError(t, s.Migrate())

	_, ok := s.LastMigrationBackup()
	assert.False(t, ok, "an already-current store should never take a backup")
}

func TestMigrateWalksFromOlderVersionAndTakesBackup(t *testing.T) {
	s := NewStoreAtVersion(NewMemoryBackend(), 2)
	fileID := s.FindOrCreateFile(types.FileFact{Path: "src/a.rs"})
	s.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{{SymbolID: "foo-id", Name: "foo", DisplayFQN: "crate::foo"}},
	})

	assert.Equal(t, 2, s.SchemaVersion())
	require.NoError(t, s.Migrate())
	assert.Equal(t, CurrentSchemaVersion, s.SchemaVersion())

	backup, ok := s.LastMigrationBackup()
	require.True(t, ok)
	assert.Equal(t, 2, backup.FromVersion)
	assert.Equal(t, CurrentSchemaVersion, backup.ToVersion)
	assert.False(t, backup.At.IsZero())
	assert.NotEmpty(t, backup.Nodes)

	// Migrating an already-current store is a no-op and takes no new
	// backup.
	require.NoError(t, s.Migrate())
}

func TestMigrateRejectsNewerThanSupportedVersion(t *testing.T) {
	s := NewStoreAtVersion(NewMemoryBackend(), CurrentSchemaVersion+1)
	assert.Error(t, s.Migrate())
}
