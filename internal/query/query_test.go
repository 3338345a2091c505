package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/types"
)

// buildDiamondGraph wires main -> helper_a -> leaf, main -> helper_b ->
// leaf, and an unreachable unused_function -> leaf, mirroring the original
// implementation's own algorithms.rs test fixture.
func buildDiamondGraph(t *testing.T) *graphstore.Store {
	t.Helper()
	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	fileID := store.FindOrCreateFile(types.FileFact{Path: "src/lib.rs"})

	sym := func(name string) types.SymbolFact {
		return types.SymbolFact{SymbolID: types.SymbolID(name + "-id"), Name: name, FQN: "crate::" + name, Kind: types.KindFunction}
	}
	call := func(caller, callee string) types.CallFact {
		return types.CallFact{FilePath: "src/lib.rs", Caller: caller, Callee: callee,
			CallerSymbolID: types.SymbolID(caller + "-id"), CalleeSymbolID: types.SymbolID(callee + "-id")}
	}

	store.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{sym("main"), sym("helper_a"), sym("helper_b"), sym("leaf"), sym("unused_function")},
		Calls: []types.CallFact{
			call("main", "helper_a"),
			call("main", "helper_b"),
			call("helper_a", "leaf"),
			call("helper_b", "leaf"),
			call("unused_function", "leaf"),
		},
	})
	return store
}

func TestReachableSymbolsFromMain(t *testing.T) {
	store := buildDiamondGraph(t)
	infos, err := ReachableSymbols(store, "main-id")
	require.NoError(t, err)

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.FQN
	}
	assert.ElementsMatch(t, []string{"crate::helper_a", "crate::helper_b", "crate::leaf"}, names)
}

func TestReverseReachableSymbolsFromLeaf(t *testing.T) {
	store := buildDiamondGraph(t)
	infos, err := ReverseReachableSymbols(store, "leaf-id")
	require.NoError(t, err)

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.FQN
	}
	assert.ElementsMatch(t, []string{"crate::main", "crate::helper_a", "crate::helper_b", "crate::unused_function"}, names)
}

func TestDeadSymbolsFromMain(t *testing.T) {
	store := buildDiamondGraph(t)
	dead, err := DeadSymbols(store, "main-id")
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "crate::unused_function", dead[0].Symbol.FQN)
	assert.Equal(t, "unreachable from entry point", dead[0].Reason)
}

func TestDetectCyclesFindsMutualRecursion(t *testing.T) {
	store := graphstore.NewStore(graphstore.NewMemoryBackend())
	fileID := store.FindOrCreateFile(types.FileFact{Path: "src/lib.rs"})
	store.InsertFileFacts(fileID, types.FileFacts{
		Symbols: []types.SymbolFact{
			{SymbolID: "a-id", Name: "a", FQN: "crate::a", Kind: types.KindFunction},
			{SymbolID: "b-id", Name: "b", FQN: "crate::b", Kind: types.KindFunction},
		},
		Calls: []types.CallFact{
			{FilePath: "src/lib.rs", Caller: "a", Callee: "b", CallerSymbolID: "a-id", CalleeSymbolID: "b-id"},
			{FilePath: "src/lib.rs", Caller: "b", Callee: "a", CallerSymbolID: "b-id", CalleeSymbolID: "a-id"},
		},
	})

	report, err := DetectCycles(store)
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalCount)
	assert.Len(t, report.Cycles[0].Members, 2)
	assert.Equal(t, MutualRecursion, report.Cycles[0].Kind)
}

func TestDetectCyclesHasNoCyclesInDiamondGraph(t *testing.T) {
	store := buildDiamondGraph(t)
	report, err := DetectCycles(store)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalCount)
}

func TestCondenseCallGraphIsAcyclicOverDiamond(t *testing.T) {
	store := buildDiamondGraph(t)
	result, err := CondenseCallGraph(store)
	require.NoError(t, err)
	assert.Len(t, result.Graph.Supernodes, 5)
	assert.Contains(t, result.OriginalToSupernode, "main-id")
}

func TestBackwardSliceFromLeafIncludesAllCallers(t *testing.T) {
	store := buildDiamondGraph(t)
	result, err := BackwardSlice(store, "leaf-id")
	require.NoError(t, err)
	assert.Equal(t, Backward, result.Slice.Direction)
	assert.Equal(t, 4, result.Slice.SymbolCount)
	assert.Equal(t, 0, result.Statistics.DataDependencies)
}

func TestForwardSliceFromMainIncludesAllCallees(t *testing.T) {
	store := buildDiamondGraph(t)
	result, err := ForwardSlice(store, "main-id")
	require.NoError(t, err)
	assert.Equal(t, Forward, result.Slice.Direction)
	assert.Equal(t, 3, result.Slice.SymbolCount)
}

func TestEnumeratePathsFromMainToLeaf(t *testing.T) {
	store := buildDiamondGraph(t)
	end := "leaf-id"
	result, err := EnumeratePaths(store, "main-id", &end, 10, 100, 100)
	require.NoError(t, err)
	assert.Len(t, result.Paths, 2)
	assert.False(t, result.BoundedHit)
	for _, p := range result.Paths {
		assert.Equal(t, "crate::leaf", p.Symbols[len(p.Symbols)-1].FQN)
		assert.Equal(t, "crate::main", p.Symbols[0].FQN)
	}
}

func TestEnumeratePathsRespectsMaxPathsBound(t *testing.T) {
	store := buildDiamondGraph(t)
	result, err := EnumeratePaths(store, "main-id", nil, 10, 1, 100)
	require.NoError(t, err)
	assert.Len(t, result.Paths, 1)
	assert.True(t, result.BoundedHit)
}

func TestEnumeratePathsUnknownSymbolErrors(t *testing.T) {
	store := buildDiamondGraph(t)
	_, err := EnumeratePaths(store, "does-not-exist", nil, 10, 10, 10)
	assert.Error(t, err)
}
