package query

import (
	"fmt"

	"github.com/oldnordic/magellan/internal/graphstore"
)

// SliceDirection distinguishes a backward slice (what affects a symbol)
// from a forward slice (what a symbol affects).
type SliceDirection int

const (
	Backward SliceDirection = iota
	Forward
)

// ProgramSlice is the set of symbols included in a slice (spec 4.7).
type ProgramSlice struct {
	Target          SymbolInfo
	Direction       SliceDirection
	IncludedSymbols []SymbolInfo
	SymbolCount     int
}

// SliceStatistics summarizes a slice. DataDependencies is always 0: this
// rebuild, like the original, only has a call graph to slice on, full
// data-flow slicing needs a control/data dependence graph neither
// implementation builds (spec 4.7's Non-goal on full CFG-based slicing).
type SliceStatistics struct {
	TotalSymbols       int
	DataDependencies   int
	ControlDependencies int
}

// SliceResult wraps a ProgramSlice with its statistics.
type SliceResult struct {
	Slice      ProgramSlice
	Statistics SliceStatistics
}

// BackwardSlice returns every symbol that can reach symbolIDOrFQN through
// the call graph, i.e. everything that could influence its behavior, as
// a call-graph reachability fallback for full program slicing.
func BackwardSlice(store *graphstore.Store, symbolIDOrFQN string) (SliceResult, error) {
	return slice(store, symbolIDOrFQN, Backward)
}

// ForwardSlice returns every symbol symbolIDOrFQN can reach through the
// call graph, i.e. everything it could affect.
func ForwardSlice(store *graphstore.Store, symbolIDOrFQN string) (SliceResult, error) {
	return slice(store, symbolIDOrFQN, Forward)
}

func slice(store *graphstore.Store, symbolIDOrFQN string, dir SliceDirection) (SliceResult, error) {
	sym, start, ok := resolveSymbolEntity(store, symbolIDOrFQN)
	if !ok {
		return SliceResult{}, fmt.Errorf("query: symbol %q not found", symbolIDOrFQN)
	}
	g := buildCallGraph(store)

	adj := g.in
	if dir == Forward {
		adj = g.out
	}
	visited := bfs(adj, start)
	included := collectInfos(g, visited, start)

	return SliceResult{
		Slice: ProgramSlice{
			Target:          symbolInfoOf(start, sym),
			Direction:       dir,
			IncludedSymbols: included,
			SymbolCount:     len(included),
		},
		Statistics: SliceStatistics{
			TotalSymbols:        len(included),
			DataDependencies:    0,
			ControlDependencies: len(included),
		},
	}, nil
}
