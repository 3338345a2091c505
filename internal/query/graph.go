// Package query implements the call-graph analyses described in spec
// section 4.7: reachability (forward/reverse), dead-code detection, cycle
// detection via SCC, condensation to a DAG, program slicing, and bounded
// path enumeration. Every algorithm here treats Call nodes as the edge
// carrier they are (Symbol --CALLER--> Call --CALLS--> Symbol, spec 4.5)
// and collapses them into a direct symbol-to-symbol adjacency before
// running graph algorithms, since a Call node with unresolved caller or
// callee contributes no edge.
//
// Ported from the original implementation's graph/algorithms.rs, which
// built on sqlitegraph's algo package (reachable_from,
// strongly_connected_components, collapse_sccs, enumerate_paths). This
// rebuild has no such algorithm library in its dependency surface, so each
// algorithm is restated directly over graphstore.Store's Neighbors/
// NodesByKind primitives.
package query

import (
	"sort"

	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/types"
)

// SymbolInfo is the query-result projection of a Symbol node (spec 4.7):
// just enough to identify and sort a symbol in an analysis result, mirroring
// the original implementation's SymbolInfo.
type SymbolInfo struct {
	SymbolID types.SymbolID
	FQN      string
	FilePath string
	Kind     types.SymbolKind

	node graphstore.NodeID
}

func symbolInfoOf(id graphstore.NodeID, sym types.SymbolFact) SymbolInfo {
	return SymbolInfo{
		SymbolID: sym.SymbolID,
		FQN:      sym.FQN,
		FilePath: sym.FilePath,
		Kind:     sym.Kind,
		node:     id,
	}
}

// sortSymbolInfos sorts by (file_path, fqn, kind) ascending, the
// deterministic order every analysis in this package returns results in
// (ported from algorithms.rs's repeated sort_by calls).
func sortSymbolInfos(infos []SymbolInfo) {
	sort.Slice(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.FQN != b.FQN {
			return a.FQN < b.FQN
		}
		return a.Kind < b.Kind
	})
}

// callGraph is the symbol-to-symbol adjacency derived from every Call node
// in the store, built once per query call. It is intentionally not cached
// on Store: callers doing many analyses in a row should build one and reuse
// it via the lower-level functions in this package if that cost matters.
type callGraph struct {
	store   *graphstore.Store
	out     map[graphstore.NodeID][]graphstore.NodeID
	in      map[graphstore.NodeID][]graphstore.NodeID
	symbols []graphstore.NodeID
	info    map[graphstore.NodeID]types.SymbolFact
}

func buildCallGraph(store *graphstore.Store) *callGraph {
	g := &callGraph{
		store: store,
		out:   make(map[graphstore.NodeID][]graphstore.NodeID),
		in:    make(map[graphstore.NodeID][]graphstore.NodeID),
		info:  make(map[graphstore.NodeID]types.SymbolFact),
	}

	for _, n := range store.NodesByKind(types.NodeSymbol) {
		sym, ok := n.Payload.(types.SymbolFact)
		if !ok {
			continue
		}
		g.symbols = append(g.symbols, n.ID)
		g.info[n.ID] = sym
	}

	callerKind := types.EdgeCaller
	callsKind := types.EdgeCalls
	for _, n := range store.NodesByKind(types.NodeCall) {
		callerIDs := store.Neighbors(n.ID, graphstore.NeighborQuery{Direction: types.DirIn, EdgeKind: &callerKind})
		calleeIDs := store.Neighbors(n.ID, graphstore.NeighborQuery{Direction: types.DirOut, EdgeKind: &callsKind})
		for _, callerID := range callerIDs {
			for _, calleeID := range calleeIDs {
				g.out[callerID] = append(g.out[callerID], calleeID)
				g.in[calleeID] = append(g.in[calleeID], callerID)
			}
		}
	}

	return g
}

func (g *callGraph) symbolInfo(id graphstore.NodeID) (SymbolInfo, bool) {
	sym, ok := g.info[id]
	if !ok {
		return SymbolInfo{}, false
	}
	return symbolInfoOf(id, sym), true
}

// resolveSymbolEntity resolves idOrFQN to its Symbol node, first by exact
// symbol_id, then falling back to {fqn, display_fqn, canonical_fqn} in that
// order (spec section 5's lookup precedence), returning the first match in
// store insertion order, mirroring the original implementation's
// resolve_symbol_entity, which returns a single row even when multiple
// symbols share a display FQN.
func resolveSymbolEntity(store *graphstore.Store, idOrFQN string) (types.SymbolFact, graphstore.NodeID, bool) {
	if sym, id, ok := store.ResolveBySymbolID(types.SymbolID(idOrFQN)); ok {
		return sym, id, true
	}

	nodes := store.NodesByKind(types.NodeSymbol)
	for _, field := range []func(types.SymbolFact) string{
		func(s types.SymbolFact) string { return s.FQN },
		func(s types.SymbolFact) string { return s.DisplayFQN },
		func(s types.SymbolFact) string { return s.CanonicalFQN },
	} {
		for _, n := range nodes {
			sym, ok := n.Payload.(types.SymbolFact)
			if ok && field(sym) == idOrFQN {
				return sym, n.ID, true
			}
		}
	}
	return types.SymbolFact{}, 0, false
}

func bfs(adj map[graphstore.NodeID][]graphstore.NodeID, start graphstore.NodeID) map[graphstore.NodeID]bool {
	visited := map[graphstore.NodeID]bool{start: true}
	queue := []graphstore.NodeID{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}
