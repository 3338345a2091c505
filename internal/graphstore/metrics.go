package graphstore

import "github.com/oldnordic/magellan/internal/types"

// FileMetrics computes the file_metrics side-table row for path (spec
// section 3): LOC captured at index time plus how many symbols the file
// currently defines.
func (s *Store) FileMetrics(path string) (types.FileMetrics, bool) {
	id, ok := s.fileIndex[path]
	if !ok {
		return types.FileMetrics{}, false
	}
	node, ok := s.backend.GetNode(id)
	if !ok {
		return types.FileMetrics{}, false
	}
	fact, ok := node.Payload.(types.FileFact)
	if !ok {
		return types.FileMetrics{}, false
	}

	symbolIDs := s.backend.Neighbors(id, NeighborQuery{Direction: types.DirOut, EdgeKind: edgeKindPtr(types.EdgeDefines)})
	return types.FileMetrics{Path: path, LOC: fact.LOC, SymbolCount: len(symbolIDs)}, true
}

// SymbolMetrics computes the symbol_metrics side-table row for the Symbol
// node id (spec section 3): fan-in/out derived from CALLER/CALLS edges,
// LOC from the symbol's own span, and complexity from its cfg_blocks rows
// (one past-the-base-path block adds one to complexity, matching a plain
// cyclomatic count).
func (s *Store) SymbolMetrics(id NodeID) (types.SymbolMetrics, bool) {
	node, ok := s.backend.GetNode(id)
	if !ok || node.Kind != types.NodeSymbol {
		return types.SymbolMetrics{}, false
	}
	fact, ok := node.Payload.(types.SymbolFact)
	if !ok {
		return types.SymbolMetrics{}, false
	}

	fanIn := len(s.backend.Neighbors(id, NeighborQuery{Direction: types.DirIn, EdgeKind: edgeKindPtr(types.EdgeCalls)}))
	fanOut := len(s.backend.Neighbors(id, NeighborQuery{Direction: types.DirOut, EdgeKind: edgeKindPtr(types.EdgeCaller)}))
	blocks := len(s.backend.Neighbors(id, NeighborQuery{Direction: types.DirOut, EdgeKind: edgeKindPtr(types.EdgeHasCFGBlock)}))

	return types.SymbolMetrics{
		SymbolID:   fact.SymbolID,
		FanIn:      fanIn,
		FanOut:     fanOut,
		LOC:        fact.Span.EndLine - fact.Span.StartLine + 1,
		Complexity: blocks + 1,
	}, true
}

// AllSymbolMetrics computes SymbolMetrics for every currently-stored Symbol
// node. Callers sort the result for deterministic output (spec section 5);
// this returns backend iteration order.
func (s *Store) AllSymbolMetrics() []types.SymbolMetrics {
	var out []types.SymbolMetrics
	for _, n := range s.backend.NodesByKind(types.NodeSymbol) {
		if m, ok := s.SymbolMetrics(n.ID); ok {
			out = append(out, m)
		}
	}
	return out
}
