package graphstore

import "github.com/oldnordic/magellan/internal/types"

// linkDisplayName implements the ambiguity model (spec section 5): every
// Symbol is linked, via an alias_of edge, to a DisplayName node shared by
// every other Symbol with the same display FQN. Group creation is
// idempotent, the first Symbol with a given display FQN creates the
// DisplayName node, every subsequent one reuses it.
func (s *Store) linkDisplayName(displayFQN string, symbolID NodeID) {
	if displayFQN == "" {
		return
	}
	nameID, ok := s.displayNames[displayFQN]
	if !ok {
		nameID = s.backend.CreateNode(types.NodeDisplayName, displayFQN)
		s.displayNames[displayFQN] = nameID
	}
	s.backend.CreateEdge(symbolID, nameID, types.EdgeAliasOf)
}

// ResolveByDisplayFQN returns every Symbol node ID sharing displayFQN
// (spec section 5: resolving by display FQN returns the full candidate
// set, unlike symbol_id resolution which returns a single match).
func (s *Store) ResolveByDisplayFQN(displayFQN string) []NodeID {
	nameID, ok := s.displayNames[displayFQN]
	if !ok {
		return nil
	}
	return s.backend.Neighbors(nameID, NeighborQuery{Direction: types.DirIn, EdgeKind: edgeKindPtr(types.EdgeAliasOf)})
}

// ResolveBySymbolID scans Symbol nodes for one whose SymbolID matches,
// returning the first exact match since symbol_id is guaranteed unique,
// or false when none matches. It does no FQN/DisplayFQN/CanonicalFQN
// fallback itself; ResolveByAnyFQN covers those lookups.
func (s *Store) ResolveBySymbolID(id types.SymbolID) (types.SymbolFact, NodeID, bool) {
	for _, n := range s.backend.NodesByKind(types.NodeSymbol) {
		sym, ok := n.Payload.(types.SymbolFact)
		if ok && sym.SymbolID == id {
			return sym, n.ID, true
		}
	}
	return types.SymbolFact{}, 0, false
}

// ResolveByAnyFQN falls back through {fqn, display_fqn, canonical_fqn} in
// that order (spec section 5), returning every Symbol matching the first
// field that has any match.
func (s *Store) ResolveByAnyFQN(fqn string) []types.SymbolFact {
	var fqnMatches, displayMatches, canonicalMatches []types.SymbolFact
	for _, n := range s.backend.NodesByKind(types.NodeSymbol) {
		sym, ok := n.Payload.(types.SymbolFact)
		if !ok {
			continue
		}
		if sym.FQN == fqn {
			fqnMatches = append(fqnMatches, sym)
		}
		if sym.DisplayFQN == fqn {
			displayMatches = append(displayMatches, sym)
		}
		if sym.CanonicalFQN == fqn {
			canonicalMatches = append(canonicalMatches, sym)
		}
	}
	if len(fqnMatches) > 0 {
		return fqnMatches
	}
	if len(displayMatches) > 0 {
		return displayMatches
	}
	return canonicalMatches
}
