package query

import (
	"fmt"
	"sort"

	"github.com/oldnordic/magellan/internal/graphstore"
)

// DeadSymbol pairs a SymbolInfo with why it was flagged unreachable (spec
// 4.7's dead-code detection).
type DeadSymbol struct {
	Symbol SymbolInfo
	Reason string
}

// ReachableSymbols returns every symbol reachable from symbolIDOrFQN by
// following CALLS edges forward, excluding the starting symbol itself,
// sorted deterministically.
func ReachableSymbols(store *graphstore.Store, symbolIDOrFQN string) ([]SymbolInfo, error) {
	_, start, ok := resolveSymbolEntity(store, symbolIDOrFQN)
	if !ok {
		return nil, fmt.Errorf("query: symbol %q not found", symbolIDOrFQN)
	}
	g := buildCallGraph(store)
	visited := bfs(g.out, start)
	return collectInfos(g, visited, start), nil
}

// ReverseReachableSymbols returns every symbol that can reach symbolIDOrFQN
// by following CALLS edges backward (i.e. every direct or indirect
// caller), excluding the target itself, sorted deterministically.
func ReverseReachableSymbols(store *graphstore.Store, symbolIDOrFQN string) ([]SymbolInfo, error) {
	_, start, ok := resolveSymbolEntity(store, symbolIDOrFQN)
	if !ok {
		return nil, fmt.Errorf("query: symbol %q not found", symbolIDOrFQN)
	}
	g := buildCallGraph(store)
	visited := bfs(g.in, start)
	return collectInfos(g, visited, start), nil
}

func collectInfos(g *callGraph, visited map[graphstore.NodeID]bool, exclude graphstore.NodeID) []SymbolInfo {
	var out []SymbolInfo
	for id := range visited {
		if id == exclude {
			continue
		}
		if info, ok := g.symbolInfo(id); ok {
			out = append(out, info)
		}
	}
	sortSymbolInfos(out)
	return out
}

// DeadSymbols returns every symbol in the call graph that is not reachable
// from entrySymbolIDOrFQN (spec 4.7: dead-code detection, call-graph only,
// symbols invoked only via reflection, function pointers, or dynamic
// dispatch are not modeled and may be misreported as dead).
func DeadSymbols(store *graphstore.Store, entrySymbolIDOrFQN string) ([]DeadSymbol, error) {
	_, entry, ok := resolveSymbolEntity(store, entrySymbolIDOrFQN)
	if !ok {
		return nil, fmt.Errorf("query: symbol %q not found", entrySymbolIDOrFQN)
	}
	g := buildCallGraph(store)
	reachable := bfs(g.out, entry)

	var dead []DeadSymbol
	for _, id := range g.symbols {
		if id == entry || reachable[id] {
			continue
		}
		info, ok := g.symbolInfo(id)
		if !ok {
			continue
		}
		dead = append(dead, DeadSymbol{Symbol: info, Reason: "unreachable from entry point"})
	}
	sort.Slice(dead, func(i, j int) bool {
		a, b := dead[i].Symbol, dead[j].Symbol
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.FQN != b.FQN {
			return a.FQN < b.FQN
		}
		return a.Kind < b.Kind
	})
	return dead, nil
}
