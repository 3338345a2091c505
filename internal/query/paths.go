package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/types"
)

// ExecutionPath is one call-graph path from a starting symbol, in call
// order.
type ExecutionPath struct {
	Symbols []SymbolInfo
	Length  int
}

// PathStatistics summarizes a PathEnumerationResult.
type PathStatistics struct {
	AvgLength     float64
	MinLength     int
	MaxLength     int
	UniqueSymbols int
}

// PathEnumerationResult is the result of EnumeratePaths.
type PathEnumerationResult struct {
	Paths           []ExecutionPath
	TotalEnumerated int
	BoundedHit      bool
	Statistics      PathStatistics
}

// EnumeratePaths runs a bounded DFS over the call graph from startIDOrFQN,
// stopping each branch when it reaches endIDOrFQN (if non-nil), a node it
// has already visited revisitCap times on this branch, or maxDepth edges,
// whichever comes first, and keeps at most maxPaths discovered paths
// (spec 4.7).
//
// When endIDOrFQN is nil, a path is recorded at every branch that reaches a
// dead end (a node with no further extendable outgoing call edges): this
// rebuild's resolution of the original algorithm's documented-but-unspecified
// behavior for unbounded endpoint enumeration (an open question in the
// original's own doc comments), chosen because it is the only interpretation
// of "enumerate all paths from start" that terminates without an explicit
// target and still reports every distinct maximal call chain. When
// endIDOrFQN is non-nil, only paths that reach it are recorded.
func EnumeratePaths(store *graphstore.Store, startIDOrFQN string, endIDOrFQN *string, maxDepth, maxPaths, revisitCap int) (PathEnumerationResult, error) {
	_, start, ok := resolveSymbolEntity(store, startIDOrFQN)
	if !ok {
		return PathEnumerationResult{}, fmt.Errorf("query: symbol %q not found", startIDOrFQN)
	}

	var end *graphstore.NodeID
	if endIDOrFQN != nil {
		_, endNode, ok := resolveSymbolEntity(store, *endIDOrFQN)
		if !ok {
			return PathEnumerationResult{}, fmt.Errorf("query: symbol %q not found", *endIDOrFQN)
		}
		end = &endNode
	}

	g := buildCallGraph(store)
	e := &pathEnumerator{
		g:           g,
		end:         end,
		maxDepth:    maxDepth,
		maxPaths:    maxPaths,
		revisitCap:  revisitCap,
		visitCount:  make(map[graphstore.NodeID]int),
	}
	e.visitCount[start] = 1
	e.dfs([]graphstore.NodeID{start})

	sort.Slice(e.paths, func(i, j int) bool {
		if e.paths[i].Length != e.paths[j].Length {
			return e.paths[i].Length < e.paths[j].Length
		}
		return pathSignature(e.paths[i]) < pathSignature(e.paths[j])
	})

	return PathEnumerationResult{
		Paths:           e.paths,
		TotalEnumerated: e.totalEnumerated,
		BoundedHit:      e.boundedHit,
		Statistics:      computePathStatistics(e.paths),
	}, nil
}

type pathEnumerator struct {
	g          *callGraph
	end        *graphstore.NodeID
	maxDepth   int
	maxPaths   int
	revisitCap int
	visitCount map[graphstore.NodeID]int

	paths           []ExecutionPath
	totalEnumerated int
	boundedHit      bool
}

func (e *pathEnumerator) dfs(path []graphstore.NodeID) {
	if len(e.paths) >= e.maxPaths {
		e.boundedHit = true
		return
	}

	cur := path[len(path)-1]
	atEnd := e.end != nil && cur == *e.end
	atDepthLimit := len(path)-1 >= e.maxDepth

	var extendable []graphstore.NodeID
	if !atEnd && !atDepthLimit {
		for _, n := range e.g.out[cur] {
			if e.visitCount[n] < e.revisitCap {
				extendable = append(extendable, n)
			}
		}
	}
	if atDepthLimit && len(e.g.out[cur]) > 0 {
		e.boundedHit = true
	}

	if atEnd || len(extendable) == 0 {
		if e.end != nil && !atEnd {
			return
		}
		e.totalEnumerated++
		e.paths = append(e.paths, e.buildExecutionPath(path))
		return
	}

	for _, n := range extendable {
		e.visitCount[n]++
		e.dfs(append(path, n))
		e.visitCount[n]--
	}
}

func (e *pathEnumerator) buildExecutionPath(path []graphstore.NodeID) ExecutionPath {
	symbols := make([]SymbolInfo, 0, len(path))
	for _, id := range path {
		if info, ok := e.g.symbolInfo(id); ok {
			symbols = append(symbols, info)
		}
	}
	return ExecutionPath{Symbols: symbols, Length: len(symbols)}
}

func pathSignature(p ExecutionPath) string {
	parts := make([]string, len(p.Symbols))
	for i, s := range p.Symbols {
		parts[i] = s.FQN
	}
	return strings.Join(parts, "->")
}

func computePathStatistics(paths []ExecutionPath) PathStatistics {
	if len(paths) == 0 {
		return PathStatistics{}
	}
	minLen, maxLen, total := paths[0].Length, paths[0].Length, 0
	unique := make(map[types.SymbolID]struct{})
	for _, p := range paths {
		if p.Length < minLen {
			minLen = p.Length
		}
		if p.Length > maxLen {
			maxLen = p.Length
		}
		total += p.Length
		for _, s := range p.Symbols {
			unique[s.SymbolID] = struct{}{}
		}
	}
	return PathStatistics{
		AvgLength:     float64(total) / float64(len(paths)),
		MinLength:     minLen,
		MaxLength:     maxLen,
		UniqueSymbols: len(unique),
	}
}
