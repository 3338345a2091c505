package query

import (
	"fmt"
	"sort"

	"github.com/oldnordic/magellan/internal/graphstore"
)

// CycleKind classifies a detected cycle (spec 4.7).
type CycleKind int

const (
	MutualRecursion CycleKind = iota
	SelfLoop
)

func (k CycleKind) String() string {
	if k == SelfLoop {
		return "SelfLoop"
	}
	return "MutualRecursion"
}

// Cycle is one strongly connected component with more than one member, or
// a single self-calling symbol.
type Cycle struct {
	Members []SymbolInfo
	Kind    CycleKind
}

// CycleReport is the result of DetectCycles.
type CycleReport struct {
	Cycles     []Cycle
	TotalCount int
}

// Supernode is one SCC collapsed into a single node of the condensation DAG.
type Supernode struct {
	ID      int
	Members []SymbolInfo
}

// CondensationGraph is the call graph after collapsing every SCC into a
// Supernode, always acyclic.
type CondensationGraph struct {
	Supernodes []Supernode
	Edges      [][2]int // (from supernode ID, to supernode ID)
}

// CondensationResult wires each original symbol to the supernode containing
// it, alongside the condensed DAG itself.
type CondensationResult struct {
	Graph              CondensationGraph
	OriginalToSupernode map[string]int
}

// tarjanSCC runs Tarjan's strongly-connected-components algorithm over g's
// forward adjacency, returning one []NodeID per component (the original's
// sqlitegraph dependency is not in this rebuild's stack, so SCC
// decomposition is restated directly as plain recursive Tarjan).
func tarjanSCC(g *callGraph) [][]graphstore.NodeID {
	index := make(map[graphstore.NodeID]int)
	lowlink := make(map[graphstore.NodeID]int)
	onStack := make(map[graphstore.NodeID]bool)
	var stack []graphstore.NodeID
	var components [][]graphstore.NodeID
	counter := 0

	var strongconnect func(v graphstore.NodeID)
	strongconnect = func(v graphstore.NodeID) {
		index[v] = counter
		lowlink[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.out[v] {
			if _, seen := index[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] == index[v] {
			var component []graphstore.NodeID
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	for _, id := range g.symbols {
		if _, seen := index[id]; !seen {
			strongconnect(id)
		}
	}
	return components
}

func hasSelfLoop(g *callGraph, id graphstore.NodeID) bool {
	for _, next := range g.out[id] {
		if next == id {
			return true
		}
	}
	return false
}

// DetectCycles finds every strongly connected component with more than one
// member (mutual recursion) plus every single-node component with a direct
// self-loop, sorted by the first member's FQN (spec 4.7).
func DetectCycles(store *graphstore.Store) (CycleReport, error) {
	g := buildCallGraph(store)
	components := tarjanSCC(g)

	var cycles []Cycle
	for _, comp := range components {
		kind := MutualRecursion
		if len(comp) == 1 {
			if !hasSelfLoop(g, comp[0]) {
				continue
			}
			kind = SelfLoop
		}
		var members []SymbolInfo
		for _, id := range comp {
			if info, ok := g.symbolInfo(id); ok {
				members = append(members, info)
			}
		}
		if len(members) == 0 {
			continue
		}
		cycles = append(cycles, Cycle{Members: members, Kind: kind})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return firstFQN(cycles[i]) < firstFQN(cycles[j])
	})

	return CycleReport{Cycles: cycles, TotalCount: len(cycles)}, nil
}

func firstFQN(c Cycle) string {
	if len(c.Members) == 0 {
		return ""
	}
	return c.Members[0].FQN
}

// FindCyclesContaining returns the cycle (MutualRecursion SCC) containing
// symbolIDOrFQN, or nil if that symbol's component has only one member; a
// lone self-loop is not reported here (DetectCycles reports it as SelfLoop).
func FindCyclesContaining(store *graphstore.Store, symbolIDOrFQN string) ([]Cycle, error) {
	_, target, ok := resolveSymbolEntity(store, symbolIDOrFQN)
	if !ok {
		return nil, fmt.Errorf("query: symbol %q not found", symbolIDOrFQN)
	}
	g := buildCallGraph(store)
	components := tarjanSCC(g)

	for _, comp := range components {
		found := false
		for _, id := range comp {
			if id == target {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		if len(comp) <= 1 {
			return nil, nil
		}
		var members []SymbolInfo
		for _, id := range comp {
			if info, ok := g.symbolInfo(id); ok {
				members = append(members, info)
			}
		}
		return []Cycle{{Members: members, Kind: MutualRecursion}}, nil
	}
	return nil, nil
}

// CondenseCallGraph collapses every SCC into a Supernode, producing an
// always-acyclic condensation DAG plus the symbol_id -> supernode mapping
// (spec 4.7). Supernode IDs are stable within a single call (assigned in
// Tarjan finish order) but are not persisted across store mutations.
func CondenseCallGraph(store *graphstore.Store) (CondensationResult, error) {
	g := buildCallGraph(store)
	components := tarjanSCC(g)

	owner := make(map[graphstore.NodeID]int, len(g.symbols))
	var supernodes []Supernode
	originalToSupernode := make(map[string]int)

	for i, comp := range components {
		var members []SymbolInfo
		for _, id := range comp {
			owner[id] = i
			if info, ok := g.symbolInfo(id); ok {
				members = append(members, info)
				if info.SymbolID != "" {
					originalToSupernode[string(info.SymbolID)] = i
				}
			}
		}
		supernodes = append(supernodes, Supernode{ID: i, Members: members})
	}

	edgeSet := make(map[[2]int]bool)
	for from, tos := range g.out {
		for _, to := range tos {
			fromSN, toSN := owner[from], owner[to]
			if fromSN == toSN {
				continue
			}
			edgeSet[[2]int{fromSN, toSN}] = true
		}
	}
	var edges [][2]int
	for e := range edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})

	sort.Slice(supernodes, func(i, j int) bool { return supernodes[i].ID < supernodes[j].ID })

	return CondensationResult{
		Graph:               CondensationGraph{Supernodes: supernodes, Edges: edges},
		OriginalToSupernode: originalToSupernode,
	}, nil
}
