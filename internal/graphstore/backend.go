// Package graphstore implements the property-graph store (spec section
// 3-4): typed nodes and edges, the two-phase delete protocol, and the
// ambiguity (DisplayName/alias_of) model. The underlying storage engine
// is treated as an opaque backend behind the Backend interface, grounded
// on the Backend/EmbeddedBackend split in the pack's graph-DB example
// (vjache-cie/pkg/storage/embedded.go), but implemented here with a
// concrete in-memory engine rather than an external graph database,
// since the spec explicitly scopes the concrete storage engine out
// (section 9, Non-goals) and no pack dependency ships a pure-Go
// embeddable graph/KV engine the teacher's own stack already depends on.
package graphstore

import (
	"sync"

	"github.com/oldnordic/magellan/internal/types"
)

// NodeID identifies one stored node. Backends assign these; callers
// never construct them directly.
type NodeID int64

// Node is one stored property-graph node: a kind tag plus an opaque
// payload the caller decodes according to that kind.
type Node struct {
	ID      NodeID
	Kind    types.NodeKind
	Payload interface{}
}

// Edge is one stored directed, typed edge between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
	Kind types.EdgeKind
}

// NeighborQuery selects edges touching a node by direction and,
// optionally, edge kind.
type NeighborQuery struct {
	Direction types.Direction
	EdgeKind  *types.EdgeKind
}

// Backend is the storage engine contract the graph store depends on.
// Every method must be safe for concurrent use; the in-memory
// implementation below (memoryBackend) guards all state with a single RWMutex,
// matching the coarse-locking style the teacher's concurrent structures
// use (internal/indexing/watcher.go's dirty-paths lock).
type Backend interface {
	// CreateNode stores a new node and returns its assigned ID.
	CreateNode(kind types.NodeKind, payload interface{}) NodeID
	// ReplaceNode overwrites an existing node's payload in place,
	// preserving its ID (spec: Symbol replace-in-place semantics differ
	// from File's replace-by-new-identity; the store layer, not the
	// backend, decides which to use).
	ReplaceNode(id NodeID, payload interface{}) bool
	// GetNode fetches a node by ID.
	GetNode(id NodeID) (Node, bool)
	// DeleteNodes removes the given nodes and returns how many existed.
	DeleteNodes(ids []NodeID) int
	// CreateEdge stores a new directed edge.
	CreateEdge(from, to NodeID, kind types.EdgeKind)
	// DeleteEdgesTouching removes every edge whose From or To is in ids,
	// grounded on the original implementation's
	// delete_edges_touching_entities (original_source/src/graph/schema.rs),
	// and returns the count removed.
	DeleteEdgesTouching(ids []NodeID) int
	// Neighbors returns the node IDs reachable from id via edges matching q.
	Neighbors(id NodeID, q NeighborQuery) []NodeID
	// NodesByKind returns every stored node of the given kind, in
	// insertion order (callers sort for deterministic output per spec
	// section 5).
	NodesByKind(kind types.NodeKind) []Node
	// EntityCount returns the total number of stored nodes, used by the
	// two-phase delete's post-count assertion.
	EntityCount() int
}

// memoryBackend is the default, only shipped Backend: a mutex-guarded
// in-memory adjacency structure. Adequate for a single-process indexer;
// a durable backend is an explicit Non-goal (spec section 9).
type memoryBackend struct {
	mu       sync.RWMutex
	nodes    map[NodeID]Node
	outEdges map[NodeID][]Edge
	inEdges  map[NodeID][]Edge
	nextID   NodeID
}

// NewMemoryBackend constructs an empty in-memory Backend.
func NewMemoryBackend() Backend {
	return &memoryBackend{
		nodes:    make(map[NodeID]Node),
		outEdges: make(map[NodeID][]Edge),
		inEdges:  make(map[NodeID][]Edge),
	}
}

func (b *memoryBackend) CreateNode(kind types.NodeKind, payload interface{}) NodeID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.nodes[id] = Node{ID: id, Kind: kind, Payload: payload}
	return id
}

func (b *memoryBackend) ReplaceNode(id NodeID, payload interface{}) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.nodes[id]
	if !ok {
		return false
	}
	n.Payload = payload
	b.nodes[id] = n
	return true
}

func (b *memoryBackend) GetNode(id NodeID) (Node, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.nodes[id]
	return n, ok
}

func (b *memoryBackend) DeleteNodes(ids []NodeID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, id := range ids {
		if _, ok := b.nodes[id]; ok {
			delete(b.nodes, id)
			count++
		}
	}
	return count
}

func (b *memoryBackend) CreateEdge(from, to NodeID, kind types.EdgeKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := Edge{From: from, To: to, Kind: kind}
	b.outEdges[from] = append(b.outEdges[from], e)
	b.inEdges[to] = append(b.inEdges[to], e)
}

func (b *memoryBackend) DeleteEdgesTouching(ids []NodeID) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	touched := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		touched[id] = true
	}

	removed := 0
	for node, edges := range b.outEdges {
		kept := edges[:0]
		for _, e := range edges {
			if touched[e.From] || touched[e.To] {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		b.outEdges[node] = kept
	}
	for node, edges := range b.inEdges {
		kept := edges[:0]
		for _, e := range edges {
			if touched[e.From] || touched[e.To] {
				continue
			}
			kept = append(kept, e)
		}
		b.inEdges[node] = kept
	}
	return removed
}

func (b *memoryBackend) Neighbors(id NodeID, q NeighborQuery) []NodeID {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var edges []Edge
	switch q.Direction {
	case types.DirOut:
		edges = b.outEdges[id]
	case types.DirIn:
		edges = b.inEdges[id]
	}

	var out []NodeID
	for _, e := range edges {
		if q.EdgeKind != nil && e.Kind != *q.EdgeKind {
			continue
		}
		if q.Direction == types.DirOut {
			out = append(out, e.To)
		} else {
			out = append(out, e.From)
		}
	}
	return out
}

func (b *memoryBackend) NodesByKind(kind types.NodeKind) []Node {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Node
	for id := NodeID(1); id <= b.nextID; id++ {
		if n, ok := b.nodes[id]; ok && n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (b *memoryBackend) EntityCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes)
}
