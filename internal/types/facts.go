package types

// FileFact is the File node payload (spec section 3). Unique key: Path
// (normalized). Created on first index; replaced-by-new-identity on every
// reindex.
type FileFact struct {
	Path          string
	ContentHash   string
	LastIndexedAt int64 // unix seconds
	LastModified  int64 // unix seconds, filesystem mtime at index time
	LOC           int   // line count at index time, backs file_metrics
}

// SymbolFact is the Symbol node payload (spec section 3, 4.1).
type SymbolFact struct {
	SymbolID       SymbolID
	Name           string
	Kind           SymbolKind
	FQN            string
	DisplayFQN     string
	CanonicalFQN   string
	FilePath       string
	Span           Span
}

// ReferenceFact is the Reference node payload. Always reached from a
// Symbol via an incoming REFERENCES edge; ReferencedName records the
// symbol name the reference resolved to by textual match.
type ReferenceFact struct {
	FilePath       string
	Span           Span
	ReferencedName string
	SymbolID       SymbolID // the same-file Symbol this reference names, if resolved
}

// CallFact is the Call node payload, an explicit node, not an edge (spec
// 4.5), so that distinct call sites between the same caller/callee pair
// are preserved.
type CallFact struct {
	FilePath       string
	Caller         string
	Callee         string
	Span           Span
	CallerSymbolID SymbolID
	CalleeSymbolID SymbolID
}

// ImportFact is the Import node payload.
type ImportFact struct {
	FilePath       string
	Kind           ImportKind
	PathComponents []string
	ImportedNames  []string
	IsGlob         bool
	Span           Span
	ResolvedPath   string // non-empty once the module resolver (C5) binds it
}

// ChunkFact is the code_chunks side-table row for one symbol (spec section
// 3): the symbol's own source text, keyed so export and future
// retrieval-style queries can fetch a snippet without re-reading the file
// from disk.
type ChunkFact struct {
	FilePath string
	SymbolID SymbolID
	Span     Span
	Source   string
}

// CFGBlockFact is one cfg_blocks side-table row (spec section 3): a single
// branch or loop construct found inside a symbol's body. This rebuild
// derives blocks textually (a keyword scan over the symbol's own source
// span, not a true tree-sitter control-flow graph), enough to back
// complexity counting without a second parser pass per language.
type CFGBlockFact struct {
	FilePath  string
	SymbolID  SymbolID
	Span      Span
	BlockKind string
}

// FileFacts bundles everything a single extractor invocation produces for
// one file, the pure (path, bytes) -> facts function's return value (spec
// 4.1).
type FileFacts struct {
	Symbols    []SymbolFact
	References []ReferenceFact
	Calls      []CallFact
	Imports    []ImportFact
	Chunks     []ChunkFact
	CFGBlocks  []CFGBlockFact
}

// FileMetrics is the file_metrics side-table row (spec section 3):
// precomputed, derived facts about one File node, refreshed whenever the
// file is reindexed.
type FileMetrics struct {
	Path        string
	LOC         int
	SymbolCount int
}

// SymbolMetrics is the symbol_metrics side-table row (spec section 3):
// fan-in/out and complexity, derived from the graph rather than stored
// directly on the Symbol node so they stay cheap to recompute after a
// partial reindex.
type SymbolMetrics struct {
	SymbolID   SymbolID
	FanIn      int
	FanOut     int
	LOC        int
	Complexity int
}
