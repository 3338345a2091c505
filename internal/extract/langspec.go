package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

// DeclSpec describes one declaration-node kind the walker recognizes: the
// symbol kind it produces, which field holds its identifier, and whether
// entering it pushes a new scope frame for its descendants (spec 4.1).
type DeclSpec struct {
	Kind       types.SymbolKind
	NameField  string
	PushScope  bool
	EmitSymbol bool // false for scope-only nodes such as Rust's impl_item
	// StripPrefix is trimmed from the pushed scope name before it is
	// joined into descendants' FQNs. No registered language sets it:
	// Rust's impl_item already pushes the bare type name from its "type"
	// field (spec 4.1, display_fqn formatting rule).
	StripPrefix string
}

// LangSpec declares everything the generic engine needs to extract facts
// from one language's concrete syntax tree: which node kinds are
// declarations, scopes, calls, and imports, and which leaf node kinds count
// as identifier references. Grounded on the node-kind vocabulary the
// teacher's tree-sitter queries use per language
// (internal/parser/parser_language_setup.go).
type LangSpec struct {
	Lang           types.Language
	Extensions     []string
	Declarations   map[string]DeclSpec
	CallNodeKinds  map[string]string // node kind -> callee field name ("" = use CalleeField)
	ImportNodeKind map[string]bool
	IdentifierKind map[string]bool // leaf node kinds treated as identifier occurrences for Reference matching
	MemberKind     map[string]bool // "a.b"/"a::b" access node kinds: callee/reference is the rightmost identifier
	CalleeField    string           // field name on a call node holding the callee expression, when its CallNodeKinds entry is ""
	ParseImport    func(content []byte, node *tree_sitter.Node) types.ImportFact
	// RootScope, when non-empty, is pushed as the outermost scope frame
	// before a file's top-level declarations are walked, Rust's "crate"
	// keyword names the current crate root regardless of file path (spec
	// 4.1's FQN example: top-level fn foo in any file has FQN
	// "crate::foo"). Left empty for languages with no such built-in
	// root-namespace keyword.
	RootScope string
}

var registry = map[string]*LangSpec{}

func register(spec *LangSpec) {
	for _, ext := range spec.Extensions {
		registry[ext] = spec
	}
}
