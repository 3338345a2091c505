package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

// callerFrame tracks which symbol pass 2 is currently nested inside, so a
// call site can be attributed to its enclosing caller (spec 4.1: CallFact
// carries both Caller and Callee names).
type callerFrame struct {
	name     string
	symbolID types.SymbolID
	start    int
	end      int
}

// walkCallsAndRefs is pass 2: it re-walks the tree tracking which
// previously-extracted symbol currently encloses the cursor (by byte
// range containment, since pass 1 already recorded each symbol's span),
// emitting a CallFact whenever a call node's callee name resolves against
// the same-file symbol index, and a ReferenceFact for every other
// identifier occurrence that also resolves.
func (w *walker) walkCallsAndRefs(node *tree_sitter.Node, caller *callerFrame) {
	caller = w.updateCaller(node, caller)

	kind := node.Kind()

	if field, ok := w.spec.CallNodeKinds[kind]; ok {
		w.emitCall(node, field, caller)
	}

	if w.spec.IdentifierKind[kind] && !w.isDeclarationName(node) && !w.isCalleeNode(node) {
		w.emitReference(node, caller)
	}

	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.walkCallsAndRefs(child, caller)
	}
}

// updateCaller returns the innermost symbolRecord enclosing node's byte
// range, switching callerFrame only when node is itself the start of a
// recorded symbol's span (cheap containment check, since symbols are
// recorded in pass-1 traversal order and cannot overlap across distinct
// branches).
func (w *walker) updateCaller(node *tree_sitter.Node, current *callerFrame) *callerFrame {
	start := int(node.StartByte())
	end := int(node.EndByte())
	for i := range w.symbols {
		s := &w.symbols[i]
		if s.start == start && s.end == end {
			return &callerFrame{name: s.fact.Name, symbolID: s.fact.SymbolID, start: s.start, end: s.end}
		}
	}
	return current
}

func (w *walker) isDeclarationName(node *tree_sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	decl, ok := w.spec.Declarations[parent.Kind()]
	if !ok {
		return false
	}
	nameNode := unwrapDeclarator(parent.ChildByFieldName(decl.NameField))
	return nameNode != nil && nameNode.StartByte() == node.StartByte() && nameNode.EndByte() == node.EndByte()
}

// calleeName resolves a call node's callee to a bare identifier name: for
// a plain call it is the callee field's text; for a member/field access
// (a.b(), a::b()) it is the rightmost identifier (spec 4.1: calls resolve
// by simple name against the same-file symbol index, not by receiver
// type).
func (w *walker) calleeName(node *tree_sitter.Node, field string) (string, *tree_sitter.Node) {
	var target *tree_sitter.Node
	if field != "" {
		target = node.ChildByFieldName(field)
	} else {
		target = node.ChildByFieldName(w.spec.CalleeField)
	}
	if target == nil {
		return "", nil
	}
	if w.spec.MemberKind[target.Kind()] {
		// Tries every member-access field name used across the seven
		// supported grammars: "property" (JS/TS member_expression),
		// "field" (Rust/C/C++ field_expression), "attribute" (Python
		// attribute).
		for _, fieldName := range [...]string{"property", "field", "attribute"} {
			if m := target.ChildByFieldName(fieldName); m != nil {
				return text(w.content, m), m
			}
		}
		count := target.ChildCount()
		if count > 0 {
			last := target.Child(count - 1)
			return text(w.content, last), last
		}
		return "", nil
	}
	return text(w.content, target), target
}

// isCalleeNode reports whether node is the exact identifier last resolved
// as a call's callee, so pass 2 does not also emit it as a Reference
// (spec 4.5: a call site is represented once, as a Call node, not
// additionally as a Reference to the same name).
func (w *walker) isCalleeNode(node *tree_sitter.Node) bool {
	start, end := int(node.StartByte()), int(node.EndByte())
	for _, r := range w.calleeRanges {
		if r[0] == start && r[1] == end {
			return true
		}
	}
	return false
}

func (w *walker) emitCall(node *tree_sitter.Node, field string, caller *callerFrame) {
	name, target := w.calleeName(node, field)
	if name == "" {
		return
	}
	if target != nil {
		w.calleeRanges = append(w.calleeRanges, [2]int{int(target.StartByte()), int(target.EndByte())})
	}
	matches, ok := w.byName[name]
	if !ok || len(matches) == 0 {
		return
	}

	callFact := types.CallFact{
		FilePath:       w.path,
		Callee:         name,
		Span:           spanOf(node),
		CalleeSymbolID: matches[0].fact.SymbolID,
	}
	if caller != nil {
		callFact.Caller = caller.name
		callFact.CallerSymbolID = caller.symbolID
	}
	w.calls = append(w.calls, callFact)
}

func (w *walker) emitReference(node *tree_sitter.Node, caller *callerFrame) {
	name := text(w.content, node)
	if name == "" {
		return
	}
	matches, ok := w.byName[name]
	if !ok || len(matches) == 0 {
		return
	}
	start := int(node.StartByte())
	// A reference inside the symbol's own name/defining span is not a
	// use; it is the declaration itself (already excluded by
	// isDeclarationName for the common case, this guards nested cases).
	for _, m := range matches {
		if start >= m.start && start < m.end && m.fact.Name == name {
			return
		}
	}
	ref := types.ReferenceFact{
		FilePath:       w.path,
		Span:           spanOf(node),
		ReferencedName: name,
		SymbolID:       matches[0].fact.SymbolID,
	}
	w.references = append(w.references, ref)
}

// collectImports walks the tree a third time (cheap relative to the
// declaration/call passes, since import statements are shallow and rare)
// delegating to the language's ParseImport hook.
func (w *walker) collectImports(node *tree_sitter.Node) []types.ImportFact {
	var out []types.ImportFact
	w.collectImportsInto(node, &out)
	return out
}

func (w *walker) collectImportsInto(node *tree_sitter.Node, out *[]types.ImportFact) {
	if w.spec.ImportNodeKind[node.Kind()] && w.spec.ParseImport != nil {
		fact := w.spec.ParseImport(w.content, node)
		fact.FilePath = w.path
		fact.Span = spanOf(node)
		*out = append(*out, fact)
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		w.collectImportsInto(child, out)
	}
}
