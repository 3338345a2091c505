package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

func init() {
	register(&LangSpec{
		Lang:       types.LangRust,
		Extensions: []string{".rs"},
		RootScope:  "crate",
		Declarations: map[string]DeclSpec{
			// impl_item pushes a scope (the type name) but never emits a
			// Symbol itself (spec 4.1): only the methods nested inside do.
			// trait_item emits an Interface symbol and also pushes a scope.
			"impl_item":     {NameField: "type", PushScope: true, EmitSymbol: false},
			"trait_item":    {Kind: types.KindInterface, NameField: "name", PushScope: true, EmitSymbol: true},
			"function_item": {Kind: types.KindFunction, NameField: "name", PushScope: false, EmitSymbol: true},
			"struct_item":   {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"enum_item":     {Kind: types.KindEnum, NameField: "name", PushScope: true, EmitSymbol: true},
			"type_item":     {Kind: types.KindTypeAlias, NameField: "name", PushScope: false, EmitSymbol: true},
			"mod_item":      {Kind: types.KindModule, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call_expression": "function"},
		MemberKind:     map[string]bool{"field_expression": true, "scoped_identifier": true},
		ImportNodeKind: map[string]bool{"use_declaration": true, "extern_crate_declaration": true},
		IdentifierKind: map[string]bool{"identifier": true, "type_identifier": true},
		ParseImport:    parseRustImport,
	})
}

// parseRustImport classifies a use_declaration by its leading path
// segment (crate::/super::/self:: vs a plain external path), matching the
// ImportKind vocabulary the original Rust implementation's module
// resolver expects (spec 4.1, supplemented from original_source's
// graph/module_resolver.rs naming of use-path kinds).
func parseRustImport(content []byte, node *tree_sitter.Node) types.ImportFact {
	if node.Kind() == "extern_crate_declaration" {
		fact := types.ImportFact{Kind: types.ImportExternCrate}
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			fact.PathComponents = []string{text(content, nameNode)}
		}
		return fact
	}

	fact := types.ImportFact{Kind: types.ImportPlainUse}
	argNode := node.ChildByFieldName("argument")
	if argNode == nil {
		return fact
	}
	collectUsePath(content, argNode, &fact)

	if len(fact.PathComponents) > 0 {
		switch fact.PathComponents[0] {
		case "crate":
			fact.Kind = types.ImportUseCrate
		case "super":
			fact.Kind = types.ImportUseSuper
		case "self":
			fact.Kind = types.ImportUseSelf
		}
	}
	return fact
}

func collectUsePath(content []byte, node *tree_sitter.Node, fact *types.ImportFact) {
	switch node.Kind() {
	case "use_wildcard":
		fact.IsGlob = true
		if inner := node.Child(0); inner != nil {
			collectUsePath(content, inner, fact)
		}
	case "scoped_identifier", "scoped_use_list":
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			collectUsePath(content, pathNode, fact)
		}
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			fact.ImportedNames = append(fact.ImportedNames, text(content, nameNode))
		}
		if listNode := node.ChildByFieldName("list"); listNode != nil {
			count := listNode.ChildCount()
			for i := uint(0); i < count; i++ {
				child := listNode.Child(i)
				if child != nil && child.Kind() == "identifier" {
					fact.ImportedNames = append(fact.ImportedNames, text(content, child))
				}
			}
		}
	case "use_as_clause":
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			collectUsePath(content, pathNode, fact)
		}
	case "identifier", "self", "crate", "super":
		fact.PathComponents = append(fact.PathComponents, text(content, node))
	default:
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			collectUsePath(content, child, fact)
		}
	}
}
