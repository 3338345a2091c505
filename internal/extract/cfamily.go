package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

func init() {
	register(&LangSpec{
		Lang:       types.LangC,
		Extensions: []string{".c", ".h"},
		Declarations: map[string]DeclSpec{
			"function_definition": {Kind: types.KindFunction, NameField: "declarator", PushScope: false, EmitSymbol: true},
			"struct_specifier":    {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"enum_specifier":      {Kind: types.KindEnum, NameField: "name", PushScope: true, EmitSymbol: true},
			"union_specifier":     {Kind: types.KindUnion, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call_expression": "function"},
		MemberKind:     map[string]bool{"field_expression": true},
		ImportNodeKind: map[string]bool{"preproc_include": true},
		IdentifierKind: map[string]bool{"identifier": true, "field_identifier": true},
		ParseImport:    parseCInclude,
	})

	register(&LangSpec{
		Lang:       types.LangCPP,
		Extensions: []string{".cpp", ".cc", ".cxx", ".hpp"},
		Declarations: map[string]DeclSpec{
			"function_definition":  {Kind: types.KindFunction, NameField: "declarator", PushScope: false, EmitSymbol: true},
			"class_specifier":      {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"struct_specifier":     {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"enum_specifier":       {Kind: types.KindEnum, NameField: "name", PushScope: true, EmitSymbol: true},
			"namespace_definition": {Kind: types.KindNamespace, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call_expression": "function"},
		MemberKind:     map[string]bool{"field_expression": true, "qualified_identifier": true},
		ImportNodeKind: map[string]bool{"preproc_include": true, "using_declaration": true},
		IdentifierKind: map[string]bool{"identifier": true, "field_identifier": true},
		ParseImport:    parseCInclude,
	})
}

// parseCInclude handles #include "x.h"/<x.h> and using-declarations.
func parseCInclude(content []byte, node *tree_sitter.Node) types.ImportFact {
	if node.Kind() == "using_declaration" {
		fact := types.ImportFact{Kind: types.ImportStatement}
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			child := node.Child(i)
			if child != nil && (child.Kind() == "qualified_identifier" || child.Kind() == "identifier") {
				fact.PathComponents = append(fact.PathComponents, text(content, child))
			}
		}
		return fact
	}

	fact := types.ImportFact{Kind: types.ImportStatement}
	pathNode := node.ChildByFieldName("path")
	if pathNode != nil {
		raw := text(content, pathNode)
		fact.PathComponents = []string{raw}
	}
	return fact
}
