package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

func init() {
	register(&LangSpec{
		Lang:       types.LangJavaScript,
		Extensions: []string{".js", ".jsx"},
		Declarations: map[string]DeclSpec{
			"function_declaration":           {Kind: types.KindFunction, NameField: "name", PushScope: false, EmitSymbol: true},
			"generator_function_declaration": {Kind: types.KindFunction, NameField: "name", PushScope: false, EmitSymbol: true},
			"method_definition":              {Kind: types.KindMethod, NameField: "name", PushScope: false, EmitSymbol: true},
			"class_declaration":               {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call_expression": "function"},
		MemberKind:     map[string]bool{"member_expression": true},
		ImportNodeKind: map[string]bool{"import_statement": true},
		IdentifierKind: map[string]bool{"identifier": true, "property_identifier": true},
		ParseImport:    parseJSImport,
	})

	register(&LangSpec{
		Lang:       types.LangTypeScript,
		Extensions: []string{".ts", ".tsx"},
		Declarations: map[string]DeclSpec{
			"function_declaration":           {Kind: types.KindFunction, NameField: "name", PushScope: false, EmitSymbol: true},
			"generator_function_declaration": {Kind: types.KindFunction, NameField: "name", PushScope: false, EmitSymbol: true},
			"method_definition":              {Kind: types.KindMethod, NameField: "name", PushScope: false, EmitSymbol: true},
			"class_declaration":               {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"interface_declaration":           {Kind: types.KindInterface, NameField: "name", PushScope: true, EmitSymbol: true},
			"type_alias_declaration":          {Kind: types.KindTypeAlias, NameField: "name", PushScope: false, EmitSymbol: true},
			"enum_declaration":                {Kind: types.KindEnum, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call_expression": "function"},
		MemberKind:     map[string]bool{"member_expression": true},
		ImportNodeKind: map[string]bool{"import_statement": true},
		IdentifierKind: map[string]bool{"identifier": true, "property_identifier": true},
		ParseImport:    parseJSImport,
	})
}

func parseJSImport(content []byte, node *tree_sitter.Node) types.ImportFact {
	fact := types.ImportFact{Kind: types.ImportStatement}
	if sourceNode := node.ChildByFieldName("source"); sourceNode != nil {
		fact.PathComponents = []string{text(content, sourceNode)}
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "namespace_import":
			fact.IsGlob = true
		case "named_imports":
			collectJSNamedImports(content, child, &fact)
		case "identifier":
			fact.ImportedNames = append(fact.ImportedNames, text(content, child))
		}
	}
	return fact
}

func collectJSNamedImports(content []byte, node *tree_sitter.Node, fact *types.ImportFact) {
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "import_specifier" {
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				fact.ImportedNames = append(fact.ImportedNames, text(content, nameNode))
			}
		}
	}
}
