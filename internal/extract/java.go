package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

func init() {
	register(&LangSpec{
		Lang:       types.LangJava,
		Extensions: []string{".java"},
		Declarations: map[string]DeclSpec{
			"method_declaration":      {Kind: types.KindMethod, NameField: "name", PushScope: false, EmitSymbol: true},
			"constructor_declaration": {Kind: types.KindMethod, NameField: "name", PushScope: false, EmitSymbol: true},
			"class_declaration":       {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"record_declaration":      {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"interface_declaration":   {Kind: types.KindInterface, NameField: "name", PushScope: true, EmitSymbol: true},
			"enum_declaration":        {Kind: types.KindEnum, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"method_invocation": "name"},
		ImportNodeKind: map[string]bool{"import_declaration": true},
		IdentifierKind: map[string]bool{"identifier": true},
		ParseImport:    parseJavaImport,
	})
}

func parseJavaImport(content []byte, node *tree_sitter.Node) types.ImportFact {
	fact := types.ImportFact{Kind: types.ImportStatement}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			fact.PathComponents = []string{text(content, child)}
		case "asterisk":
			fact.IsGlob = true
		}
	}
	return fact
}
