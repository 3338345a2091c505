package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/oldnordic/magellan/internal/types"
)

func init() {
	register(&LangSpec{
		Lang:       types.LangPython,
		Extensions: []string{".py"},
		Declarations: map[string]DeclSpec{
			"class_definition":    {Kind: types.KindClass, NameField: "name", PushScope: true, EmitSymbol: true},
			"function_definition": {Kind: types.KindFunction, NameField: "name", PushScope: true, EmitSymbol: true},
		},
		CallNodeKinds:  map[string]string{"call": "function"},
		MemberKind:     map[string]bool{"attribute": true},
		ImportNodeKind: map[string]bool{"import_statement": true, "import_from_statement": true},
		IdentifierKind: map[string]bool{"identifier": true},
		ParseImport:    parsePythonImport,
	})
}

// parsePythonImport handles both `import a.b.c` and `from a.b import c, d`
// forms (spec 4.1's ImportKind.ImportStatement / ImportFrom).
func parsePythonImport(content []byte, node *tree_sitter.Node) types.ImportFact {
	if node.Kind() == "import_from_statement" {
		fact := types.ImportFact{Kind: types.ImportFrom}
		moduleName := ""
		if moduleNode := node.ChildByFieldName("module_name"); moduleNode != nil {
			moduleName = text(content, moduleNode)
			fact.PathComponents = []string{moduleName}
		}
		count := node.ChildCount()
		for i := uint(0); i < count; i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "wildcard_import":
				fact.IsGlob = true
			case "dotted_name", "identifier", "aliased_import":
				name := text(content, child)
				if name != "" && name != moduleName {
					fact.ImportedNames = append(fact.ImportedNames, name)
				}
			}
		}
		return fact
	}

	fact := types.ImportFact{Kind: types.ImportStatement}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name", "aliased_import":
			fact.PathComponents = append(fact.PathComponents, text(content, child))
		}
	}
	return fact
}
