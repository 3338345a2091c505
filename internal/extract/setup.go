package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/oldnordic/magellan/internal/types"
)

// newParserForLanguage constructs and configures a tree-sitter parser for
// one of the seven supported languages, following the
// NewParser/SetLanguage pattern used throughout the teacher's
// parser_language_setup.go for every grammar.
func newParserForLanguage(lang types.Language) *tree_sitter.Parser {
	parser := tree_sitter.NewParser()

	var langPtr *tree_sitter.Language
	switch lang {
	case types.LangRust:
		langPtr = tree_sitter.NewLanguage(tree_sitter_rust.Language())
	case types.LangPython:
		langPtr = tree_sitter.NewLanguage(tree_sitter_python.Language())
	case types.LangC:
		langPtr = tree_sitter.NewLanguage(tree_sitter_c.Language())
	case types.LangCPP:
		langPtr = tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	case types.LangJava:
		langPtr = tree_sitter.NewLanguage(tree_sitter_java.Language())
	case types.LangJavaScript:
		langPtr = tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	case types.LangTypeScript:
		langPtr = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	default:
		return nil
	}

	if err := parser.SetLanguage(langPtr); err != nil {
		return nil
	}
	return parser
}
