package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oldnordic/magellan/internal/types"
)

// TestExtractRustCallScenario reproduces the concrete scenario from spec
// section 8 #1 verbatim.
func TestExtractRustCallScenario(t *testing.T) {
	src := []byte("fn foo() { bar(); } fn bar() {}")

	facts, err := ExtractFile("src/a.rs", src)
	require.NoError(t, err)

	require.Len(t, facts.Symbols, 2)
	names := map[string]types.SymbolFact{}
	for _, s := range facts.Symbols {
		names[s.Name] = s
	}
	require.Contains(t, names, "foo")
	require.Contains(t, names, "bar")
	assert.Equal(t, "crate::foo", names["foo"].FQN)
	assert.Equal(t, "crate::bar", names["bar"].FQN)
	assert.Equal(t, types.KindFunction, names["foo"].Kind)
	assert.Equal(t, types.KindFunction, names["bar"].Kind)

	require.Len(t, facts.Calls, 1)
	call := facts.Calls[0]
	assert.Equal(t, "foo", call.Caller)
	assert.Equal(t, "bar", call.Callee)
	assert.Equal(t, names["bar"].SymbolID, call.CalleeSymbolID)
	assert.Equal(t, names["foo"].SymbolID, call.CallerSymbolID)
}

func TestExtractRustMethodInsideImpl(t *testing.T) {
	src := []byte("struct Widget {}\nimpl Widget {\n    fn render(&self) {}\n}\n")

	facts, err := ExtractFile("src/widget.rs", src)
	require.NoError(t, err)

	var render *types.SymbolFact
	for i := range facts.Symbols {
		if facts.Symbols[i].Name == "render" {
			render = &facts.Symbols[i]
		}
	}
	require.NotNil(t, render)
	assert.Equal(t, types.KindMethod, render.Kind)
	assert.Equal(t, "crate::Widget::render", render.FQN)
}

func TestExtractPythonClassAndMethod(t *testing.T) {
	src := []byte("class Greeter:\n    def hello(self):\n        pass\n")

	facts, err := ExtractFile("greeter.py", src)
	require.NoError(t, err)

	require.Len(t, facts.Symbols, 2)
	var class, method *types.SymbolFact
	for i := range facts.Symbols {
		switch facts.Symbols[i].Name {
		case "Greeter":
			class = &facts.Symbols[i]
		case "hello":
			method = &facts.Symbols[i]
		}
	}
	require.NotNil(t, class)
	require.NotNil(t, method)
	assert.Equal(t, types.KindClass, class.Kind)
	assert.Equal(t, types.KindMethod, method.Kind)
	assert.Equal(t, "Greeter.hello", method.FQN)
}

func TestExtractUnsupportedExtensionYieldsEmptyFacts(t *testing.T) {
	facts, err := ExtractFile("README.md", []byte("# hello"))
	require.NoError(t, err)
	assert.Empty(t, facts.Symbols)
	assert.Empty(t, facts.Calls)
}

func TestExtractNeverPanicsOnMalformedSource(t *testing.T) {
	assert.NotPanics(t, func() {
		_, _ = ExtractFile("src/broken.rs", []byte("fn foo( { ??? "))
	})
}

func TestExtractProducesChunkAndCFGBlockForEachSymbol(t *testing.T) {
	src := []byte("fn foo() {\n    if true {\n        bar();\n    } else {\n        baz();\n    }\n}\nfn bar() {}\nfn baz() {}\n")

	facts, err := ExtractFile("src/a.rs", src)
	require.NoError(t, err)

	require.Len(t, facts.Chunks, 3)
	byName := map[types.SymbolID]string{}
	for _, s := range facts.Symbols {
		byName[s.SymbolID] = s.Name
	}

	var fooChunk *types.ChunkFact
	for i := range facts.Chunks {
		if byName[facts.Chunks[i].SymbolID] == "foo" {
			fooChunk = &facts.Chunks[i]
		}
	}
	require.NotNil(t, fooChunk)
	assert.Contains(t, fooChunk.Source, "if true")

	var fooBlocks []types.CFGBlockFact
	for _, b := range facts.CFGBlocks {
		if byName[b.SymbolID] == "foo" {
			fooBlocks = append(fooBlocks, b)
		}
	}
	require.Len(t, fooBlocks, 2)
	kinds := map[string]bool{}
	for _, b := range fooBlocks {
		kinds[b.BlockKind] = true
	}
	assert.True(t, kinds["if"])
	assert.True(t, kinds["else"])
}

func TestExtractSymbolIDStability(t *testing.T) {
	src := []byte("fn foo() {}")
	a, err := ExtractFile("src/a.rs", src)
	require.NoError(t, err)
	b, err := ExtractFile("src/a.rs", src)
	require.NoError(t, err)
	require.Len(t, a.Symbols, 1)
	require.Len(t, b.Symbols, 1)
	assert.Equal(t, a.Symbols[0].SymbolID, b.Symbols[0].SymbolID)
}
