package extract

import (
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pool owns one lazily-initialized tree-sitter parser per language,
// cached to avoid the cost of reconstructing a parser per file. The cache
// is process-wide, not per thread: every goroutine gets the same parser
// for a language, and ExtractFile holds mu while a parser runs, so parses
// are serialized rather than run in parallel. Grounded on the teacher's TreeSitterParser
// (internal/parser/parser.go), trimmed to the subset the generic engine
// needs: a configured *tree_sitter.Parser per extension.
type Pool struct {
	mu      sync.Mutex
	parsers map[string]*tree_sitter.Parser
}

func newPool() *Pool {
	return &Pool{parsers: make(map[string]*tree_sitter.Parser)}
}

var defaultPool = newPool()

// Warmup primes every registered language's parser. Strongly recommended
// at startup of long-lived processes (spec 4.1, 9).
func Warmup() {
	for ext := range registry {
		defaultPool.get(ext)
	}
}

func (p *Pool) get(ext string) *tree_sitter.Parser {
	p.mu.Lock()
	defer p.mu.Unlock()

	if parser, ok := p.parsers[ext]; ok {
		return parser
	}

	spec, ok := registry[ext]
	if !ok {
		return nil
	}
	parser := newParserForLanguage(spec.Lang)
	if parser == nil {
		return nil
	}
	for _, e := range spec.Extensions {
		p.parsers[e] = parser
	}
	return parser
}
