// Package filter implements should_skip (spec section 4.3): a pure
// predicate applied in strict precedence order to decide whether a path is
// indexed. Grounded on the teacher's internal/indexing pipeline_scanner.go
// filtering helpers and internal/config/gitignore.go, combined into the
// single ordered predicate the spec demands.
package filter

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oldnordic/magellan/internal/config"
	"github.com/oldnordic/magellan/internal/types"
)

// SkipReason is the closed set of reasons should_skip can return, each
// carrying a stable sort key (spec 4.3) so diagnostic output orders
// deterministically: internal < gitignore < glob < unsupported < not-a-file.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipIgnoredInternal
	SkipIgnoredByGitignore
	SkipExcludedByGlob
	SkipUnsupportedLanguage
	SkipNotAFile
)

func (r SkipReason) String() string {
	switch r {
	case SkipIgnoredInternal:
		return "IgnoredInternal"
	case SkipIgnoredByGitignore:
		return "IgnoredByGitignore"
	case SkipExcludedByGlob:
		return "ExcludedByGlob"
	case SkipUnsupportedLanguage:
		return "UnsupportedLanguage"
	case SkipNotAFile:
		return "NotAFile"
	default:
		return "None"
	}
}

// SortKey returns the reason's precedence rank for deterministic diagnostic
// ordering (spec 4.3).
func (r SkipReason) SortKey() int {
	switch r {
	case SkipIgnoredInternal:
		return 0
	case SkipIgnoredByGitignore:
		return 1
	case SkipExcludedByGlob:
		return 2
	case SkipUnsupportedLanguage:
		return 3
	case SkipNotAFile:
		return 4
	default:
		return -1
	}
}

// internalIgnoreDirs are hard-coded directory components never indexed,
// regardless of gitignore content (spec 4.3 step 2).
var internalIgnoreDirs = map[string]bool{
	".git":         true,
	".codemcp":     true,
	"target":       true,
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
}

// internalIgnoreSuffixes are hard-coded file extensions/suffixes never
// indexed (database side-effect files, to avoid watcher self-feedback).
var internalIgnoreSuffixes = []string{
	".db", ".db-journal", ".db-wal", ".db-shm", ".sqlite", ".sqlite3",
}

// Filter applies should_skip in the precedence order the spec pins.
type Filter struct {
	gitignore *config.GitignoreParser
	include   []string
	exclude   []string
}

// New builds a Filter for a scan rooted at root, loading .gitignore and
// .ignore from root if respectGitignore is set.
func New(root string, respectGitignore bool, cfg config.Filter) (*Filter, error) {
	f := &Filter{include: cfg.IncludeGlobs, exclude: cfg.ExcludeGlobs}
	if respectGitignore {
		gi := config.NewGitignoreParser()
		if err := gi.LoadFile(filepath.Join(root, ".gitignore")); err != nil {
			return nil, err
		}
		if err := gi.LoadFile(filepath.Join(root, ".ignore")); err != nil {
			return nil, err
		}
		f.gitignore = gi
	}
	return f, nil
}

// ShouldSkip is the should_skip predicate (spec 4.3). relPath must be
// forward-slash, relative to the scanned root.
func (f *Filter) ShouldSkip(relPath string, info os.FileInfo) SkipReason {
	if info != nil && !info.Mode().IsRegular() {
		return SkipNotAFile
	}

	for _, comp := range strings.Split(relPath, "/") {
		if internalIgnoreDirs[comp] {
			return SkipIgnoredInternal
		}
	}
	lower := strings.ToLower(relPath)
	for _, suf := range internalIgnoreSuffixes {
		if strings.HasSuffix(lower, suf) {
			return SkipIgnoredInternal
		}
	}

	if f.gitignore != nil {
		isDir := info != nil && info.IsDir()
		if f.gitignore.ShouldIgnore(relPath, isDir) {
			return SkipIgnoredByGitignore
		}
	}

	if types.DetectLanguage(strings.ToLower(filepath.Ext(relPath))) == types.LangUnknown {
		return SkipUnsupportedLanguage
	}

	if len(f.include) > 0 {
		matched := false
		for _, pat := range f.include {
			if ok, _ := doublestar.Match(pat, relPath); ok {
				matched = true
				break
			}
		}
		if !matched {
			return SkipExcludedByGlob
		}
	}

	for _, pat := range f.exclude {
		if ok, _ := doublestar.Match(pat, relPath); ok {
			return SkipExcludedByGlob
		}
	}

	return SkipNone
}
