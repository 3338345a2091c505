// Package reconcile implements the deterministic update-or-delete primitive
// (spec section 4.6) used by both the initial scan and the watcher loop:
// given a path, compare filesystem state against what the store has
// recorded and bring the store in line with exactly one of Deleted,
// Unchanged, or Reindexed. Ported from the original implementation's
// reconcile_file_path (original_source/src/graph/ops.rs), restated over
// this rebuild's extract/graphstore/resolver packages instead of a direct
// sqlitegraph handle.
package reconcile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/oldnordic/magellan/internal/extract"
	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/pathsafety"
	"github.com/oldnordic/magellan/internal/resolver"
	"github.com/oldnordic/magellan/internal/types"
)

// Kind is the closed set of reconcile outcomes (spec 4.6).
type Kind int

const (
	Deleted Kind = iota
	Unchanged
	Reindexed
)

func (k Kind) String() string {
	switch k {
	case Deleted:
		return "Deleted"
	case Unchanged:
		return "Unchanged"
	case Reindexed:
		return "Reindexed"
	default:
		return "Unknown"
	}
}

// Outcome reports what reconciling a single path did. Symbols/References/
// Calls are only meaningful when Kind is Reindexed.
type Outcome struct {
	Kind       Kind
	Symbols    int
	References int
	Calls      int
}

// ComputeHash returns the stable content hash used to decide whether a file
// needs reindexing: the full hex SHA-256 digest of its bytes.
func ComputeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Prepared is the result of the read-only half of reconciling a path: stat,
// hash comparison, and (when content changed) extraction. It holds no
// store-mutating side effects, so a caller can run Prepare for many paths
// concurrently and then feed the results to Apply one at a time in
// deterministic order, the scanner's parallel-read/sequential-write split
// (spec 4.8).
type Prepared struct {
	path     string
	pathKey  string
	kind     Kind
	hash     string
	modTime  int64
	loc      int
	facts    types.FileFacts
	existing bool
}

// Path returns the path this Prepared result was computed for, so callers
// sequencing Apply calls can sort a batch deterministically without
// re-threading the original path list.
func (p Prepared) Path() string { return p.path }

// Kind reports the outcome Apply will produce for this Prepared result.
func (p Prepared) Kind() Kind { return p.kind }

// Prepare performs the filesystem-facing, concurrency-safe half of
// reconciling path: stat, content-hash comparison against what store
// already has recorded, and extraction when the content differs. It never
// mutates store. Call Apply with the result, in whatever order determinism
// requires, to actually update the store.
func Prepare(store *graphstore.Store, path string) (Prepared, error) {
	pathKey := pathsafety.NormalizePath(path)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Prepared{path: path, pathKey: pathKey, kind: Deleted}, nil
		}
		return Prepared{}, fmt.Errorf("reconcile: stat %q: %w", path, err)
	}
	if info.IsDir() {
		return Prepared{}, fmt.Errorf("reconcile: %q is a directory", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Prepared{}, fmt.Errorf("reconcile: read %q: %w", path, err)
	}
	hash := ComputeHash(content)

	if existing, ok := store.FileFact(pathKey); ok && existing.ContentHash == hash {
		return Prepared{path: path, pathKey: pathKey, kind: Unchanged}, nil
	}

	facts, err := extract.ExtractFile(pathKey, content)
	if err != nil {
		return Prepared{}, fmt.Errorf("reconcile: extract %q: %w", path, err)
	}

	return Prepared{
		path:    path,
		pathKey: pathKey,
		kind:    Reindexed,
		hash:    hash,
		modTime: info.ModTime().Unix(),
		loc:     lineCount(content),
		facts:   facts,
	}, nil
}

// lineCount returns the file_metrics LOC value for content: the number of
// newline-terminated lines plus one for a non-empty trailing partial line,
// 0 for an empty file.
func lineCount(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// Apply commits a Prepared result to store, resolving Rust-style import
// paths against res first. res may be nil, in which case import
// ResolvedPath is left empty.
func Apply(store *graphstore.Store, res *resolver.Resolver, p Prepared) Outcome {
	switch p.kind {
	case Deleted:
		store.DeleteFileFacts(p.pathKey)
		return Outcome{Kind: Deleted}
	case Unchanged:
		return Outcome{Kind: Unchanged}
	}

	fileID, _ := store.ReplaceFile(types.FileFact{
		Path:          p.pathKey,
		ContentHash:   p.hash,
		LastIndexedAt: time.Now().Unix(),
		LastModified:  p.modTime,
		LOC:           p.loc,
	})

	if res != nil {
		res.IndexFile(p.pathKey)
		resolveImports(res, p.pathKey, p.facts.Imports)
	}

	store.InsertFileFacts(fileID, p.facts)

	return Outcome{
		Kind:       Reindexed,
		Symbols:    len(p.facts.Symbols),
		References: len(p.facts.References),
		Calls:      len(p.facts.Calls),
	}
}

// File reconciles path against the filesystem in one step, Prepare
// followed immediately by Apply, for callers (the watcher's indexer loop,
// single-file tests) that don't need the parallel/sequential split.
//
// res may be nil, in which case import ResolvedPath is left empty, callers
// indexing a single file outside full-project context (e.g. a unit test)
// don't need a resolver.
func File(store *graphstore.Store, res *resolver.Resolver, path string) (Outcome, error) {
	p, err := Prepare(store, path)
	if err != nil {
		return Outcome{}, err
	}
	return Apply(store, res, p), nil
}

// resolveImports fills in each Rust-style import's ResolvedPath in place.
// Other languages' imports (plain import/from-import) have no crate-relative
// module system to resolve against here and are left unresolved, the spec
// scopes module resolution to Rust's crate::/super::/self:: paths.
func resolveImports(res *resolver.Resolver, currentFile string, imports []types.ImportFact) {
	for i := range imports {
		switch imports[i].Kind {
		case types.ImportUseCrate, types.ImportUseSuper, types.ImportUseSelf, types.ImportPlainUse:
			imports[i].ResolvedPath = res.ResolvePath(currentFile, imports[i].PathComponents)
		}
	}
}
