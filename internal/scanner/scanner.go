// Package scanner implements the initial full-project scan (spec section
// 4.8): walk the root with symlinks not followed, defensively validate
// every path stays within root, apply the file filter, sort survivors for
// determinism, then index in two phases, files are read and extracted
// concurrently, and the resulting facts are committed to the graph store
// one file at a time in sorted order, preserving the store's
// single-writer contract while still overlapping I/O. Grounded on the
// teacher's internal/indexing ScanDirectory (bounded-concurrency worker
// pool shape) and the original implementation's scan_project
// (original_source/src/graph/ops.rs), restated over this rebuild's
// filter/reconcile/graphstore packages.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/oldnordic/magellan/internal/diag"
	"github.com/oldnordic/magellan/internal/filter"
	"github.com/oldnordic/magellan/internal/graphstore"
	"github.com/oldnordic/magellan/internal/pathsafety"
	"github.com/oldnordic/magellan/internal/reconcile"
	"github.com/oldnordic/magellan/internal/resolver"
)

// Result is what Scan returns: the number of files actually reindexed (not
// counting Unchanged or Deleted outcomes) plus the sorted diagnostic
// stream (spec section 6).
type Result struct {
	Indexed     int
	Unchanged   int
	Diagnostics []diag.Diagnostic
}

// Option configures a Scan call.
type Option func(*options)

type options struct {
	concurrency int
}

// WithConcurrency bounds the parallel read phase's worker count. The
// default is runtime.GOMAXPROCS(0), mirroring the teacher's work-stealing
// pool sizing.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// Scan walks root, filters and sorts candidate files, reads and extracts
// them concurrently, then commits the results to store in sorted path
// order. It never returns an error for a single bad file, every failure
// becomes a diagnostic and the scan continues; a non-nil error return is
// reserved for the walk itself being unusable (root doesn't exist, isn't a
// directory).
func Scan(ctx context.Context, store *graphstore.Store, res *resolver.Resolver, root string, f *filter.Filter, opts ...Option) (Result, error) {
	o := options{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}

	info, err := os.Stat(root)
	if err != nil {
		return Result{}, err
	}
	if !info.IsDir() {
		return Result{}, &fs.PathError{Op: "scan", Path: root, Err: fs.ErrInvalid}
	}

	paths, diagnostics := discover(root, f)

	prepared, prepDiags := prepareAll(ctx, store, paths, o.concurrency)
	diagnostics = append(diagnostics, prepDiags...)

	result := Result{}
	sort.Slice(prepared, func(i, j int) bool { return prepared[i].Path() < prepared[j].Path() })
	for _, p := range prepared {
		outcome := reconcile.Apply(store, res, p)
		switch outcome.Kind {
		case reconcile.Reindexed:
			result.Indexed++
		case reconcile.Unchanged:
			result.Unchanged++
		}
	}

	sort.Slice(diagnostics, func(i, j int) bool { return diag.Less(diagnostics[i], diagnostics[j]) })
	result.Diagnostics = diagnostics
	return result, nil
}

// discover walks root, applying root-containment validation and the file
// filter, returning candidate paths already sorted lexicographically (spec
// 4.8's "sorts survivors for determinism").
func discover(root string, f *filter.Filter) ([]string, []diag.Diagnostic) {
	var paths []string
	var diagnostics []diag.Diagnostic

	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			diagnostics = append(diagnostics, diag.Error(path, diag.StageOther, err.Error()))
			return nil
		}
		if path == root {
			return nil
		}

		// Symlinks are not followed (spec 4.8): skip the entry entirely
		// rather than descending into or reading through it. A symlink
		// whose target resolves outside root is additionally reported as a
		// SymlinkEscape diagnostic (spec 4.2, 8) even though it was never
		// going to be read either way.
		if d.Type()&fs.ModeSymlink != 0 {
			if safe, serr := pathsafety.IsSafeSymlink(path, root); !safe {
				if ve, ok := serr.(*pathsafety.ValidationError); ok && ve.Mode == pathsafety.FailureSymlinkEscape {
					diagnostics = append(diagnostics, diag.Skipped(path, ve.Mode.String()))
				}
			}
			return nil
		}

		if _, verr := pathsafety.ValidatePathWithinRoot(path, root); verr != nil {
			diagnostics = append(diagnostics, diag.Skipped(path, verr.Error()))
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		// Directories pass nil info: their own FileInfo always yields
		// SkipNotAFile, which would hide the ignored-directory reasons below.
		var fi os.FileInfo
		if info, ierr := d.Info(); ierr == nil && !d.IsDir() {
			fi = info
		}

		if reason := f.ShouldSkip(relPath, fi); reason != filter.SkipNone {
			if d.IsDir() {
				if reason == filter.SkipIgnoredInternal || reason == filter.SkipIgnoredByGitignore {
					return fs.SkipDir
				}
				return nil
			}
			diagnostics = append(diagnostics, diag.Skipped(path, reason.String()))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		paths = append(paths, path)
		return nil
	})

	sort.Strings(paths)
	return paths, diagnostics
}

// prepareAll runs reconcile.Prepare for every candidate path across a
// bounded worker pool, the parallel read phase (spec 4.8). A single
// file's failure becomes an Error diagnostic and does not cancel the rest
// of the batch.
func prepareAll(ctx context.Context, store *graphstore.Store, paths []string, concurrency int) ([]reconcile.Prepared, []diag.Diagnostic) {
	type slot struct {
		prepared reconcile.Prepared
		diag     *diag.Diagnostic
	}
	slots := make([]slot, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			p, err := reconcile.Prepare(store, path)
			if err != nil {
				d := diag.Error(path, diag.StageRead, err.Error())
				slots[i] = slot{diag: &d}
				return nil
			}
			if p.Kind() == reconcile.Deleted {
				// discover only ever returns paths that existed at walk
				// time, so Prepare reaching Deleted here means the file
				// vanished before this worker could read it: the "disappears
				// between filter and read" boundary case (spec 8), not a
				// legitimate already-tracked deletion. Report it and apply
				// nothing, rather than silently treating it as Deleted.
				d := diag.Error(path, diag.StageRead, "file no longer exists")
				slots[i] = slot{diag: &d}
				return nil
			}
			slots[i] = slot{prepared: p}
			return nil
		})
	}
	// Every worker swallows its own error into a diagnostic, so Wait
	// never actually reports one, it only blocks until all workers
	// finish.
	_ = g.Wait()

	prepared := make([]reconcile.Prepared, 0, len(paths))
	var diagnostics []diag.Diagnostic
	for _, s := range slots {
		if s.diag != nil {
			diagnostics = append(diagnostics, *s.diag)
			continue
		}
		prepared = append(prepared, s.prepared)
	}
	return prepared, diagnostics
}
