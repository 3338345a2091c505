// Package pathsafety implements the two safety primitives enforced at every
// file-accessing boundary (spec section 4.2): root-containment validation
// and UTF-8 boundary-safe byte slicing. Ported from the original Rust
// source's src/validation.rs and src/common.rs, in the idiom of the
// teacher's internal/security package (small, dependency-free, explicit
// failure modes).
package pathsafety

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FailureMode distinguishes why a path failed validation (spec 4.2).
type FailureMode int

const (
	FailureNone FailureMode = iota
	FailureOutsideRoot
	FailureSymlinkEscape
	FailureCannotCanonicalize
	FailureSuspiciousTraversal
)

func (f FailureMode) String() string {
	switch f {
	case FailureOutsideRoot:
		return "OutsideRoot"
	case FailureSymlinkEscape:
		return "SymlinkEscape"
	case FailureCannotCanonicalize:
		return "CannotCanonicalize"
	case FailureSuspiciousTraversal:
		return "SuspiciousTraversal"
	default:
		return "None"
	}
}

// ValidationError reports a path-safety failure with its mode.
type ValidationError struct {
	Mode FailureMode
	Path string
	Root string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: path %q (root %q)", e.Mode, e.Path, e.Root)
}

// HasSuspiciousTraversal flags lexical patterns worth rejecting before even
// attempting canonicalization: 3+ "../" segments, a bare single-"../"
// prefix of depth <= 2, or a mixed "./…/.." pattern that combines forward
// navigation with parent traversal to obscure intent. Ported verbatim from
// validation.rs::has_suspicious_traversal.
func HasSuspiciousTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")

	if strings.Count(normalized, "../") >= 3 {
		return true
	}

	if strings.HasPrefix(normalized, "../") && !strings.HasPrefix(normalized, "../../") {
		depth := strings.Count(normalized, "/")
		if depth <= 2 {
			return true
		}
	}

	parts := strings.Split(normalized, "/")
	for i, part := range parts {
		if part == "." && i < len(parts)-1 {
			for _, later := range parts[i+1:] {
				if later == ".." {
					return true
				}
			}
		}
	}

	return false
}

// ValidatePathWithinRoot canonicalizes both path and root (resolving
// symlinks and ./.. components) and succeeds only if the canonical path is
// a descendant of the canonical root. A pre-check rejects suspicious
// traversal even when canonicalization would otherwise succeed or fail for
// unrelated reasons.
func ValidatePathWithinRoot(path, root string) (string, error) {
	if HasSuspiciousTraversal(path) {
		return "", &ValidationError{Mode: FailureSuspiciousTraversal, Path: path, Root: root}
	}

	canonicalRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		canonicalRoot, err = filepath.Abs(root)
		if err != nil {
			return "", &ValidationError{Mode: FailureCannotCanonicalize, Path: path, Root: root}
		}
	}

	canonicalPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		// The target may not exist yet (e.g. a path being created); fall
		// back to lexical cleaning against the canonical root so callers
		// can still validate intent before the file exists.
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(canonicalRoot, path)
		}
		canonicalPath = filepath.Clean(abs)
	}

	canonicalRoot = filepath.Clean(canonicalRoot)
	canonicalPath = filepath.Clean(canonicalPath)

	rel, err := filepath.Rel(canonicalRoot, canonicalPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &ValidationError{Mode: FailureOutsideRoot, Path: canonicalPath, Root: canonicalRoot}
	}

	return canonicalPath, nil
}

// IsSafeSymlink resolves a symlink's target (absolute, or relative to the
// symlink's parent directory) and validates it lies within root. Ported
// from validation.rs::is_safe_symlink, lexical traversal checks alone
// miss a symlink whose target is itself outside root.
func IsSafeSymlink(symlinkPath, root string) (bool, error) {
	target, err := os.Readlink(symlinkPath)
	if err != nil {
		return false, &ValidationError{Mode: FailureCannotCanonicalize, Path: symlinkPath, Root: root}
	}

	resolved := target
	if !filepath.IsAbs(target) {
		resolved = filepath.Join(filepath.Dir(symlinkPath), target)
	}

	if _, err := ValidatePathWithinRoot(resolved, root); err != nil {
		if ve, ok := err.(*ValidationError); ok && ve.Mode == FailureOutsideRoot {
			return false, &ValidationError{Mode: FailureSymlinkEscape, Path: symlinkPath, Root: target}
		}
		return false, err
	}

	return true, nil
}

// NormalizePath cleans a path and converts it to forward-slash form for use
// as a stable graph-store key, independent of OS path separators.
func NormalizePath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}
