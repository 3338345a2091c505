package pathsafety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasSuspiciousTraversal(t *testing.T) {
	t.Run("ThreeOrMoreParents", func(t *testing.T) {
		assert.True(t, HasSuspiciousTraversal("../../../etc/passwd"))
	})
	t.Run("BareSingleParent", func(t *testing.T) {
		assert.True(t, HasSuspiciousTraversal("../config"))
	})
	t.Run("MixedDotSlashThenParent", func(t *testing.T) {
		assert.True(t, HasSuspiciousTraversal("./subdir/../../etc"))
	})
	t.Run("NormalPaths", func(t *testing.T) {
		assert.False(t, HasSuspiciousTraversal("src/main.rs"))
		assert.False(t, HasSuspiciousTraversal("./src/lib.rs"))
		assert.False(t, HasSuspiciousTraversal("../parent/src/lib.rs"))
		assert.False(t, HasSuspiciousTraversal("../../normal"))
	})
}

func TestValidatePathWithinRoot(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "a.rs")
	require.NoError(t, os.WriteFile(inside, []byte("fn a(){}"), 0o644))

	t.Run("InsideRoot", func(t *testing.T) {
		got, err := ValidatePathWithinRoot(inside, root)
		require.NoError(t, err)
		assert.NotEmpty(t, got)
	})

	t.Run("OutsideRoot", func(t *testing.T) {
		outsideDir := t.TempDir()
		outside := filepath.Join(outsideDir, "b.rs")
		require.NoError(t, os.WriteFile(outside, []byte("fn b(){}"), 0o644))
		_, err := ValidatePathWithinRoot(outside, root)
		require.Error(t, err)
		ve, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Equal(t, FailureOutsideRoot, ve.Mode)
	})

	t.Run("SuspiciousTraversalRejectedBeforeCanonicalization", func(t *testing.T) {
		_, err := ValidatePathWithinRoot("../../../etc/passwd", root)
		require.Error(t, err)
		ve, ok := err.(*ValidationError)
		require.True(t, ok)
		assert.Equal(t, FailureSuspiciousTraversal, ve.Mode)
	})
}

func TestExtractSymbolContentSafe(t *testing.T) {
	t.Run("ASCII", func(t *testing.T) {
		content, ok := ExtractSymbolContentSafe([]byte("hello world"), 0, 5)
		require.True(t, ok)
		assert.Equal(t, "hello", content)
	})

	t.Run("StartSplitsCharReturnsNone", func(t *testing.T) {
		// "é" (U+00E9) is bytes 1-2; starting at byte 2 splits it.
		bytes := []byte("h\xc3\xa9llo")
		_, ok := ExtractSymbolContentSafe(bytes, 2, len(bytes))
		assert.False(t, ok)
	})

	t.Run("EndSnapsToBoundary", func(t *testing.T) {
		// emoji (4 bytes) followed by more text; end lands mid-emoji.
		src := []byte("a\xF0\x9F\x91\x8Bb") // a 👋 b
		content, ok := ExtractSymbolContentSafe(src, 0, 3)
		require.True(t, ok)
		assert.Equal(t, "a", content)
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		_, ok := ExtractSymbolContentSafe([]byte("hi"), 0, 100)
		assert.False(t, ok)
		_, ok = ExtractSymbolContentSafe([]byte("hi"), 5, 3)
		assert.False(t, ok)
	})
}

func TestExtractContextSafe(t *testing.T) {
	src := []byte("line1\nline2\nline3\nline4")
	content, ok := ExtractContextSafe(src, 6, 11, 5)
	require.True(t, ok)
	assert.Contains(t, content, "line2")
}
