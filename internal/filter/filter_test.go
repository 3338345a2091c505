package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oldnordic/magellan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFilterDeterminism reproduces the concrete scenario from spec section
// 8 #6: src/lib.rs, src/mod.rs admitted; target/x.rs, .git/HEAD excluded
// internally; build/ excluded via .gitignore.
func TestFilterDeterminism(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("build/\n"), 0o644))

	f, err := New(root, true, config.Filter{})
	require.NoError(t, err)

	cases := map[string]SkipReason{
		"src/lib.rs":   SkipNone,
		"src/mod.rs":   SkipNone,
		"target/x.rs":  SkipIgnoredInternal,
		".git/HEAD":    SkipIgnoredInternal,
		"build/out.rs": SkipIgnoredByGitignore,
	}

	for path, want := range cases {
		got := f.ShouldSkip(path, nil)
		assert.Equal(t, want, got, "path %s", path)
	}
}

func TestFilterUnsupportedLanguage(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, false, config.Filter{})
	require.NoError(t, err)
	assert.Equal(t, SkipUnsupportedLanguage, f.ShouldSkip("README.md", nil))
}

func TestFilterIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	f, err := New(root, false, config.Filter{IncludeGlobs: []string{"src/**/*.rs"}})
	require.NoError(t, err)
	assert.Equal(t, SkipNone, f.ShouldSkip("src/a/b.rs", nil))
	assert.Equal(t, SkipExcludedByGlob, f.ShouldSkip("other/b.rs", nil))

	f2, err := New(root, false, config.Filter{ExcludeGlobs: []string{"**/*_test.rs"}})
	require.NoError(t, err)
	assert.Equal(t, SkipExcludedByGlob, f2.ShouldSkip("src/a_test.rs", nil))
}

func TestSkipReasonSortKeyOrdering(t *testing.T) {
	assert.True(t, SkipIgnoredInternal.SortKey() < SkipIgnoredByGitignore.SortKey())
	assert.True(t, SkipIgnoredByGitignore.SortKey() < SkipExcludedByGlob.SortKey())
	assert.True(t, SkipExcludedByGlob.SortKey() < SkipUnsupportedLanguage.SortKey())
	assert.True(t, SkipUnsupportedLanguage.SortKey() < SkipNotAFile.SortKey())
}
