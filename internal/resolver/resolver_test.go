package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilePathToModulePath(t *testing.T) {
	cases := map[string]string{
		"src/lib.rs":         "crate",
		"src/main.rs":         "crate",
		"src/foo.rs":          "crate::foo",
		"src/foo/mod.rs":      "crate::foo",
		"src/foo/bar.rs":      "crate::foo::bar",
		"src/foo/bar/mod.rs":  "crate::foo::bar",
	}
	for in, want := range cases {
		assert.Equal(t, want, FilePathToModulePath(in), "input %s", in)
	}
}

func TestParentModule(t *testing.T) {
	cases := []struct {
		in       string
		want     string
		hasParent bool
	}{
		{"crate", "", false},
		{"crate::foo", "crate", true},
		{"crate::foo::bar", "crate::foo", true},
	}
	for _, c := range cases {
		got, ok := parentModule(c.in)
		assert.Equal(t, c.hasParent, ok, "input %s", c.in)
		if c.hasParent {
			assert.Equal(t, c.want, got, "input %s", c.in)
		}
	}
}

func TestResolvePathCrateSuperSelf(t *testing.T) {
	r := New(nil)
	r.byModulePath["crate"] = "src/lib.rs"
	r.byModulePath["crate::foo"] = "src/foo.rs"
	r.byModulePath["crate::foo::bar"] = "src/foo/bar.rs"
	r.byModulePath["crate::foo::baz"] = "src/foo/baz.rs"

	assert.Equal(t, "src/foo/bar.rs", r.ResolvePath("src/foo/baz.rs", []string{"crate", "foo", "bar"}))
	assert.Equal(t, "src/foo.rs", r.ResolvePath("src/foo/bar.rs", []string{"super"}))
	assert.Equal(t, "src/foo/baz.rs", r.ResolvePath("src/foo/mod.rs", []string{"self", "baz"}))
	assert.Equal(t, "", r.ResolvePath("src/lib.rs", []string{"super"}))
}
