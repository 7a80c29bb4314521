package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestFSResolver_ResolveModule_Relative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "b.native"))

	r := NewFSResolver(root)
	got, err := r.ResolveModule(filepath.Join(root, "src", "a.native"), "./b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "b.native"), got)
}

func TestFSResolver_ResolveModule_NodeModulesWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "node_modules", "leftpad", "index.native"))

	r := NewFSResolver(root)
	got, err := r.ResolveModule(filepath.Join(root, "src", "deep", "a.native"), "leftpad/index")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "node_modules", "leftpad", "index.native"), got)
}

func TestFSResolver_ResolveModule_NotFound(t *testing.T) {
	root := t.TempDir()
	r := NewFSResolver(root)
	_, err := r.ResolveModule(filepath.Join(root, "src", "a.native"), "./missing")
	assert.Error(t, err)
}

func TestFSResolver_IsCoreModule(t *testing.T) {
	r := NewFSResolver(t.TempDir(), WithBuiltins("fs", "path"))
	assert.True(t, r.IsCoreModule("fs"))
	assert.False(t, r.IsCoreModule("lodash"))
}

func TestFSResolver_GetModule_HasteMap(t *testing.T) {
	r := NewFSResolver(t.TempDir(), WithHasteMap(map[string]string{"Foo": "/haste/Foo.native"}))
	assert.Equal(t, "/haste/Foo.native", r.GetModule("Foo"))
	assert.Equal(t, "", r.GetModule("Bar"))
}

func TestFSResolver_GetMockModule_RelativeSidecar(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "__mocks__", "b.native"))

	r := NewFSResolver(root)
	got := r.GetMockModule(filepath.Join(root, "src", "a.native"), "./b")
	assert.Equal(t, filepath.Join(root, "src", "__mocks__", "b.native"), got)
}

func TestFSResolver_GetMockModule_BareSidecarUnderRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "__mocks__", "lodash.native"))

	r := NewFSResolver(root)
	got := r.GetMockModule(filepath.Join(root, "src", "a.native"), "lodash")
	assert.Equal(t, filepath.Join(root, "__mocks__", "lodash.native"), got)
}

func TestFSResolver_GetMockModule_NoneRegistered(t *testing.T) {
	r := NewFSResolver(t.TempDir())
	assert.Equal(t, "", r.GetMockModule("/src/a.native", "./b"))
}

func TestFSResolver_GetModulePaths_WalksToRoot(t *testing.T) {
	root := t.TempDir()
	r := NewFSResolver(root)
	paths := r.GetModulePaths(filepath.Join(root, "src", "deep"))

	assert.Contains(t, paths, filepath.Join(root, "src", "deep", "node_modules"))
	assert.Contains(t, paths, filepath.Join(root, "src", "node_modules"))
	assert.Contains(t, paths, filepath.Join(root, "node_modules"))
}
