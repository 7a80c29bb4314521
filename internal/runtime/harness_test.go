package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sandboxtest/sandboxtest/internal/automock"
	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/coverage"
	"github.com/sandboxtest/sandboxtest/internal/resolve"
	"github.com/sandboxtest/sandboxtest/internal/sandbox"
	"github.com/sandboxtest/sandboxtest/internal/transform"
)

// harness wires the default contracts implementations together over a
// real temporary directory, the same way the CLI's "run" command does,
// so runtime tests exercise genuine resolution and sandbox invocation
// rather than hand-rolled fakes.
type harness struct {
	t           *testing.T
	root        string
	resolver    *resolve.FSResolver
	transformer *transform.NativeTransformer
	sandboxEnv  *sandbox.Environment
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	return &harness{
		t:           t,
		root:        root,
		resolver:    resolve.NewFSResolver(root),
		transformer: &transform.NativeTransformer{},
		sandboxEnv:  sandbox.New(),
	}
}

// file creates an (empty) module file at relPath under root so the
// resolver can find it, and registers body as its wrapper. relPath
// should carry a ".js" extension (or none) so loadAbsolute's dispatch
// treats it as executable rather than the ".native" opaque-passthrough
// or ".json" data formats.
func (h *harness) file(relPath string, body contracts.WrapperFunc) string {
	h.t.Helper()
	abs := filepath.Join(h.root, relPath)
	require.NoError(h.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(h.t, os.WriteFile(abs, []byte{}, 0o644))
	h.transformer.Register(abs, body)
	return abs
}

func (h *harness) newRuntime(mutate func(*RawConfig)) *Runtime {
	h.t.Helper()
	raw := RawConfig{RootDir: h.root, SetupFiles: nil}
	if mutate != nil {
		mutate(&raw)
	}
	cfg, err := Compile(raw)
	require.NoError(h.t, err)

	rt, err := New(cfg, h.resolver, h.transformer, h.sandboxEnv, automock.NewProvider(), coverage.NewCollectorFunc())
	require.NoError(h.t, err)
	return rt
}
