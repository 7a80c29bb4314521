package runtime

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/mockfn"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

func TestNew_RunsSetupFilesWithAutomockDisabled(t *testing.T) {
	h := newHarness(t)
	ran := false
	setup := h.file("setup.js", func(args contracts.WrapperArgs) error {
		ran = true
		return nil
	})

	rt := h.newRuntime(func(c *RawConfig) {
		c.SetupFiles = []string{setup}
		c.Automock = true
	})

	assert.True(t, ran)
	assert.True(t, rt.automockGlobal, "automock should be restored after setup files run")
}

func TestResetModuleRegistry_ClearsModulesAndMocksButNotOtherTables(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime(nil)

	abs := h.file("a.js", func(args contracts.WrapperArgs) error { return nil })
	entry := filepath.Join(h.root, "entry.js")
	_, err := rt.RequireModule(entry, "./a")
	require.NoError(t, err)

	id := rt.normaliser.Normalise(entry, "./a")
	rt.explicitMock.Set(id, registry.ForceMock)
	rt.shouldMockCache.SetByID(id, true)

	rt.ResetModuleRegistry()

	_, ok := rt.modules.Get(abs)
	assert.False(t, ok, "module registry should be cleared")

	v, ok := rt.shouldMockCache.GetByID(id)
	assert.True(t, ok, "should-mock cache must survive reset")
	assert.True(t, v)

	assert.Equal(t, registry.ForceMock, rt.explicitMock.Get(id), "explicit-mock table must survive reset")
}

func TestResetModuleRegistry_ClearsMockFunctionsReachableFromGlobal(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime(nil)

	fn := mockfn.New(nil)
	fn.Call(1, 2)
	rt.sandboxEnv.Global()["recorded"] = fn

	rt.ResetModuleRegistry()

	assert.Empty(t, fn.Calls())
}

func TestGetAllCoverageInfo_EmptyBeforeAnyFileCollects(t *testing.T) {
	h := newHarness(t)
	rt := h.newRuntime(nil)
	assert.Empty(t, rt.GetAllCoverageInfo())
}

func TestCompiledUnmockRegex_SharedAcrossRuntimesWithSameConfig(t *testing.T) {
	re1, err := compiledUnmockRegex([]string{"^lodash$"})
	require.NoError(t, err)
	re2, err := compiledUnmockRegex([]string{"^lodash$"})
	require.NoError(t, err)
	assert.Same(t, re1, re2)
}
