package runtime

import (
	"github.com/sandboxtest/sandboxtest/internal/mockfn"
	"github.com/sandboxtest/sandboxtest/internal/moduleid"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

// MockOptions configures a single facade.Mock call.
type MockOptions struct {
	// Virtual registers the computed virtual-mock candidate path before
	// identifier normalisation, per spec.md §4.7, letting modules be
	// mocked without ever existing on disk.
	Virtual bool
}

// Facade is the per-file test-control object spec.md §4.7 describes.
// Every mutating method returns the Facade itself to permit chaining,
// e.g. f.Mock("a", nil).Unmock("b").
type Facade struct {
	rt   *Runtime
	from string
}

// CreateFacadeFor constructs the per-file facade for from, per spec.md
// §4.7's createFacadeFor(from).
func (rt *Runtime) CreateFacadeFor(from string) *Facade {
	return &Facade{rt: rt, from: from}
}

// EnableAutomock flips the global automock switch on.
func (f *Facade) EnableAutomock() *Facade {
	f.rt.automockGlobal = true
	return f
}

// DisableAutomock flips the global automock switch off.
func (f *Facade) DisableAutomock() *Facade {
	f.rt.automockGlobal = false
	return f
}

// Mock registers factory (if non-nil) as the producer for name and
// marks it force-mock in the explicit-mock table.
func (f *Facade) Mock(name string, factory func() any, opts MockOptions) *Facade {
	if opts.Virtual {
		candidate := moduleid.VirtualCandidatePath(f.from, name)
		f.rt.virtualMocks.Add(candidate)
	}

	id := f.rt.normaliser.Normalise(f.from, name)
	if factory != nil {
		f.rt.factories.Set(id, factory)
	}
	f.rt.explicitMock.Set(id, registry.ForceMock)
	return f
}

// SetMock is equivalent to Mock(name, func() any { return value }, ...).
func (f *Facade) SetMock(name string, value any) *Facade {
	return f.Mock(name, func() any { return value }, MockOptions{})
}

// Unmock marks name force-real.
func (f *Facade) Unmock(name string) *Facade {
	id := f.rt.normaliser.Normalise(f.from, name)
	f.rt.explicitMock.Set(id, registry.ForceReal)
	return f
}

// DeepUnmock marks name force-real and exempts its dependency subtree
// from automock.
func (f *Facade) DeepUnmock(name string) *Facade {
	id := f.rt.normaliser.Normalise(f.from, name)
	f.rt.explicitMock.Set(id, registry.ForceReal)
	f.rt.transitiveUnmock.Set(id, false)
	return f
}

// ResetModuleRegistry wipes the module and mock registries.
func (f *Facade) ResetModuleRegistry() *Facade {
	f.rt.ResetModuleRegistry()
	return f
}

// GenMockFromModule regenerates a mock for name without caching it in
// the mock registry.
func (f *Facade) GenMockFromModule(name string) (any, error) {
	return f.rt.GenMockFromModule(f.from, name)
}

// Fn creates a mock function, optionally preloaded with impl.
func (f *Facade) Fn(impl mockfn.Implementation) *mockfn.MockFunction {
	return mockfn.New(impl)
}

// GenMockFunction and GenMockFn alias Fn, per spec.md §4.7.
func (f *Facade) GenMockFunction(impl mockfn.Implementation) *mockfn.MockFunction { return f.Fn(impl) }
func (f *Facade) GenMockFn(impl mockfn.Implementation) *mockfn.MockFunction       { return f.Fn(impl) }

// IsMockFunction is the facade's predicate form of mockfn.IsMockFunction.
func (f *Facade) IsMockFunction(v any) bool { return mockfn.IsMockFunction(v) }

// ClearAllTimers, RunAllTicks, RunAllImmediates, RunAllTimers and
// RunOnlyPendingTimers delegate to the sandbox environment's fake-timer
// subsystem.
func (f *Facade) ClearAllTimers() *Facade       { f.rt.sandboxEnv.Timers().ClearAllTimers(); return f }
func (f *Facade) RunAllTicks() *Facade          { f.rt.sandboxEnv.Timers().RunAllTicks(); return f }
func (f *Facade) RunAllImmediates() *Facade     { f.rt.sandboxEnv.Timers().RunAllImmediates(); return f }
func (f *Facade) RunAllTimers() *Facade         { f.rt.sandboxEnv.Timers().RunAllTimers(); return f }
func (f *Facade) RunOnlyPendingTimers() *Facade { f.rt.sandboxEnv.Timers().RunOnlyPendingTimers(); return f }

// UseFakeTimers and UseRealTimers switch the environment's timer
// implementation.
func (f *Facade) UseFakeTimers() *Facade { f.rt.sandboxEnv.Timers().UseFakeTimers(); return f }
func (f *Facade) UseRealTimers() *Facade { f.rt.sandboxEnv.Timers().UseRealTimers(); return f }

// AddMatchers installs matchers into the runtime's matcher registry, the
// stand-in for "the globally exposed test-spec framework" spec.md §4.7
// describes.
func (f *Facade) AddMatchers(matchers map[string]any) *Facade {
	f.rt.addMatchers(matchers)
	return f
}

// GetTestEnvData returns a frozen shallow clone of configured test-env
// data.
func (f *Facade) GetTestEnvData() map[string]any {
	out := make(map[string]any, len(f.rt.config.TestEnvData))
	for k, v := range f.rt.config.TestEnvData {
		out[k] = v
	}
	return out
}
