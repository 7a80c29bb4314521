package runtime

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/output"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

// BoundRequire is the specifier-bound require capability spec.md §4.10
// describes: a callable dispatching through the mock-policy oracle, plus
// requireMock, requireActual, resolve, and host-compatibility fields.
type BoundRequire struct {
	rt   *Runtime
	From string

	// Cache and Extensions are present for host compatibility only, per
	// spec.md §4.10; the core never consults them.
	Cache      map[string]any
	Extensions map[string]any
}

// Require dispatches through the mock-policy oracle (spec.md §4.2) and
// then to the real-module or mock loader accordingly.
func (b *BoundRequire) Require(specifier string) (any, error) {
	mock, err := b.rt.ShouldMock(b.From, specifier)
	if err != nil {
		return nil, err
	}
	if mock {
		return b.rt.RequireMock(b.From, specifier)
	}
	return b.rt.RequireModule(b.From, specifier)
}

// RequireMock always delivers a mock, bypassing the oracle.
func (b *BoundRequire) RequireMock(specifier string) (any, error) {
	return b.rt.RequireMock(b.From, specifier)
}

// RequireActual always delivers the real module, bypassing the oracle.
func (b *BoundRequire) RequireActual(specifier string) (any, error) {
	return b.rt.RequireModule(b.From, specifier)
}

// Resolve passes specifier through to the resolver.
func (b *BoundRequire) Resolve(specifier string) (string, error) {
	return b.rt.resolver.ResolveModule(b.From, specifier)
}

// createRequireImplementation implements spec.md §4.10.
func (rt *Runtime) createRequireImplementation(from string) *BoundRequire {
	return &BoundRequire{
		rt:         rt,
		From:       from,
		Cache:      make(map[string]any),
		Extensions: make(map[string]any),
	}
}

// builtins is the opaque, process-local table of built-in module
// values a host loader would normally supply, per spec.md §4.3 step 3.
var (
	builtinsMu sync.Mutex
	builtins   = make(map[string]any)
)

// RegisterBuiltin installs value as the delivered module for a built-in
// specifier name (one the bound Resolver's IsCoreModule classifies).
func RegisterBuiltin(name string, value any) {
	builtinsMu.Lock()
	builtins[name] = value
	builtinsMu.Unlock()
}

func lookupBuiltin(name string) (any, bool) {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()
	v, ok := builtins[name]
	return v, ok
}

// RequireModule implements the real-module loader, spec.md §4.3. An
// empty specifier denotes "from itself" — the convention spec.md §4.8
// uses to load entry points and setup files, which are already absolute
// paths with nothing left to resolve.
func (rt *Runtime) RequireModule(from, specifier string) (any, error) {
	if specifier == "" {
		return rt.requireEntryModule(from)
	}

	// Step 2: legacy "ghost" manual-mock behaviour for modules that exist
	// only as mocks: if a manual mock exists, no real module does, the
	// caller isn't already executing that manual mock, and the
	// explicit-mock table doesn't force-real this identifier, the manual
	// mock path is required as if it were the real module.
	id := rt.normaliser.Normalise(from, specifier)
	isGhost := false
	if mockPath := rt.resolver.GetMockModule(from, specifier); mockPath != "" {
		if _, realErr := rt.resolver.ResolveModule(from, specifier); realErr != nil {
			if mockPath != rt.currentlyExecutingManualMock && rt.explicitMock.Get(id) != registry.ForceReal {
				isGhost = true
			}
		}
	}

	// Step 3: built-in classification.
	if !isGhost && rt.resolver.IsCoreModule(specifier) {
		if v, ok := lookupBuiltin(specifier); ok {
			return v, nil
		}
		return nil, &ResolutionError{From: from, Specifier: specifier, Cause: fmt.Errorf("no built-in registered")}
	}

	// Step 4: resolve to an absolute path.
	var absolutePath string
	if isGhost {
		mockPath := rt.resolver.GetMockModule(from, specifier)
		absolutePath = mockPath
	} else {
		resolved, err := rt.resolver.ResolveModule(from, specifier)
		if err != nil {
			return nil, &ResolutionError{From: from, Specifier: specifier, Cause: err}
		}
		absolutePath = resolved
	}

	// Step 5: insert placeholder before execution, then fill it in.
	return rt.loadAbsolute(absolutePath)
}

// requireEntryModule loads an already-absolute path with no specifier
// to resolve against, the convention spec.md §4.8 uses for entry points
// and setup files (RequireModule is called with an empty specifier).
func (rt *Runtime) requireEntryModule(absolutePath string) (any, error) {
	return rt.loadAbsolute(absolutePath)
}

// loadAbsolute inserts a placeholder for absolutePath if it isn't
// already cached, fills it in by dispatching on file extension
// (spec.md §4.3 step 5/§4.5), and returns its exports.
func (rt *Runtime) loadAbsolute(absolutePath string) (any, error) {
	if _, ok := rt.modules.Get(absolutePath); !ok {
		rec := rt.modules.InsertPlaceholder(absolutePath)

		switch filepath.Ext(absolutePath) {
		case ".json":
			f, err := os.Open(absolutePath)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			v, err := rt.sandboxEnv.ParseJSON(f)
			if err != nil {
				return nil, err
			}
			rec.Exports = v

		case ".native":
			data, err := os.ReadFile(absolutePath)
			if err != nil {
				return nil, err
			}
			rec.Exports = bytes.TrimSpace(data) // opaque passthrough, per spec.md's non-goals

		default:
			if err := rt.execModule(rec); err != nil {
				if err == ErrSandboxTornDown {
					output.Debug("sandbox torn down, abandoning execModule", "filename", absolutePath)
				} else {
					return nil, err
				}
			}
		}
	}

	rec, _ := rt.modules.Get(absolutePath)
	return rec.Exports, nil
}

// RequireMock implements the mock loader, spec.md §4.4.
func (rt *Runtime) RequireMock(from, specifier string) (any, error) {
	id := rt.normaliser.Normalise(from, specifier)

	if v, ok := rt.mocks.Get(id); ok {
		return v, nil
	}

	if factory, ok := rt.factories.Get(id); ok {
		v := factory()
		rt.mocks.Set(id, v)
		return v, nil
	}

	mockPath := rt.resolver.GetMockModule(from, specifier)
	if mockPath != "" {
		scratch := &registry.ModuleRecord{Filename: mockPath, Exports: map[string]any{}}
		if err := rt.execModule(scratch); err != nil && err != ErrSandboxTornDown {
			return nil, err
		}
		rt.mocks.Set(id, scratch.Exports)
		return scratch.Exports, nil
	}

	mock, err := rt.generateMock(from, specifier)
	if err != nil {
		return nil, err
	}
	rt.mocks.Set(id, mock)
	return mock, nil
}

// execModule implements spec.md §4.5: sandbox invocation of a transformed
// module body.
func (rt *Runtime) execModule(rec *registry.ModuleRecord) error {
	if rt.sandboxEnv.TornDown() {
		return ErrSandboxTornDown
	}

	var collector contracts.CoverageCollector
	var coverageStore any
	if rt.shouldCollectCoverage(rec.Filename) {
		collector = rt.collectorFor(rec.Filename)
		coverageStore = collector.DataStore()
	}

	savedPath := rt.currentlyExecutingPath
	savedManualMock := rt.currentlyExecutingManualMock
	rt.currentlyExecutingPath = rec.Filename
	rt.currentlyExecutingManualMock = rec.Filename
	defer func() {
		rt.currentlyExecutingPath = savedPath
		rt.currentlyExecutingManualMock = savedManualMock
	}()

	modLog := output.ModuleLogger(rec.Filename)
	modLog.Debug("executing module", "coverage", collector != nil)
	defer modLog.Debug("module execution finished")

	dirname := filepath.Dir(rec.Filename)
	rec.Children = []*registry.ModuleRecord{}
	rec.Parent = registry.SentinelParent()
	rec.Paths = rt.resolver.GetModulePaths(dirname)
	boundRequire := rt.createRequireImplementation(rec.Filename)
	rec.Require = boundRequire

	var instrument contracts.InstrumentHook
	if collector != nil {
		storeName := rec.Filename
		instrument = func(source, filename string) (string, error) {
			return collector.InstrumentedSource(source, filename, storeName)
		}
	}

	script, err := rt.transformer.Transform(rec.Filename, contracts.TransformOptions{Instrument: instrument})
	if err != nil {
		if IsSyntaxError(err) {
			return &SyntaxError{RelativePath: rt.relativeToRoot(rec.Filename), Cause: err}
		}
		return err
	}

	evalResult, err := rt.sandboxEnv.RunScript(script)
	if err != nil {
		if IsSyntaxError(err) {
			return &SyntaxError{RelativePath: rt.relativeToRoot(rec.Filename), Cause: err}
		}
		return err
	}

	wrapper, ok := evalResult[contracts.WrapperProperty].(contracts.WrapperFunc)
	if !ok {
		return fmt.Errorf("sandboxtest: script for %s did not expose a module wrapper", rec.Filename)
	}

	facade := rt.CreateFacadeFor(rec.Filename)

	return wrapper(contracts.WrapperArgs{
		Exports:  rec.Exports,
		Module:   rec,
		Require:  boundRequire,
		Dirname:  dirname,
		Filename: rec.Filename,
		Global:   rt.sandboxEnv.Global(),
		Facade:   facade,
		Coverage: coverageStore,
	})
}

func (rt *Runtime) relativeToRoot(path string) string {
	if rt.config.RootDir == "" {
		return path
	}
	rel, err := filepath.Rel(rt.config.RootDir, path)
	if err != nil {
		return path
	}
	return rel
}
