package runtime

import (
	"github.com/sandboxtest/sandboxtest/internal/moduleid"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

// generateMock implements spec.md §4.6.
func (rt *Runtime) generateMock(from, specifier string) (any, error) {
	absolutePath, err := rt.resolver.ResolveModule(from, specifier)
	if err != nil {
		return nil, &ResolutionError{From: from, Specifier: specifier, Cause: err}
	}

	meta, ok := rt.metadataCache.Get(absolutePath)
	if !ok {
		// Seed the cache with the metadata of an empty object so a
		// re-entrant call for the same path (the module transitively
		// requiring itself) observes a trivial shape instead of
		// recursing forever, per spec.md §4.6 step 2.
		emptyMeta, err := rt.metadata.GetMetadata(absolutePath, map[string]any{})
		if err != nil {
			return nil, &AutomockMetadataError{ModulePath: absolutePath, Cause: err}
		}
		rt.metadataCache.Set(absolutePath, emptyMeta)

		live, err := rt.isolatedRequire(from, specifier)
		if err != nil {
			return nil, err
		}

		meta, err = rt.metadata.GetMetadata(absolutePath, live)
		if err != nil {
			return nil, &AutomockMetadataError{ModulePath: absolutePath, Cause: err}
		}
		rt.metadataCache.Set(absolutePath, meta)
	}

	return rt.metadata.GenerateFromMetadata(meta)
}

// GenMockFromModule is spec.md §4.7's `genMockFromModule(name)`: same as
// generateMock, but the result is never cached in the mock registry.
func (rt *Runtime) GenMockFromModule(from, specifier string) (any, error) {
	return rt.generateMock(from, specifier)
}

// isolatedRequire executes the real module with fresh module and mock
// registries so generating its mock never pollutes the caller's state,
// per spec.md §4.6 step 2's "Isolation" bullet and Testable Property 5.
func (rt *Runtime) isolatedRequire(from, specifier string) (any, error) {
	savedModules := rt.modules
	savedMocks := rt.mocks
	savedNormaliser := rt.normaliser

	rt.modules = registry.NewModuleRegistry()
	rt.mocks = registry.NewMockRegistry()
	rt.normaliser = moduleid.New(rt.resolver, rt.virtualMocks)

	defer func() {
		rt.modules = savedModules
		rt.mocks = savedMocks
		rt.normaliser = savedNormaliser
	}()

	return rt.RequireModule(from, specifier)
}
