package runtime

import (
	"strings"

	"github.com/sandboxtest/sandboxtest/internal/moduleid"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

// ShouldMock implements the mock-policy oracle's decision procedure, per
// spec.md §4.2. Rules are evaluated in order; the first to apply wins.
func (rt *Runtime) ShouldMock(from, specifier string) (bool, error) {
	// Rule 1: virtual mock candidate.
	candidate := moduleid.VirtualCandidatePath(from, specifier)
	if rt.virtualMocks.Has(candidate) {
		return true, nil
	}

	// Rule 2: explicit-mock table.
	id := rt.normaliser.Normalise(from, specifier)
	if state := rt.explicitMock.Get(id); state != registry.Unset {
		return state == registry.ForceMock, nil
	}

	// Rule 3: automock disabled globally, built-in, or transitively
	// unmocked for this caller.
	if !rt.automockGlobal || rt.resolver.IsCoreModule(specifier) {
		return false, nil
	}
	if unmocked, ok := rt.transitiveUnmock.Get(id); ok && !unmocked {
		return false, nil
	}

	// Rule 4: should-mock cache.
	if v, ok := rt.shouldMockCache.GetByID(id); ok {
		return v, nil
	}

	// Rule 5: resolve the module.
	modulePath, err := rt.resolver.ResolveModule(from, specifier)
	if err != nil {
		if mockPath := rt.resolver.GetMockModule(from, specifier); mockPath != "" {
			rt.shouldMockCache.SetByID(id, true)
			return true, nil
		}
		return false, &ResolutionError{From: from, Specifier: specifier, Cause: err}
	}

	// Rule 6: unmock-list pattern.
	if rt.unmockRegex != nil && rt.unmockRegex.MatchString(modulePath) {
		rt.shouldMockCache.SetByID(id, false)
		return false, nil
	}

	// Rule 7: transitive-unmock rule.
	currentID := rt.normaliser.Normalise(from, "")
	if unmocked, ok := rt.transitiveUnmock.Get(currentID); ok && !unmocked {
		rt.transitiveUnmock.Set(id, false)
		rt.shouldMockCache.SetByID(id, false)
		return false, nil
	}
	if inNodeModules(from) && inNodeModules(modulePath) {
		unmockListMatchesFrom := rt.unmockRegex != nil && rt.unmockRegex.MatchString(from)
		currentForcedReal := rt.explicitMock.Get(currentID) == registry.ForceReal
		if unmockListMatchesFrom || currentForcedReal {
			rt.transitiveUnmock.Set(id, false)
			rt.shouldMockCache.SetByID(id, false)
			return false, nil
		}
	}

	// Rule 8: default to mock.
	rt.shouldMockCache.SetByID(id, true)
	return true, nil
}

func inNodeModules(path string) bool {
	return strings.Contains(path, "node_modules")
}
