package runtime

import "github.com/sandboxtest/sandboxtest/internal/contracts"

// shouldCollectCoverage implements spec.md §4.9: coverage is enabled,
// and (no allow-list is configured, or filename is in it), and filename
// matches neither the coverage-ignore pattern, the mocks pattern, nor
// the test pattern.
func (rt *Runtime) shouldCollectCoverage(filename string) bool {
	cfg := rt.config
	if !cfg.CollectCoverage {
		return false
	}
	if len(cfg.CollectCoverageOnlyFrom) > 0 {
		if _, ok := cfg.CollectCoverageOnlyFrom[filename]; !ok {
			return false
		}
	}
	for _, re := range cfg.CoveragePathIgnorePatterns {
		if re.MatchString(filename) {
			return false
		}
	}
	if cfg.MocksPattern != nil && cfg.MocksPattern.MatchString(filename) {
		return false
	}
	if cfg.TestRegex != nil && cfg.TestRegex.MatchString(filename) {
		return false
	}
	return true
}

// collectorFor returns (creating if necessary) the coverage collector
// for filename. Collectors are owned by the Runtime for its whole
// lifetime and are not cleared by ResetModuleRegistry.
func (rt *Runtime) collectorFor(filename string) contracts.CoverageCollector {
	rt.collectorsMu.Lock()
	defer rt.collectorsMu.Unlock()

	if c, ok := rt.collectors[filename]; ok {
		return c
	}
	c := rt.newCollector()
	rt.collectors[filename] = c
	return c
}
