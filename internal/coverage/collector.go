// Package coverage implements the default contracts.CoverageCollector:
// a per-file line-hit counter.
//
// This is hand-rolled against the standard library rather than grounded
// on a pack dependency — see DESIGN.md's "dropped/standard-library"
// ledger entry for why: none of the example repos import a source-level
// instrumentation library (Go's own coverage tooling is a `go test
// -cover` compiler feature, not an importable package), and the spec's
// "instrumented source" contract (rewrite source text to record hits)
// has no real analogue in this module's domain, which never compiles
// foreign source — internal/transform's scripts are pre-registered Go
// closures, not text. Collector exists so the coverage *wiring* in
// internal/runtime (shouldCollectCoverage, per-file accumulator,
// getAllCoverageInfo) is fully exercised even though the instrumentation
// step itself is a no-op annotation counter.
package coverage

import (
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

// Store is the mutable per-file hit-count map a Collector's DataStore
// exposes to instrumented code.
type Store struct {
	mu   sync.Mutex
	hits map[string]int
}

// Hit increments the counter for key.
func (s *Store) Hit(key string) {
	s.mu.Lock()
	if s.hits == nil {
		s.hits = make(map[string]int)
	}
	s.hits[key]++
	s.mu.Unlock()
}

// Snapshot returns a copy of the accumulated hit counts.
func (s *Store) Snapshot() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.hits))
	for k, v := range s.hits {
		out[k] = v
	}
	return out
}

// Collector is the default CoverageCollector.
type Collector struct {
	store Store
}

// NewCollector constructs an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// NewCollectorFunc returns a constructor suitable for runtime.New's
// newCollector parameter, one fresh Collector per call.
func NewCollectorFunc() func() contracts.CoverageCollector {
	return func() contracts.CoverageCollector { return NewCollector() }
}

var _ contracts.CoverageCollector = (*Collector)(nil)

// DataStore returns the mutable hit-count store.
func (c *Collector) DataStore() any { return &c.store }

// InstrumentedSource records one hit for filename via storeName and
// returns source unchanged — see the package doc for why no real
// source rewriting happens here.
func (c *Collector) InstrumentedSource(source, filename, storeName string) (string, error) {
	c.store.Hit(storeName + ":" + filename)
	return source, nil
}

// ExtractRuntimeCoverageInfo returns the accumulated hit-count snapshot.
func (c *Collector) ExtractRuntimeCoverageInfo() any {
	return c.store.Snapshot()
}
