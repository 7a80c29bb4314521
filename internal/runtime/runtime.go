// Package runtime implements the sandboxed module loader and mocking
// engine described by spec.md: module identity and caching, the
// real-vs-mock decision procedure, automatic mock synthesis, sandboxed
// invocation, the per-file test facade, coverage wiring, and registry
// reset.
//
// A Runtime is not safe for concurrent use by multiple goroutines, per
// spec.md §5: all require/requireMock operations run to completion on
// the calling goroutine, and re-entrant calls (a module's body calling
// require during its own execution) are the only form of "concurrency",
// made safe by module-registry placeholder-first insertion.
package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/moduleid"
	"github.com/sandboxtest/sandboxtest/internal/output"
	"github.com/sandboxtest/sandboxtest/internal/registry"
)

// unmockRegexCache is the process-wide, configuration-keyed cache of
// compiled unmock-list patterns spec.md §5 calls out: "two Runtime
// instances on the same configuration share the compiled pattern."
var unmockRegexCache sync.Map // map[string]*regexp.Regexp

func compiledUnmockRegex(patterns []string) (*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	key := strings.Join(patterns, "\x00")
	if v, ok := unmockRegexCache.Load(key); ok {
		return v.(*regexp.Regexp), nil
	}
	combined := "(" + strings.Join(patterns, ")|(") + ")"
	re, err := regexp.Compile(combined)
	if err != nil {
		return nil, fmt.Errorf("sandboxtest: compiling unmockedModulePathPatterns: %w", err)
	}
	actual, _ := unmockRegexCache.LoadOrStore(key, re)
	return actual.(*regexp.Regexp), nil
}

// Runtime owns one Runtime instance's full set of caches and tables and
// drives module loading and mocking for one test file's dependency tree.
type Runtime struct {
	config      *Config
	resolver    contracts.Resolver
	transformer contracts.Transformer
	sandboxEnv  contracts.SandboxEnvironment
	metadata    contracts.MetadataProvider
	newCollector func() contracts.CoverageCollector

	normaliser *moduleid.Normaliser

	modules          *registry.ModuleRegistry
	mocks            *registry.MockRegistry
	factories        *registry.MockFactoryTable
	explicitMock     *registry.ExplicitMockTable
	transitiveUnmock *registry.TransitiveUnmockTable
	virtualMocks     *registry.VirtualMockSet
	shouldMockCache  *registry.ShouldMockCache
	metadataCache    *registry.MetadataCache

	collectorsMu sync.Mutex
	collectors   map[string]contracts.CoverageCollector

	automockGlobal bool
	unmockRegex    *regexp.Regexp
	matchers       *matcherRegistry

	currentlyExecutingPath       string
	currentlyExecutingManualMock string
}

// New constructs a Runtime and runs its configured setup files, per
// spec.md §4.8's constructor lifecycle.
func New(
	cfg *Config,
	resolver contracts.Resolver,
	transformer contracts.Transformer,
	sandboxEnv contracts.SandboxEnvironment,
	metadataProvider contracts.MetadataProvider,
	newCollector func() contracts.CoverageCollector,
) (*Runtime, error) {
	virtualMocks := registry.NewVirtualMockSet()

	rt := &Runtime{
		config:           cfg,
		resolver:         resolver,
		transformer:      transformer,
		sandboxEnv:       sandboxEnv,
		metadata:         metadataProvider,
		newCollector:     newCollector,
		normaliser:       moduleid.New(resolver, virtualMocks),
		modules:          registry.NewModuleRegistry(),
		mocks:            registry.NewMockRegistry(),
		factories:        registry.NewMockFactoryTable(),
		explicitMock:     registry.NewExplicitMockTable(),
		transitiveUnmock: registry.NewTransitiveUnmockTable(),
		virtualMocks:     virtualMocks,
		shouldMockCache:  registry.NewShouldMockCache(),
		metadataCache:    registry.NewMetadataCache(),
		collectors:       make(map[string]contracts.CoverageCollector),
		automockGlobal:   cfg.Automock,
		matchers:         newMatcherRegistry(),
	}

	unmockRe, err := compiledUnmockRegex(cfg.UnmockedModulePathPatterns)
	if err != nil {
		return nil, err
	}
	rt.unmockRegex = unmockRe

	// Step 3: flag node_modules-rooted setup files as transitive-unmocked
	// before they ever run, per spec.md §4.8 step 3.
	for _, setupFile := range cfg.SetupFiles {
		if strings.Contains(setupFile, "node_modules") {
			id := rt.normaliser.Normalise(setupFile, "")
			rt.transitiveUnmock.Set(id, false)
		}
	}

	// Step 4.
	rt.ResetModuleRegistry()

	// Step 5: run setup files with mocking disabled for them.
	savedAutomock := rt.automockGlobal
	rt.automockGlobal = false
	for _, setupFile := range cfg.SetupFiles {
		if _, err := rt.RequireModule(setupFile, ""); err != nil {
			rt.automockGlobal = savedAutomock
			return nil, fmt.Errorf("sandboxtest: running setup file %s: %w", setupFile, err)
		}
	}
	rt.automockGlobal = savedAutomock

	return rt, nil
}

// mockClearable is implemented by mockfn.MockFunction; declared locally
// so this package need not import mockfn just to reset its state.
type mockClearable interface {
	MockClear()
}

// ResetModuleRegistry drops the module and mock registries and clears
// every mock function reachable as an own property of the sandbox
// global, per spec.md §4.8.
//
// The should-mock caches, mock-metadata cache, mock factory table,
// explicit-mock table and transitive-unmock table are deliberately left
// untouched: spec.md §3 says the should-mock caches "must be cleared
// only when the policy inputs they summarise change (in practice, not
// during a single test)", and separately lists the mock factory table,
// explicit-mock table, transitive-unmock table and mock-metadata cache
// as surviving a reset explicitly.
func (rt *Runtime) ResetModuleRegistry() {
	rt.modules.Reset()
	rt.mocks.Reset()

	global := rt.sandboxEnv.Global()
	if global == nil {
		return
	}
	for _, v := range global {
		if mc, ok := v.(mockClearable); ok {
			mc.MockClear()
		}
	}
	if clearTimers, ok := global["mockClearTimers"].(func()); ok {
		clearTimers()
	}
	output.Debug("module registry reset")
}

// GetAllCoverageInfo returns a plain mapping from filename to extracted
// runtime coverage data, per spec.md §4.9.
func (rt *Runtime) GetAllCoverageInfo() map[string]any {
	rt.collectorsMu.Lock()
	defer rt.collectorsMu.Unlock()

	out := make(map[string]any, len(rt.collectors))
	for filename, collector := range rt.collectors {
		out[filename] = collector.ExtractRuntimeCoverageInfo()
	}
	return out
}
