// Package contracts defines the interfaces the runtime core depends on but
// does not implement itself: module resolution, source transformation,
// sandboxed evaluation, mock-metadata introspection, and coverage
// collection. spec.md §1 calls these "external collaborators, referenced
// only by contract" — this package is that contract, plus default
// implementations live in sibling packages (internal/resolve,
// internal/transform, internal/sandbox, internal/automock,
// internal/coverage).
package contracts

import "io"

// WrapperProperty is the key under which a Script's evaluation result
// exposes its module wrapper function, per spec.md §4.5 step 6.
const WrapperProperty = "__sandboxtest_wrapper__"

// Resolver maps (requesting-file, specifier) pairs to absolute paths and
// classifies specifiers, per spec.md §6.
type Resolver interface {
	// ResolveModule resolves specifier relative to from. Returns an error
	// if no module can be found.
	ResolveModule(from, specifier string) (string, error)

	// GetModule looks up specifier in a haste-style flat index, returning
	// "" if there is no such entry.
	GetModule(specifier string) string

	// GetMockModule looks up a manual mock for specifier, returning "" if
	// none is registered.
	GetMockModule(from, specifier string) string

	// IsCoreModule reports whether specifier names a built-in module that
	// bypasses filesystem resolution entirely.
	IsCoreModule(specifier string) bool

	// GetModulePaths returns the module search-path list for dir, used to
	// populate a module record's Paths field.
	GetModulePaths(dir string) []string
}

// WrapperFunc is the shape every module body is invoked with, per
// spec.md §4.5 step 7's fixed argument order.
type WrapperFunc func(args WrapperArgs) error

// WrapperArgs carries the positional arguments a module wrapper receives.
type WrapperArgs struct {
	Exports   any
	Module    any
	Require   any
	Dirname   string
	Filename  string
	Global    any
	Facade    any
	Coverage  any
}

// Script is the result of transforming source into something the sandbox
// can evaluate. RunScript on a SandboxEnvironment turns it into an
// evaluation result whose WrapperProperty field is a WrapperFunc.
type Script interface {
	// Filename is the absolute path the script was compiled from.
	Filename() string
}

// InstrumentHook lets a Transformer ask the coverage collector to
// annotate source before compiling it, per spec.md §4.9.
type InstrumentHook func(source, filename string) (string, error)

// TransformOptions configures a single Transform call.
type TransformOptions struct {
	// Instrument, if non-nil, is called with the raw source before
	// compilation so coverage annotations can be woven in.
	Instrument InstrumentHook
}

// Transformer turns source text for filename into an evaluable Script.
type Transformer interface {
	Transform(filename string, opts TransformOptions) (Script, error)
}

// FakeTimers is the subset of sandbox-environment timer control the test
// facade delegates to, per spec.md §4.7 and the sandbox contract in §6.
type FakeTimers interface {
	UseFakeTimers()
	UseRealTimers()
	ClearAllTimers()
	RunAllTicks()
	RunAllImmediates()
	RunAllTimers()
	RunOnlyPendingTimers()
}

// SandboxEnvironment evaluates Scripts against a fresh global bag, per
// spec.md §6.
type SandboxEnvironment interface {
	// Global returns the sandbox's global bag, or nil once torn down.
	Global() map[string]any

	// RunScript evaluates script and returns its evaluation result, a
	// map that must contain a WrapperFunc under WrapperProperty.
	RunScript(script Script) (map[string]any, error)

	// ParseJSON implements the "sandbox's parser" spec.md §4.3 step 5
	// calls for when loading a .json module.
	ParseJSON(r io.Reader) (any, error)

	// Timers exposes fake-timer control.
	Timers() FakeTimers

	// TornDown reports whether the environment has been disposed, per
	// spec.md §4.5 step 1 and §7's ErrSandboxTornDown.
	TornDown() bool
}

// Metadata is an opaque, serialisable description of a live value's
// shape, produced by MetadataProvider.GetMetadata.
type Metadata interface {
	// ModulePath is the absolute path of the module the metadata was
	// captured from, used in error messages.
	ModulePath() string
}

// MetadataProvider introspects a live value into Metadata and
// re-materialises Metadata into a mock value, per spec.md §6.
type MetadataProvider interface {
	GetMetadata(modulePath string, value any) (Metadata, error)
	GenerateFromMetadata(meta Metadata) (any, error)
	IsMockFunction(value any) bool
}

// CoverageCollector accumulates per-file coverage data, per spec.md §6.
type CoverageCollector interface {
	// DataStore returns the mutable store instrumented code writes hit
	// counts into.
	DataStore() any

	// InstrumentedSource annotates source with counters under storeName,
	// returning the rewritten source.
	InstrumentedSource(source, filename, storeName string) (string, error)

	// ExtractRuntimeCoverageInfo returns the accumulated coverage data.
	ExtractRuntimeCoverageInfo() any
}
