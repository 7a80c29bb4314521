// Package moduleid computes and memoises module identifiers: the
// canonical (kind, absolutePath, mockPath) triple spec.md §3 defines as
// "a function of the (requesting-file, specifier) pair only."
package moduleid

import (
	"path/filepath"
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

// Kind classifies a module identifier per spec.md §3.
type Kind int

const (
	KindUser Kind = iota
	KindBuiltin
)

func (k Kind) String() string {
	if k == KindBuiltin {
		return "built-in"
	}
	return "user"
}

// Identifier is the canonical (kind, absolutePath, mockPath) triple used
// as a cache key throughout the runtime.
type Identifier struct {
	Kind         Kind
	AbsolutePath string
	MockPath     string
}

// String serialises the identifier using the host path-list separator,
// per spec.md §3.
func (id Identifier) String() string {
	return id.Kind.String() + string(filepath.ListSeparator) + id.AbsolutePath + string(filepath.ListSeparator) + id.MockPath
}

// VirtualMockSet reports whether a computed virtual-mock candidate path
// has been registered via the facade's mock(..., {virtual:true}) call.
// It is implemented by internal/registry.VirtualMockSet; declared here to
// keep this package independent of the registry package.
type VirtualMockSet interface {
	Has(path string) bool
}

// Normaliser computes module identifiers for one Runtime instance.
//
// spec.md §3 calls the identifier memo table "process-wide". Open
// Question #2 in spec.md §9 flags that the identifier can, in the
// original, differ for the same (from, specifier) depending on resolver
// state mutations, and instructs implementers to "treat resolver state
// as effectively immutable during a run" to sidestep the ambiguity. A
// strictly process-wide table would still be wrong here, though: the
// virtual-mock set consulted in step (a) is per-Runtime-instance state,
// not process state, so two Runtime instances in the same process (e.g.
// a test suite constructing one Runtime per test file) must not share
// memoised identifiers. This implementation resolves that by keeping one
// memo table per Normaliser (i.e. per Runtime), which is process-wide in
// the sense of spec.md's stated invariant — stable for the lifetime of
// one run — without leaking across unrelated Runtime instances.
type Normaliser struct {
	resolver contracts.Resolver
	virtual  VirtualMockSet

	mu   sync.Mutex
	memo map[string]Identifier
}

// New constructs a Normaliser bound to resolver and virtual.
func New(resolver contracts.Resolver, virtual VirtualMockSet) *Normaliser {
	return &Normaliser{
		resolver: resolver,
		virtual:  virtual,
		memo:     make(map[string]Identifier),
	}
}

// Normalise computes the identifier for (from, specifier), memoising the
// result. specifier may be empty, in which case it denotes "from itself"
// (used by the mock-policy oracle's transitive-unmock rule, spec.md §4.2
// rule 7).
//
// Normalise never fails: spec.md §4.2 step 5 and §4.3 step 4 each
// perform their own resolution and their own failure handling (falling
// back to a manual mock, or propagating the error) at the point the
// spec actually calls for it. Identifier computation only needs a cache
// key, so when the specifier cannot be resolved at all — no real file,
// no manual mock, no virtual mock — the identifier simply carries an
// empty AbsolutePath; callers that need a hard resolution failure get it
// from their own explicit ResolveModule call. This is the resolution
// this package gives to spec.md §9 Open Questions #2 and #3: resolver
// state is treated as immutable during a run (so the memoised identifier
// is never wrong for a given (from, specifier)), and "manualMockResource"
// vs. "currentlyExecutingManualMock" are both absolute paths compared
// directly as strings.
func (n *Normaliser) Normalise(from, specifier string) Identifier {
	key := from + "\x00" + specifier
	n.mu.Lock()
	if id, ok := n.memo[key]; ok {
		n.mu.Unlock()
		return id
	}
	n.mu.Unlock()

	id := n.compute(from, specifier)

	n.mu.Lock()
	n.memo[key] = id
	n.mu.Unlock()
	return id
}

func (n *Normaliser) compute(from, specifier string) Identifier {
	if specifier == "" {
		// from is already an absolute path; there is nothing to resolve.
		return Identifier{Kind: KindUser, AbsolutePath: from, MockPath: n.resolver.GetMockModule(from, from)}
	}

	if n.resolver.IsCoreModule(specifier) {
		return Identifier{Kind: KindBuiltin, AbsolutePath: specifier}
	}

	mockPath := n.resolver.GetMockModule(from, specifier)

	// Priority (a): if neither a real nor a manual-mock resolver entry is
	// registered for the specifier, try the virtual-mock candidate path.
	if n.resolver.GetModule(specifier) == "" && mockPath == "" {
		candidate := VirtualCandidatePath(from, specifier)
		if n.virtual != nil && n.virtual.Has(candidate) {
			return Identifier{Kind: KindUser, AbsolutePath: candidate, MockPath: mockPath}
		}
	}

	// Priority (b): full resolution via the resolver. A failure here
	// leaves AbsolutePath empty rather than erroring — see the doc
	// comment on Normalise.
	absolutePath, err := n.resolver.ResolveModule(from, specifier)
	if err != nil {
		return Identifier{Kind: KindUser, MockPath: mockPath}
	}
	return Identifier{Kind: KindUser, AbsolutePath: absolutePath, MockPath: mockPath}
}

// VirtualCandidatePath computes the path a virtual mock for specifier
// would live at if it existed on disk, per spec.md §4.8: bare names pass
// through unchanged, relative specifiers are resolved against from's
// directory.
func VirtualCandidatePath(from, specifier string) string {
	if len(specifier) == 0 {
		return specifier
	}
	if specifier[0] != '.' && specifier[0] != '/' {
		return specifier
	}
	return filepath.Clean(filepath.Join(filepath.Dir(from), specifier))
}
