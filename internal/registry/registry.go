// Package registry holds the caches and tables spec.md §3 defines:
// the module registry, mock registry, mock factory table, explicit-mock
// table, transitive-unmock table, virtual-mock set, should-mock decision
// caches and mock-metadata cache. All of it is owned by one Runtime
// instance except the sentinel parent, which is shared process-wide
// since it carries no instance-specific state.
package registry

import (
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
	"github.com/sandboxtest/sandboxtest/internal/moduleid"
)

// ModuleRecord is the Go shape of spec.md §3's module record.
type ModuleRecord struct {
	Filename string
	Exports  any
	Parent   *ModuleRecord
	Children []*ModuleRecord
	Paths    []string
	Require  any

	// id is only meaningful on the sentinel parent record, per spec.md
	// §6's "Sentinel module identity" note.
	id string
}

// ID returns the record's id, empty for ordinary module records.
func (r *ModuleRecord) ID() string { return r.id }

// sentinelParent is the single shared record assigned as the parent of
// every executed module, per spec.md §3 and §6. It is process-wide: user
// code observing module.parent must see a stable value regardless of
// which Runtime instance executed the module.
var sentinelParent = &ModuleRecord{
	Exports:  map[string]any{},
	Filename: "mock.js",
	id:       "mockParent",
}

// SentinelParent returns the shared sentinel parent record.
func SentinelParent() *ModuleRecord { return sentinelParent }

// TriState models the explicit-mock table's {force-mock, force-real,
// unset} values from spec.md §3.
type TriState int

const (
	Unset TriState = iota
	ForceMock
	ForceReal
)

// ModuleRegistry caches real module records keyed by absolute path.
type ModuleRegistry struct {
	mu      sync.Mutex
	records map[string]*ModuleRecord
}

// NewModuleRegistry constructs an empty ModuleRegistry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{records: make(map[string]*ModuleRecord)}
}

// Get returns the record for path and whether it was present.
func (r *ModuleRegistry) Get(path string) (*ModuleRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[path]
	return rec, ok
}

// InsertPlaceholder inserts a new record with empty exports for path
// before execution begins, implementing the cycle-tolerant
// placeholder-first protocol of spec.md §4.3 step 5. It returns the
// newly inserted record; callers must not call this for a path that
// already has an entry.
func (r *ModuleRegistry) InsertPlaceholder(path string) *ModuleRecord {
	rec := &ModuleRecord{
		Filename: path,
		Exports:  map[string]any{},
		Parent:   sentinelParent,
	}
	r.mu.Lock()
	r.records[path] = rec
	r.mu.Unlock()
	return rec
}

// Reset drops all cached records.
func (r *ModuleRegistry) Reset() {
	r.mu.Lock()
	r.records = make(map[string]*ModuleRecord)
	r.mu.Unlock()
}

// MockRegistry caches delivered mock values keyed by module identifier.
type MockRegistry struct {
	mu    sync.Mutex
	mocks map[moduleid.Identifier]any
}

// NewMockRegistry constructs an empty MockRegistry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{mocks: make(map[moduleid.Identifier]any)}
}

// Get returns the cached mock for id, if any.
func (r *MockRegistry) Get(id moduleid.Identifier) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.mocks[id]
	return v, ok
}

// Set caches value as the mock for id.
func (r *MockRegistry) Set(id moduleid.Identifier, value any) {
	r.mu.Lock()
	r.mocks[id] = value
	r.mu.Unlock()
}

// Reset drops all cached mocks.
func (r *MockRegistry) Reset() {
	r.mu.Lock()
	r.mocks = make(map[moduleid.Identifier]any)
	r.mu.Unlock()
}

// MockFactoryTable maps identifiers to zero-arg producers installed by
// facade.Mock. It survives ResetModuleRegistry, per spec.md §3.
type MockFactoryTable struct {
	mu        sync.Mutex
	factories map[moduleid.Identifier]func() any
}

// NewMockFactoryTable constructs an empty MockFactoryTable.
func NewMockFactoryTable() *MockFactoryTable {
	return &MockFactoryTable{factories: make(map[moduleid.Identifier]func() any)}
}

func (t *MockFactoryTable) Set(id moduleid.Identifier, factory func() any) {
	t.mu.Lock()
	t.factories[id] = factory
	t.mu.Unlock()
}

func (t *MockFactoryTable) Get(id moduleid.Identifier) (func() any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.factories[id]
	return f, ok
}

func (t *MockFactoryTable) Delete(id moduleid.Identifier) {
	t.mu.Lock()
	delete(t.factories, id)
	t.mu.Unlock()
}

// ExplicitMockTable maps identifiers to their {force-mock, force-real,
// unset} state, per spec.md §3. It survives ResetModuleRegistry.
type ExplicitMockTable struct {
	mu    sync.Mutex
	state map[moduleid.Identifier]TriState
}

// NewExplicitMockTable constructs an empty ExplicitMockTable.
func NewExplicitMockTable() *ExplicitMockTable {
	return &ExplicitMockTable{state: make(map[moduleid.Identifier]TriState)}
}

func (t *ExplicitMockTable) Get(id moduleid.Identifier) TriState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[id]
}

func (t *ExplicitMockTable) Set(id moduleid.Identifier, state TriState) {
	t.mu.Lock()
	t.state[id] = state
	t.mu.Unlock()
}

// TransitiveUnmockTable maps identifiers to the boolean spec.md §3
// describes: false marks "this module and its dependency subtree are
// exempt from automock". It survives ResetModuleRegistry.
type TransitiveUnmockTable struct {
	mu    sync.Mutex
	state map[moduleid.Identifier]bool
	set   map[moduleid.Identifier]bool
}

// NewTransitiveUnmockTable constructs an empty TransitiveUnmockTable.
func NewTransitiveUnmockTable() *TransitiveUnmockTable {
	return &TransitiveUnmockTable{state: make(map[moduleid.Identifier]bool), set: make(map[moduleid.Identifier]bool)}
}

// Get returns the stored value and whether an entry exists at all.
func (t *TransitiveUnmockTable) Get(id moduleid.Identifier) (bool, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set[id]
	return t.state[id], ok
}

func (t *TransitiveUnmockTable) Set(id moduleid.Identifier, value bool) {
	t.mu.Lock()
	t.state[id] = value
	t.set[id] = true
	t.mu.Unlock()
}

// VirtualMockSet is the set of paths registered via
// mock(name, factory, {virtual:true}), per spec.md §3 and §4.7.
type VirtualMockSet struct {
	mu    sync.Mutex
	paths map[string]struct{}
}

// NewVirtualMockSet constructs an empty VirtualMockSet.
func NewVirtualMockSet() *VirtualMockSet {
	return &VirtualMockSet{paths: make(map[string]struct{})}
}

// Has reports whether path has been registered as a virtual mock.
func (s *VirtualMockSet) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.paths[path]
	return ok
}

// Add registers path as a virtual mock.
func (s *VirtualMockSet) Add(path string) {
	s.mu.Lock()
	s.paths[path] = struct{}{}
	s.mu.Unlock()
}

// ShouldMockCache holds the should-mock memo table spec.md §4.2 rule 4
// reads and rules 5-8 write: keyed by identifier alone, since the
// decision procedure's text never conditions a cache lookup or write on
// the requesting file, only on the resolved identifier. Per spec.md,
// entries "must be cleared only when the policy inputs they summarise
// change (in practice, not during a single test)" — so
// ResetModuleRegistry does NOT clear this cache; see DESIGN.md.
type ShouldMockCache struct {
	mu   sync.Mutex
	byID map[moduleid.Identifier]bool
}

// NewShouldMockCache constructs an empty ShouldMockCache.
func NewShouldMockCache() *ShouldMockCache {
	return &ShouldMockCache{
		byID: make(map[moduleid.Identifier]bool),
	}
}

func (c *ShouldMockCache) GetByID(id moduleid.Identifier) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.byID[id]
	return v, ok
}

func (c *ShouldMockCache) SetByID(id moduleid.Identifier, value bool) {
	c.mu.Lock()
	c.byID[id] = value
	c.mu.Unlock()
}

// MetadataCache caches automock metadata keyed by absolute path. It
// survives ResetModuleRegistry since regenerating metadata is expensive
// and deterministic in the module's source, per spec.md §3.
type MetadataCache struct {
	mu    sync.Mutex
	cache map[string]contracts.Metadata
}

// NewMetadataCache constructs an empty MetadataCache.
func NewMetadataCache() *MetadataCache {
	return &MetadataCache{cache: make(map[string]contracts.Metadata)}
}

func (c *MetadataCache) Get(path string) (contracts.Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.cache[path]
	return v, ok
}

func (c *MetadataCache) Set(path string, meta contracts.Metadata) {
	c.mu.Lock()
	c.cache[path] = meta
	c.mu.Unlock()
}
