package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandboxtest/sandboxtest/internal/moduleid"
)

func TestModuleRegistry_InsertPlaceholderThenGet(t *testing.T) {
	reg := NewModuleRegistry()

	rec := reg.InsertPlaceholder("/src/a.native")
	assert.Equal(t, "/src/a.native", rec.Filename)
	assert.Same(t, SentinelParent(), rec.Parent)

	got, ok := reg.Get("/src/a.native")
	assert.True(t, ok)
	assert.Same(t, rec, got)
}

func TestModuleRegistry_ResetDropsRecords(t *testing.T) {
	reg := NewModuleRegistry()
	reg.InsertPlaceholder("/src/a.native")
	reg.Reset()

	_, ok := reg.Get("/src/a.native")
	assert.False(t, ok)
}

func TestSentinelParent_SharedAcrossRegistries(t *testing.T) {
	a := NewModuleRegistry().InsertPlaceholder("/src/a.native")
	b := NewModuleRegistry().InsertPlaceholder("/src/b.native")
	assert.Same(t, a.Parent, b.Parent)
	assert.Equal(t, "mockParent", SentinelParent().ID())
}

func TestMockRegistry_SetGetReset(t *testing.T) {
	reg := NewMockRegistry()
	id := moduleid.Identifier{Kind: moduleid.KindUser, AbsolutePath: "/src/a.native"}

	_, ok := reg.Get(id)
	assert.False(t, ok)

	reg.Set(id, "mocked")
	v, ok := reg.Get(id)
	assert.True(t, ok)
	assert.Equal(t, "mocked", v)

	reg.Reset()
	_, ok = reg.Get(id)
	assert.False(t, ok)
}

func TestExplicitMockTable_DefaultsToUnset(t *testing.T) {
	tbl := NewExplicitMockTable()
	id := moduleid.Identifier{AbsolutePath: "/src/a.native"}
	assert.Equal(t, Unset, tbl.Get(id))

	tbl.Set(id, ForceMock)
	assert.Equal(t, ForceMock, tbl.Get(id))
}

func TestTransitiveUnmockTable_GetReportsExistence(t *testing.T) {
	tbl := NewTransitiveUnmockTable()
	id := moduleid.Identifier{AbsolutePath: "/src/a.native"}

	_, exists := tbl.Get(id)
	assert.False(t, exists)

	tbl.Set(id, false)
	value, exists := tbl.Get(id)
	assert.True(t, exists)
	assert.False(t, value)
}

func TestVirtualMockSet_AddAndHas(t *testing.T) {
	s := NewVirtualMockSet()
	assert.False(t, s.Has("/src/virtual.native"))
	s.Add("/src/virtual.native")
	assert.True(t, s.Has("/src/virtual.native"))
}

func TestShouldMockCache_GetMissesUntilSet(t *testing.T) {
	c := NewShouldMockCache()
	id := moduleid.Identifier{AbsolutePath: "/src/a.native"}

	_, ok := c.GetByID(id)
	assert.False(t, ok)

	c.SetByID(id, true)
	v, ok := c.GetByID(id)
	assert.True(t, ok)
	assert.True(t, v)
}

func TestMetadataCache_SetGet(t *testing.T) {
	c := NewMetadataCache()
	_, ok := c.Get("/src/a.native")
	assert.False(t, ok)
}
