package mockfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockFunction_RecordsCalls(t *testing.T) {
	m := New(nil)
	m.Call(1, 2)
	m.Call("a")

	calls := m.Calls()
	assert.Len(t, calls, 2)
	assert.Equal(t, []any{1, 2}, calls[0].Args)
	assert.Equal(t, []any{"a"}, calls[1].Args)
}

func TestMockFunction_DelegatesToImplementation(t *testing.T) {
	m := New(func(args ...any) []any { return []any{"called"} })
	results := m.Call()
	assert.Equal(t, []any{"called"}, results)
}

func TestMockFunction_MockReturnValue(t *testing.T) {
	m := New(nil)
	m.MockReturnValue(42)
	assert.Equal(t, []any{42}, m.Call())
}

func TestMockFunction_MockClearKeepsImplementation(t *testing.T) {
	m := New(nil)
	m.MockReturnValue(1)
	m.Call()
	m.MockClear()

	assert.Empty(t, m.Calls())
	assert.Equal(t, []any{1}, m.Call(), "implementation should survive MockClear")
}

func TestMockFunction_MockResetClearsImplementationToo(t *testing.T) {
	m := New(nil)
	m.MockReturnValue(1)
	m.Call()
	m.MockReset()

	assert.Empty(t, m.Calls())
	assert.Nil(t, m.Call())
}

func TestIsMockFunction(t *testing.T) {
	assert.True(t, IsMockFunction(New(nil)))
	assert.False(t, IsMockFunction("not a mock"))
	assert.False(t, IsMockFunction(nil))
}
