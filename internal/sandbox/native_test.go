package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

type stubScript struct {
	filename string
	wrapper  contracts.WrapperFunc
}

func (s *stubScript) Filename() string             { return s.filename }
func (s *stubScript) Wrapper() contracts.WrapperFunc { return s.wrapper }

func TestEnvironment_RunScriptExposesWrapper(t *testing.T) {
	e := New()
	called := false
	script := &stubScript{filename: "/src/a.native", wrapper: func(args contracts.WrapperArgs) error {
		called = true
		return nil
	}}

	result, err := e.RunScript(script)
	require.NoError(t, err)

	wrapper, ok := result[contracts.WrapperProperty].(contracts.WrapperFunc)
	require.True(t, ok)
	require.NoError(t, wrapper(contracts.WrapperArgs{}))
	assert.True(t, called)
}

func TestEnvironment_DisposeTearsDown(t *testing.T) {
	e := New()
	assert.False(t, e.TornDown())
	e.Dispose()
	assert.True(t, e.TornDown())
	assert.Nil(t, e.Global())
}

func TestEnvironment_ParseJSON(t *testing.T) {
	e := New()
	v, err := e.ParseJSON(strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.0, m["a"])
}

func TestTimers_RunAllTimersOrdersByDelayThenInsertion(t *testing.T) {
	tm := newTimers()
	var order []string

	tm.ScheduleTimer(10, func() { order = append(order, "b") })
	tm.ScheduleTimer(5, func() { order = append(order, "a") })
	tm.ScheduleTimer(5, func() { order = append(order, "a2") })

	tm.RunAllTimers()
	assert.Equal(t, []string{"a", "a2", "b"}, order)
}

func TestTimers_RunAllTimersDrainsTimersScheduledByCallbacks(t *testing.T) {
	tm := newTimers()
	ran := 0
	var schedule func()
	schedule = func() {
		ran++
		if ran < 3 {
			tm.ScheduleTimer(1, schedule)
		}
	}
	tm.ScheduleTimer(1, schedule)

	tm.RunAllTimers()
	assert.Equal(t, 3, ran)
}

func TestTimers_RunOnlyPendingTimersIgnoresRescheduled(t *testing.T) {
	tm := newTimers()
	ran := 0
	tm.ScheduleTimer(1, func() {
		ran++
		tm.ScheduleTimer(1, func() { ran++ })
	})

	tm.RunOnlyPendingTimers()
	assert.Equal(t, 1, ran)
}

func TestTimers_ClearAllTimersDropsQueues(t *testing.T) {
	tm := newTimers()
	ran := false
	tm.ScheduleTick(func() { ran = true })
	tm.ScheduleImmediate(func() { ran = true })
	tm.ScheduleTimer(1, func() { ran = true })

	tm.ClearAllTimers()

	tm.RunAllTicks()
	tm.RunAllImmediates()
	tm.RunAllTimers()
	assert.False(t, ran)
}
