// Package sandbox implements the default contracts.SandboxEnvironment: a
// plain Go global bag, a script evaluator that invokes a
// transform.NativeScript's wrapper closure directly, a JSON parser for
// ".json" modules, and a manually-driven fake-timer queue so timer
// control never touches the wall clock (spec.md §5's synchronous model).
package sandbox

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sandboxtest/sandboxtest/internal/contracts"
)

// scriptWithWrapper is implemented by Script values this environment
// knows how to run. transform.NativeScript satisfies it.
type scriptWithWrapper interface {
	contracts.Script
	Wrapper() contracts.WrapperFunc
}

// Environment is the default SandboxEnvironment.
type Environment struct {
	mu       sync.Mutex
	global   map[string]any
	tornDown bool
	timers   *Timers
}

// New constructs a fresh Environment with an empty global bag.
func New() *Environment {
	return &Environment{
		global: make(map[string]any),
		timers: newTimers(),
	}
}

var _ contracts.SandboxEnvironment = (*Environment)(nil)

// Global returns the sandbox's global bag, or nil once torn down.
func (e *Environment) Global() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tornDown {
		return nil
	}
	return e.global
}

// TornDown reports whether Dispose has been called.
func (e *Environment) TornDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tornDown
}

// Dispose tears the environment down; subsequent Global calls return
// nil and TornDown reports true. RunScript does not check the torn-down
// state itself.
func (e *Environment) Dispose() {
	e.mu.Lock()
	e.tornDown = true
	e.global = nil
	e.mu.Unlock()
}

// RunScript evaluates script by invoking its wrapper closure directly
// and exposing it under contracts.WrapperProperty, mirroring the "known
// property name" spec.md §4.5 step 6 describes for a real VM's
// evaluation result.
func (e *Environment) RunScript(script contracts.Script) (map[string]any, error) {
	sw, ok := script.(scriptWithWrapper)
	if !ok {
		return nil, fmt.Errorf("sandboxtest: sandbox environment cannot evaluate script of type %T", script)
	}
	return map[string]any{
		contracts.WrapperProperty: sw.Wrapper(),
	}, nil
}

// ParseJSON implements the sandbox's parser for .json modules, per
// spec.md §4.3 step 5.
func (e *Environment) ParseJSON(r io.Reader) (any, error) {
	var v any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("sandboxtest: parsing json module: %w", err)
	}
	return v, nil
}

// Timers returns the fake-timer controller.
func (e *Environment) Timers() contracts.FakeTimers { return e.timers }

// NativeTimers returns the concrete *Timers, for tests and native
// modules that need to schedule callbacks directly.
func (e *Environment) NativeTimers() *Timers { return e.timers }

// pendingTimer is one scheduled callback.
type pendingTimer struct {
	delay int
	seq   int
	fn    func()
}

// Timers is a manually-driven virtual clock: nothing here reads the
// wall clock, so control is entirely deterministic, matching spec.md
// §5's "no timeouts, no suspension" model.
type Timers struct {
	mu         sync.Mutex
	useFake    bool
	nextSeq    int
	ticks      []func()
	immediates []func()
	timers     []pendingTimer
}

func newTimers() *Timers {
	return &Timers{useFake: true}
}

var _ contracts.FakeTimers = (*Timers)(nil)

func (t *Timers) UseFakeTimers() {
	t.mu.Lock()
	t.useFake = true
	t.mu.Unlock()
}

func (t *Timers) UseRealTimers() {
	t.mu.Lock()
	t.useFake = false
	t.ticks = nil
	t.immediates = nil
	t.timers = nil
	t.mu.Unlock()
}

func (t *Timers) ClearAllTimers() {
	t.mu.Lock()
	t.ticks = nil
	t.immediates = nil
	t.timers = nil
	t.mu.Unlock()
}

// ScheduleTick enqueues fn onto the microtask-like tick queue.
func (t *Timers) ScheduleTick(fn func()) {
	t.mu.Lock()
	t.ticks = append(t.ticks, fn)
	t.mu.Unlock()
}

// ScheduleImmediate enqueues fn onto the immediate queue.
func (t *Timers) ScheduleImmediate(fn func()) {
	t.mu.Lock()
	t.immediates = append(t.immediates, fn)
	t.mu.Unlock()
}

// ScheduleTimer enqueues fn to run after delay "ticks" of virtual time.
func (t *Timers) ScheduleTimer(delay int, fn func()) {
	t.mu.Lock()
	t.nextSeq++
	t.timers = append(t.timers, pendingTimer{delay: delay, seq: t.nextSeq, fn: fn})
	t.mu.Unlock()
}

func (t *Timers) RunAllTicks() {
	for {
		t.mu.Lock()
		if len(t.ticks) == 0 {
			t.mu.Unlock()
			return
		}
		fn := t.ticks[0]
		t.ticks = t.ticks[1:]
		t.mu.Unlock()
		fn()
	}
}

func (t *Timers) RunAllImmediates() {
	for {
		t.mu.Lock()
		if len(t.immediates) == 0 {
			t.mu.Unlock()
			return
		}
		fn := t.immediates[0]
		t.immediates = t.immediates[1:]
		t.mu.Unlock()
		fn()
	}
}

// RunAllTimers drains the timer queue to exhaustion, including timers
// scheduled by callbacks it runs, ordered by (delay, insertion order).
func (t *Timers) RunAllTimers() {
	for {
		t.mu.Lock()
		if len(t.timers) == 0 {
			t.mu.Unlock()
			return
		}
		sort.SliceStable(t.timers, func(i, j int) bool {
			if t.timers[i].delay != t.timers[j].delay {
				return t.timers[i].delay < t.timers[j].delay
			}
			return t.timers[i].seq < t.timers[j].seq
		})
		next := t.timers[0]
		t.timers = t.timers[1:]
		t.mu.Unlock()
		next.fn()
	}
}

// RunOnlyPendingTimers runs exactly the timers pending at the moment of
// the call, ignoring any scheduled by those callbacks.
func (t *Timers) RunOnlyPendingTimers() {
	t.mu.Lock()
	sort.SliceStable(t.timers, func(i, j int) bool {
		if t.timers[i].delay != t.timers[j].delay {
			return t.timers[i].delay < t.timers[j].delay
		}
		return t.timers[i].seq < t.timers[j].seq
	})
	batch := t.timers
	t.timers = nil
	t.mu.Unlock()

	for _, pt := range batch {
		pt.fn()
	}
}
