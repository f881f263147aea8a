package reconcile

import (
	"fmt"
	"reflect"
)

// hookState is the per-component-fiber hook storage
type hookState struct {
	slots []any
	dead  bool
}

// Hooks gives a component access to state that survives re-renders.
// Hooks must be called in the same order on every render.
type Hooks struct {
	st      *hookState
	idx     int
	post    func(apply func())
	effects *[]*effectSlot
}

func (h *Hooks) slot(create func() any) any {
	if h.idx < len(h.st.slots) {
		s := h.st.slots[h.idx]
		h.idx++
		return s
	}
	s := create()
	h.st.slots = append(h.st.slots, s)
	h.idx++
	return s
}

// SetState applies update to the current state on the owning loop and
// schedules a re-render. Safe to call from any goroutine.
type SetState[T any] func(update func(T) T)

type stateSlot[T any] struct {
	value T
	set   SetState[T]
}

// UseState returns the current value and a stable setter
func UseState[T any](h *Hooks, initial T) (T, SetState[T]) {
	raw := h.slot(func() any {
		s := &stateSlot[T]{value: initial}
		st, post := h.st, h.post
		s.set = func(update func(T) T) {
			post(func() {
				if st.dead {
					return
				}
				s.value = update(s.value)
			})
		}
		return s
	})
	s, ok := raw.(*stateSlot[T])
	if !ok {
		panic(fmt.Sprintf("reconcile: hook %d changed type, got %T", h.idx-1, raw))
	}
	return s.value, s.set
}

// UseRef returns a pointer that is stable across renders
func UseRef[T any](h *Hooks, init func() T) *T {
	raw := h.slot(func() any {
		v := init()
		return &v
	})
	p, ok := raw.(*T)
	if !ok {
		panic(fmt.Sprintf("reconcile: hook %d changed type, got %T", h.idx-1, raw))
	}
	return p
}

type effectSlot struct {
	deps    []any
	ran     bool
	setup   func() func()
	cleanup func()
}

func (e *effectSlot) run() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.cleanup = e.setup()
}

func (e *effectSlot) dispose() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// UseEffect runs setup after the commit in which deps changed. A nil deps
// slice runs it after every commit; an empty one runs it once on mount.
// The returned cleanup (may be nil) runs before the next setup and on
// unmount.
func UseEffect(h *Hooks, deps []any, setup func() func()) {
	raw := h.slot(func() any { return &effectSlot{} })
	e, ok := raw.(*effectSlot)
	if !ok {
		panic(fmt.Sprintf("reconcile: hook %d changed type, got %T", h.idx-1, raw))
	}
	if e.ran && deps != nil && reflect.DeepEqual(e.deps, deps) {
		return
	}
	e.ran = true
	e.deps = deps
	e.setup = setup
	*h.effects = append(*h.effects, e)
}

// cleanups returns the cleanup of every effect in the state
func (s *hookState) cleanups() []func() {
	var out []func()
	for _, raw := range s.slots {
		if e, ok := raw.(*effectSlot); ok && e.cleanup != nil {
			out = append(out, e.dispose)
		}
	}
	return out
}
