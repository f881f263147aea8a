package reconcile

import "fmt"

type fiberKind uint8

const (
	kindHost fiberKind = iota
	kindText
	kindComponent
	kindFragment
)

// slotKey identifies a child position: explicit key or index among siblings
type slotKey struct {
	key   string
	index int
}

type fiber[I comparable] struct {
	kind  fiberKind
	typ   any
	slot  slotKey
	props Props
	text  string

	inst     I
	hostKids []I // host children as currently applied

	hooks    *hookState
	children []*fiber[I]
}

// Engine reconciles a UI description against a host tree through
// HostConfig. All methods except Render must run on the scheduler's loop.
type Engine[C any, I comparable, X any] struct {
	cfg       HostConfig[C, I, X]
	container C
	sched     Scheduler

	root     *fiber[I]
	rootNode Node
	rootKids []I
	queued   bool
	passes   int

	ops      []func()
	effects  []*effectSlot
	cleanups []func()
}

// New creates an engine bound to one container
func New[C any, I comparable, X any](cfg HostConfig[C, I, X], container C, sched Scheduler) *Engine[C, I, X] {
	return &Engine[C, I, X]{
		cfg:       cfg,
		container: container,
		sched:     sched,
		root:      &fiber[I]{kind: kindFragment},
	}
}

// Render replaces the root description and schedules a pass
func (e *Engine[C, I, X]) Render(node Node) {
	e.sched.Post(func() {
		e.rootNode = node
		e.schedule()
	})
}

// Unmount removes everything under the root and runs effect cleanups
func (e *Engine[C, I, X]) Unmount() {
	e.Render(nil)
}

// Passes returns the number of completed reconciliation passes
func (e *Engine[C, I, X]) Passes() int {
	return e.passes
}

func (e *Engine[C, I, X]) schedule() {
	if e.queued {
		return
	}
	e.queued = true
	e.sched.Post(e.Flush)
}

func (e *Engine[C, I, X]) post(apply func()) {
	e.sched.Post(func() {
		apply()
		e.schedule()
	})
}

// Flush runs one render and commit pass synchronously
func (e *Engine[C, I, X]) Flush() {
	e.queued = false
	hostCtx := e.cfg.GetRootHostContext(e.container)

	e.root.children = e.reconcileChildren(e.root.children, []Node{e.rootNode}, hostCtx)
	desired := collectHost(e.root.children)
	e.diffKids(e.rootKids, desired,
		func(c I) { e.cfg.RemoveChildFromContainer(e.container, c) },
		func(c I) { e.cfg.AppendChildToContainer(e.container, c) },
	)
	e.rootKids = desired

	e.commit()
}

func (e *Engine[C, I, X]) commit() {
	e.cfg.PrepareForCommit(e.container)
	ops := e.ops
	e.ops = nil
	for _, op := range ops {
		op()
	}
	e.cfg.ResetAfterCommit(e.container)
	e.passes++

	cleanups, effects := e.cleanups, e.effects
	e.cleanups, e.effects = nil, nil
	for _, c := range cleanups {
		c()
	}
	for _, eff := range effects {
		eff.run()
	}
}

func (e *Engine[C, I, X]) reconcileChildren(old []*fiber[I], nodes []Node, hostCtx X) []*fiber[I] {
	bySlot := make(map[slotKey]*fiber[I], len(old))
	for _, f := range old {
		bySlot[f.slot] = f
	}

	out := make([]*fiber[I], 0, len(nodes))
	for i, n := range nodes {
		kind, typ, key, ok := classify(n)
		if !ok {
			continue
		}
		slot := slotKey{index: i}
		if key != "" {
			slot = slotKey{key: key, index: -1}
		}

		prev := bySlot[slot]
		if prev != nil && prev.kind == kind && prev.typ == typ {
			delete(bySlot, slot)
			e.update(prev, n, hostCtx)
			out = append(out, prev)
			continue
		}
		f := &fiber[I]{kind: kind, typ: typ, slot: slot}
		e.mount(f, n, hostCtx)
		out = append(out, f)
	}

	for _, f := range bySlot {
		e.unmount(f)
	}
	return out
}

func classify(n Node) (fiberKind, any, string, bool) {
	switch v := n.(type) {
	case nil, bool:
		return 0, nil, "", false
	case Element:
		switch t := v.Type.(type) {
		case string:
			return kindHost, t, v.Key, true
		case *Component:
			return kindComponent, t, v.Key, true
		}
		panic(fmt.Sprintf("reconcile: unsupported element type %T", v.Type))
	case []Node:
		return kindFragment, nil, "", true
	}
	if _, ok := TextOf(n); ok {
		return kindText, nil, "", true
	}
	panic(fmt.Sprintf("reconcile: unsupported node %T", n))
}

func (e *Engine[C, I, X]) mount(f *fiber[I], n Node, hostCtx X) {
	switch f.kind {
	case kindText:
		f.text, _ = TextOf(n)
		f.inst = e.cfg.CreateTextInstance(f.text, e.container, hostCtx)

	case kindHost:
		el := n.(Element)
		kind := f.typ.(string)
		f.props = el.Props
		childCtx := e.cfg.GetChildHostContext(hostCtx, kind, e.container)
		if !e.cfg.ShouldSetTextContent(kind, f.props) {
			f.children = e.reconcileChildren(nil, Children(f.props), childCtx)
		}
		f.inst = e.cfg.CreateInstance(kind, f.props, e.container, hostCtx)
		f.hostKids = collectHost(f.children)
		for _, c := range f.hostKids {
			e.cfg.AppendInitialChild(f.inst, c)
		}
		if e.cfg.FinalizeInitialChildren(f.inst, kind, f.props, e.container, hostCtx) {
			inst, props := f.inst, f.props
			e.ops = append(e.ops, func() { e.cfg.CommitMount(inst, kind, props) })
		}

	case kindComponent:
		f.hooks = &hookState{}
		e.renderComponent(f, n.(Element), hostCtx)

	case kindFragment:
		f.children = e.reconcileChildren(nil, n.([]Node), hostCtx)
	}
}

func (e *Engine[C, I, X]) update(f *fiber[I], n Node, hostCtx X) {
	switch f.kind {
	case kindText:
		text, _ := TextOf(n)
		if text != f.text {
			inst, oldText := f.inst, f.text
			e.ops = append(e.ops, func() { e.cfg.CommitTextUpdate(inst, oldText, text) })
			f.text = text
		}

	case kindHost:
		el := n.(Element)
		kind := f.typ.(string)
		oldProps, newProps := f.props, el.Props
		f.props = newProps
		childCtx := e.cfg.GetChildHostContext(hostCtx, kind, e.container)
		var nodes []Node
		if !e.cfg.ShouldSetTextContent(kind, newProps) {
			nodes = Children(newProps)
		}
		f.children = e.reconcileChildren(f.children, nodes, childCtx)

		if payload := e.cfg.PrepareUpdate(f.inst, kind, oldProps, newProps, e.container, hostCtx); payload != nil {
			inst := f.inst
			e.ops = append(e.ops, func() { e.cfg.CommitUpdate(inst, payload, kind, oldProps, newProps) })
		}

		parent := f.inst
		desired := collectHost(f.children)
		e.diffKids(f.hostKids, desired,
			func(c I) { e.cfg.RemoveChild(parent, c) },
			func(c I) { e.cfg.AppendChild(parent, c) },
		)
		f.hostKids = desired

	case kindComponent:
		e.renderComponent(f, n.(Element), hostCtx)

	case kindFragment:
		f.children = e.reconcileChildren(f.children, n.([]Node), hostCtx)
	}
}

func (e *Engine[C, I, X]) renderComponent(f *fiber[I], el Element, hostCtx X) {
	f.props = el.Props
	h := &Hooks{st: f.hooks, post: e.post, effects: &e.effects}
	out := f.typ.(*Component).Render(h, el.Props)
	f.children = e.reconcileChildren(f.children, []Node{out}, hostCtx)
}

// unmount marks the subtree dead and queues its effect cleanups. Host
// removal is handled by the parent's children diff.
func (e *Engine[C, I, X]) unmount(f *fiber[I]) {
	if f.hooks != nil {
		f.hooks.dead = true
		e.cleanups = append(e.cleanups, f.hooks.cleanups()...)
	}
	for _, c := range f.children {
		e.unmount(c)
	}
}

// diffKids queues the remove and append calls that turn cur into desired.
// Surviving nodes after the first divergence are removed and re-appended.
func (e *Engine[C, I, X]) diffKids(cur, desired []I, remove, appendFn func(I)) {
	keep := make(map[I]struct{}, len(desired))
	for _, d := range desired {
		keep[d] = struct{}{}
	}
	survivors := make([]I, 0, len(cur))
	for _, c := range cur {
		if _, ok := keep[c]; ok {
			survivors = append(survivors, c)
			continue
		}
		c := c
		e.ops = append(e.ops, func() { remove(c) })
	}

	p := 0
	for p < len(survivors) && p < len(desired) && survivors[p] == desired[p] {
		p++
	}
	for _, c := range survivors[p:] {
		c := c
		e.ops = append(e.ops, func() { remove(c) })
	}
	for _, c := range desired[p:] {
		c := c
		e.ops = append(e.ops, func() { appendFn(c) })
	}
}

// collectHost returns the nearest host instances under fibers, in order
func collectHost[I comparable](fibers []*fiber[I]) []I {
	var out []I
	for _, f := range fibers {
		switch f.kind {
		case kindHost, kindText:
			out = append(out, f.inst)
		default:
			out = append(out, collectHost(f.children)...)
		}
	}
	return out
}
