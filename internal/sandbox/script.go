package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/domain/adapter"
	"github.com/GriffinCanCode/workerview/internal/domain/host"
	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
)

// KeyProp is the JS prop that becomes the element's reconciliation key
const KeyProp = "key"

// Script is a UI component written in JavaScript. The script defines a
// global render(props) function and may use two helpers:
//
//	h(type, props, ...children)  builds a "view", "text" or "btn" element
//	useState(initial)            returns [value, setValue]
//
// Function-valued props become handlers that run inside the sandbox.
type Script struct {
	name      string
	rt        *Runtime
	log       *logging.Logger
	render    goja.Callable
	hooks     *reconcile.Hooks
	component *reconcile.Component
}

// Load evaluates source and binds its render function
func Load(name, source string, config Config, log *logging.Logger) (*Script, error) {
	if log == nil {
		log = logging.Nop()
	}
	rt, err := New(config, log)
	if err != nil {
		return nil, err
	}

	s := &Script{name: name, rt: rt, log: logging.Wrap(log.Component("script").With(zap.String("script", name)))}
	if err := s.install(); err != nil {
		return nil, err
	}
	if _, err := rt.Execute(context.Background(), source); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	fn, ok := goja.AssertFunction(rt.vm.Get("render"))
	if !ok {
		return nil, fmt.Errorf("load %s: %w", name, ErrNoRender)
	}
	s.render = fn
	s.component = reconcile.Define(name, s.renderComponent)
	return s, nil
}

// LoadFile reads and loads a script from disk
func LoadFile(path string, config Config, log *logging.Logger) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Load(filepath.Base(path), string(data), config, log)
}

// Component returns the engine component backed by the script
func (s *Script) Component() *reconcile.Component {
	return s.component
}

// Root returns an element rendering the script with no props
func (s *Script) Root() reconcile.Element {
	return reconcile.H(s.component, nil)
}

// Runtime returns the underlying sandbox
func (s *Script) Runtime() *Runtime {
	return s.rt
}

func (s *Script) install() error {
	if err := s.rt.vm.Set("h", s.h); err != nil {
		return err
	}
	return s.rt.vm.Set("useState", s.useState)
}

func (s *Script) renderComponent(h *reconcile.Hooks, props reconcile.Props) reconcile.Node {
	s.hooks = h
	defer func() { s.hooks = nil }()

	if props == nil {
		props = reconcile.Props{}
	}
	val, err := s.rt.Call(context.Background(), s.render, s.rt.vm.ToValue(map[string]any(props)))
	if err == nil {
		var node reconcile.Node
		if node, err = s.node(Export(val)); err == nil {
			return node
		}
	}

	s.log.Error("script render failed", zap.Error(err))
	return reconcile.H(adapter.KindText, reconcile.Props{adapter.PropType: string(host.TextParagraph)},
		"script error: "+err.Error())
}

// h is the JS element factory
func (s *Script) h(call goja.FunctionCall) goja.Value {
	kind := call.Argument(0).String()
	switch kind {
	case adapter.KindView, adapter.KindText, adapter.KindBtn:
	default:
		panic(s.rt.vm.NewTypeError("unknown element type %q", kind))
	}

	props := s.props(call.Argument(1))
	var children []reconcile.Node
	if len(call.Arguments) > 2 {
		for _, arg := range call.Arguments[2:] {
			child, err := s.node(Export(arg))
			if err != nil {
				panic(s.rt.vm.NewTypeError("%s", err.Error()))
			}
			children = append(children, child)
		}
	}

	el := reconcile.H(kind, props, children...)
	if key, ok := el.Props[KeyProp]; ok {
		delete(el.Props, KeyProp)
		el = el.WithKey(fmt.Sprint(key))
	}
	return s.rt.vm.ToValue(el)
}

func (s *Script) props(v goja.Value) reconcile.Props {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj := v.ToObject(s.rt.vm)
	props := make(reconcile.Props, len(obj.Keys()))
	for _, k := range obj.Keys() {
		val := obj.Get(k)
		if fn, ok := goja.AssertFunction(val); ok {
			props[k] = s.handler(k, fn)
			continue
		}
		props[k] = Export(val)
	}
	return props
}

func (s *Script) handler(prop string, fn goja.Callable) func() {
	return func() {
		if _, err := s.rt.Call(context.Background(), fn); err != nil {
			s.log.Error("script handler failed", zap.String("prop", prop), zap.Error(err))
		}
	}
}

// node converts an exported JS value into an engine node
func (s *Script) node(v any) (reconcile.Node, error) {
	switch x := v.(type) {
	case nil, bool, string, int64, float64, reconcile.Element:
		return x, nil
	case []any:
		out := make([]reconcile.Node, len(x))
		for i, item := range x {
			n, err := s.node(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported node %T", v)
}

func (s *Script) useState(call goja.FunctionCall) goja.Value {
	if s.hooks == nil {
		panic(s.rt.vm.NewGoError(ErrNotInRender))
	}
	value, set := reconcile.UseState(s.hooks, call.Argument(0))

	setter := func(c goja.FunctionCall) goja.Value {
		next := c.Argument(0)
		set(func(old goja.Value) goja.Value {
			fn, ok := goja.AssertFunction(next)
			if !ok {
				return next
			}
			v, err := s.rt.Call(context.Background(), fn, old)
			if err != nil {
				s.log.Error("state update failed", zap.Error(err))
				return old
			}
			return v
		})
		return goja.Undefined()
	}
	return s.rt.vm.NewArray(value, setter)
}
