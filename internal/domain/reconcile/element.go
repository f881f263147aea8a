package reconcile

import (
	"fmt"
	"strconv"
)

// Props are the declared attributes of an element. The "children" entry
// holds the declared children exactly as written: a single node stays bare,
// several become a []Node.
type Props map[string]any

// ChildrenKey is the props entry holding declared children
const ChildrenKey = "children"

// Node is anything renderable: Element, string, a number, []Node, bool or nil.
// bool and nil render nothing but still occupy a sibling slot.
type Node = any

// Component is a named function component. Identity is the pointer, so
// define components once at package level.
type Component struct {
	Name   string
	Render func(h *Hooks, props Props) Node
}

// Define declares a function component
func Define(name string, render func(h *Hooks, props Props) Node) *Component {
	return &Component{Name: name, Render: render}
}

// Element describes one node of the UI tree. Type is a host kind (string)
// or a *Component.
type Element struct {
	Type  any
	Key   string
	Props Props
}

// H builds an element. props is copied; children are stored under
// ChildrenKey, bare when there is exactly one.
func H(typ any, props Props, children ...Node) Element {
	p := make(Props, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	switch len(children) {
	case 0:
	case 1:
		p[ChildrenKey] = children[0]
	default:
		p[ChildrenKey] = append([]Node(nil), children...)
	}
	return Element{Type: typ, Props: p}
}

// WithKey returns a copy of e with an explicit reconciliation key
func (e Element) WithKey(key string) Element {
	e.Key = key
	return e
}

// Fragment groups nodes without a host wrapper
func Fragment(children ...Node) []Node {
	return children
}

// Children returns the declared children of props as a list
func Children(props Props) []Node {
	switch v := props[ChildrenKey].(type) {
	case nil:
		return nil
	case []Node:
		return v
	default:
		return []Node{v}
	}
}

// TextOf converts a scalar node to the string a text leaf carries
func TextOf(n Node) (string, bool) {
	switch v := n.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
