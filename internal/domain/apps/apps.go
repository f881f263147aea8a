// Package apps holds the built-in UIs rendered by the background context.
package apps

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/workerview/internal/domain/adapter"
	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
)

// PropInterval is the tick period of TickingText, a time.Duration
const PropInterval = "interval"

// Built-in app names
const (
	NameDemo    = "demo"
	NameCounter = "counter"
	NameTicker  = "ticker"
)

func text(typ string, children ...reconcile.Node) reconcile.Element {
	var props reconcile.Props
	if typ != "" {
		props = reconcile.Props{adapter.PropType: typ}
	}
	return reconcile.H(adapter.KindText, props, children...)
}

func button(onClick func(), children ...reconcile.Node) reconcile.Element {
	return reconcile.H(adapter.KindBtn, reconcile.Props{adapter.PropOnClick: onClick}, children...)
}

func decrement(c int) int { return c - 1 }
func increment(c int) int { return c + 1 }

// Counter renders a header, a decrement button, the current count and an
// increment button. Button ids follow that document order.
var Counter = reconcile.Define("Counter", func(h *reconcile.Hooks, _ reconcile.Props) reconcile.Node {
	count, setCount := reconcile.UseState(h, 0)
	return reconcile.Fragment(
		text("header", "Counter"),
		button(func() { setCount(decrement) }, "-"),
		text("", "count: ", count),
		button(func() { setCount(increment) }, "+"),
	)
})

// TickingText increments a counter every interval until unmounted
var TickingText = reconcile.Define("TickingText", func(h *reconcile.Hooks, props reconcile.Props) reconcile.Node {
	interval := intervalOf(props)
	count, setCount := reconcile.UseState(h, 0)

	reconcile.UseEffect(h, []any{}, func() func() {
		ticker := time.NewTicker(interval)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					setCount(increment)
				}
			}
		}()
		return func() {
			ticker.Stop()
			close(done)
		}
	})

	return reconcile.Fragment(
		text("header", "Ticking"),
		text("paragraph", "this increments every ", interval.Seconds(), " sec"),
		text("paragraph", "counter: ", count),
	)
})

// App is the full demo page
var App = reconcile.Define("App", func(_ *reconcile.Hooks, props reconcile.Props) reconcile.Node {
	return reconcile.Fragment(
		text("header", "Nothing to see here"),
		text("paragraph", "just a UI rendered by a Go reconciler on a background loop"),
		reconcile.H(Counter, nil),
		reconcile.H(TickingText, reconcile.Props{PropInterval: intervalOf(props)}),
	)
})

func intervalOf(props reconcile.Props) time.Duration {
	if d, ok := props[PropInterval].(time.Duration); ok && d > 0 {
		return d
	}
	return time.Second
}

// Root returns the root element of a built-in app
func Root(name string, interval time.Duration) (reconcile.Node, error) {
	props := reconcile.Props{PropInterval: interval}
	switch name {
	case NameDemo:
		return reconcile.H(App, props), nil
	case NameCounter:
		return reconcile.H(Counter, nil), nil
	case NameTicker:
		return reconcile.H(TickingText, props), nil
	}
	return nil, fmt.Errorf("unknown app %q", name)
}
