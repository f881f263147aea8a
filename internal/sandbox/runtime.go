package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
)

// Runtime wraps a goja VM with security controls. It is not safe for
// concurrent use: every call must come from the goroutine that owns the
// root the script renders into.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	log    *logging.Logger

	// console is a ring of the last ConsoleLimit entries; head is the
	// oldest once it is full
	console []LogEntry
	head    int
}

// New creates a new sandboxed runtime
func New(config Config, log *logging.Logger) (*Runtime, error) {
	if log == nil {
		log = logging.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.ConsoleLimit <= 0 {
		config.ConsoleLimit = DefaultConfig().ConsoleLimit
	}

	r := &Runtime{
		vm:     goja.New(),
		config: config,
		log:    log.Component("sandbox"),
	}

	if config.MaxCallStack > 0 {
		r.vm.SetMaxCallStackSize(config.MaxCallStack)
	}

	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// guard interrupts the VM when the timeout elapses or ctx ends. The
// returned stop must be called once the guarded call has returned.
func (r *Runtime) guard(ctx context.Context) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	timer := time.NewTimer(r.config.Timeout)
	go func() {
		defer close(exited)
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()
	return func() {
		timer.Stop()
		close(done)
		<-exited
		r.vm.ClearInterrupt()
	}
}

// Execute runs a script with the configured timeout
func (r *Runtime) Execute(ctx context.Context, script string) (goja.Value, error) {
	stop := r.guard(ctx)
	defer stop()

	val, err := r.vm.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	return val, nil
}

// Call invokes a JS function with the configured timeout
func (r *Runtime) Call(ctx context.Context, fn goja.Callable, args ...goja.Value) (goja.Value, error) {
	stop := r.guard(ctx)
	defer stop()

	val, err := fn(goja.Undefined(), args...)
	if err != nil {
		return nil, fmt.Errorf("call script function: %w", err)
	}
	return val, nil
}

// Console returns the most recent console output, oldest first
func (r *Runtime) Console() []LogEntry {
	out := make([]LogEntry, 0, len(r.console))
	out = append(out, r.console[r.head:]...)
	return append(out, r.console[:r.head]...)
}

func (r *Runtime) capture(entry LogEntry) {
	if len(r.console) < r.config.ConsoleLimit {
		r.console = append(r.console, entry)
		return
	}
	r.console[r.head] = entry
	r.head = (r.head + 1) % len(r.console)
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	// Remove dangerous globals
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "warn", "error", "info"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	// Timers are not available: state changes come from clicks only
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	if err := r.vm.Set("setTimeout", noop); err != nil {
		return err
	}
	return r.vm.Set("setInterval", noop)
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		r.capture(LogEntry{Level: level, Message: msg, Time: time.Now()})

		switch level {
		case "error":
			r.log.Error(msg, zap.String("source", "console"))
		case "warn":
			r.log.Warn(msg, zap.String("source", "console"))
		default:
			r.log.Debug(msg, zap.String("source", "console"))
		}
		return goja.Undefined()
	}
}

// Export converts a goja value to a Go value, mapping undefined to nil
func Export(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
