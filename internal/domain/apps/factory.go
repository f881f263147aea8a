package apps

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/workerview/internal/domain/reconcile"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/sandbox"
)

// NameScript selects a JavaScript component loaded from Factory.Script
const NameScript = "script"

// Factory builds a fresh root element for every new root. Script apps get
// their own VM per root because a VM belongs to a single event loop.
type Factory struct {
	App      string
	Interval time.Duration
	Script   string
	Sandbox  sandbox.Config
	Logger   *logging.Logger
}

// Validate reports configuration that could never produce a root
func (f Factory) Validate() error {
	switch f.App {
	case NameDemo, NameCounter, NameTicker:
		return nil
	case NameScript:
		if f.Script == "" {
			return fmt.Errorf("app %q needs a script path", NameScript)
		}
		return nil
	}
	return fmt.Errorf("unknown app %q", f.App)
}

// New returns the root element for one root
func (f Factory) New() (reconcile.Node, error) {
	if f.App != NameScript {
		return Root(f.App, f.Interval)
	}
	script, err := sandbox.LoadFile(f.Script, f.Sandbox, f.Logger)
	if err != nil {
		return nil, err
	}
	return script.Root(), nil
}
