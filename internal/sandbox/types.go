package sandbox

import (
	"errors"
	"time"
)

var (
	ErrNoRender    = errors.New("script does not define a render function")
	ErrNotInRender = errors.New("hooks can only be called while rendering")
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Per-call execution timeout
	MaxCallStack  int           // Maximum JS call stack depth
	EnableConsole bool          // Route console.* to the logger
	ConsoleLimit  int           // Console entries kept; older ones are dropped
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    // log, warn, error, info
	Message string    // Log message
	Time    time.Time // Timestamp
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Timeout:       2 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
		ConsoleLimit:  100,
	}
}
