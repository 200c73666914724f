package promise

import (
	"go.uber.org/atomic"
)

// CatchPolicy controls whether catch/recover handlers see errors classified
// as cancellation.
type CatchPolicy int

const (
	// AllErrors delivers every rejection, including cancellation, to catch
	// and recover handlers.
	AllErrors CatchPolicy = iota
	// AllErrorsExceptCancellation skips catch/recover handlers for errors
	// that IsCancelled classifies as cancellation; such errors forward
	// unhandled instead.
	AllErrorsExceptCancellation
)

// Config is the library-wide, process-global configuration: the default
// Dispatcher for processing and terminal steps, the default CatchPolicy, and
// the log sink. It is immutable once built; Configure swaps it atomically.
type Config struct {
	// DefaultProcessingDispatcher is used by transformation steps (then,
	// map, compact_map, ...) when no Dispatcher is explicitly given.
	DefaultProcessingDispatcher Dispatcher
	// DefaultTerminalDispatcher is used by terminal-style steps (done,
	// catch, ensure, ...) when no Dispatcher is explicitly given.
	DefaultTerminalDispatcher Dispatcher
	// CatchPolicy is the default policy consulted by catch/recover.
	CatchPolicy CatchPolicy
	// LogHandler is the sink for library log events.
	LogHandler LogHandler
}

func defaultConfig() *Config {
	return &Config{
		DefaultProcessingDispatcher: AsyncDispatcher,
		DefaultTerminalDispatcher:   AsyncDispatcher,
		CatchPolicy:                 AllErrors,
		LogHandler:                  zapLogHandler(newDefaultLogger()),
	}
}

var config atomic.Pointer[Config]

func init() {
	config.Store(defaultConfig())
}

// Configure atomically replaces the process-wide configuration. A nil
// dispatcher or LogHandler field in cfg is filled in from the current
// configuration before the swap, so callers can change one of those (e.g.
// just the LogHandler) without having to restate the rest. CatchPolicy is
// always taken from cfg as given: leaving it unset selects AllErrors.
func Configure(cfg Config) {
	current := config.Load()

	if cfg.DefaultProcessingDispatcher == nil {
		cfg.DefaultProcessingDispatcher = current.DefaultProcessingDispatcher
	}
	if cfg.DefaultTerminalDispatcher == nil {
		cfg.DefaultTerminalDispatcher = current.DefaultTerminalDispatcher
	}
	if cfg.LogHandler == nil {
		cfg.LogHandler = current.LogHandler
	}

	config.Store(&cfg)
}

// currentConfig returns the active configuration snapshot.
func currentConfig() *Config {
	return config.Load()
}

func defaultProcessingDispatcher() Dispatcher {
	return currentConfig().DefaultProcessingDispatcher
}

func defaultTerminalDispatcher() Dispatcher {
	return currentConfig().DefaultTerminalDispatcher
}

func defaultCatchPolicy() CatchPolicy {
	return currentConfig().CatchPolicy
}

func logEvent(ev Event) {
	if h := currentConfig().LogHandler; h != nil {
		h(ev)
	}
}
