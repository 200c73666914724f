package promise

import (
	"fmt"

	"go.uber.org/zap"
)

// EventKind enumerates the library's internal lifecycle events, fed to the
// configured LogHandler. Modeled on the teacher pack's internal debug-event
// taxonomies (see asmsh-promise/debug.go), trimmed to the events spec.md
// names.
type EventKind int

const (
	// WaitOnMainThread fires when WaitContext or WaitGuaranteeContext is
	// called with a context flagged, via MarkMainThread, as the main thread.
	WaitOnMainThread EventKind = iota
	// PendingPromiseDeallocated fires when a Promise's Resolver is garbage
	// collected while its Box is still pending.
	PendingPromiseDeallocated
	// PendingGuaranteeDeallocated fires when a Guarantee's Resolver is
	// garbage collected while its Box is still pending.
	PendingGuaranteeDeallocated
	// Cauterized fires when Cauterize delivers an unhandled rejection to the
	// log sink instead of letting it vanish silently.
	Cauterized
)

func (k EventKind) String() string {
	switch k {
	case WaitOnMainThread:
		return "wait_on_main_thread"
	case PendingPromiseDeallocated:
		return "pending_promise_deallocated"
	case PendingGuaranteeDeallocated:
		return "pending_guarantee_deallocated"
	case Cauterized:
		return "cauterized"
	default:
		return "unknown"
	}
}

// Event is a single library log event, optionally carrying the error that
// triggered it (only Cauterized carries one).
type Event struct {
	Kind EventKind
	Err  error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

// LogHandler is the library-wide sink for Event values.
type LogHandler func(Event)

// zapLogHandler adapts a *zap.Logger into a LogHandler, giving every event a
// structured "event" field and, for Cauterized, an "error" field.
func zapLogHandler(logger *zap.Logger) LogHandler {
	return func(ev Event) {
		fields := []zap.Field{zap.String("event", ev.Kind.String())}
		if ev.Err != nil {
			fields = append(fields, zap.Error(ev.Err))
		}

		switch ev.Kind {
		case Cauterized, PendingPromiseDeallocated, PendingGuaranteeDeallocated:
			logger.Warn("promise: library event", fields...)
		default:
			logger.Info("promise: library event", fields...)
		}
	}
}

func newDefaultLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails if the encoder config is invalid,
		// which can't happen with the built-in config; fall back to a
		// no-op logger rather than panicking out of a library default.
		return zap.NewNop()
	}
	return logger
}
