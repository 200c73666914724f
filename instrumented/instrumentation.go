// Package instrumented wraps the generic promise package's constructors and
// operators to record invocation metadata — caller site, timing, arguments
// and return values — for debugging, tracing and logging, without changing
// any settlement semantics. It is not a drop-in replacement for package
// promise: the generic operators are top-level functions rather than
// methods, so this package mirrors them as top-level functions of the same
// name, each taking an extra leading *Instrumentation argument.
package instrumented

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InstrumentationHandlerFunc is the signature of a func that can be used as
// an invocation handler. It runs once for every instrumented construction,
// operator call, or Wait while it is registered.
type InstrumentationHandlerFunc func(invocation *Invocation)

// Invocation is a container for information relevant to a given instrumented
// call.
type Invocation struct {
	// UUID is a unique string generated for this invocation.
	UUID string

	// Promise is the delegate Promise or Guarantee the invocation ran
	// against, held as an any since its type parameter is erased here. It is
	// strongly advised against manipulating it (e.g. calling Wait) inside a
	// handler, as this may cause side effects or deadlocks. It is exposed
	// only for inspection.
	Promise any

	// Subject is the operator or constructor name (e.g. "then", "map",
	// "wait").
	Subject string

	// SubjectInfo contains the arguments and return values of Subject.
	SubjectInfo SubjectInfo

	// CallerInfo contains info about the callsite of Subject, not the
	// internals of the promise implementation.
	CallerInfo CallerInfo

	// StartTime holds the time Subject was invoked at.
	StartTime time.Time

	// EndTime holds the time Subject finished running.
	EndTime time.Time
}

// SubjectInfo contains information about the subject of an invocation.
type SubjectInfo struct {
	Subject      string
	Arguments    interface{}
	ReturnValues interface{}
}

// CallerInfo contains information about a call site.
type CallerInfo struct {
	File string
	Func string
	Line int
}

func getCallerInfo(skipFrames int) CallerInfo {
	pc, file, line, _ := runtime.Caller(skipFrames)

	return CallerInfo{
		File: file,
		Func: runtime.FuncForPC(pc).Name(),
		Line: line,
	}
}

var defaultInstrumentation = NewInstrumentation()

// Instrumentation is a registry of handlers invoked around every call this
// package's functions make with it. An Instrumentation with no handlers
// configured makes this package's functions plain pass throughs to package
// promise, at no extra cost.
type Instrumentation struct {
	sync.RWMutex
	handlers []InstrumentationHandlerFunc
}

// NewInstrumentation creates an Instrumentation with the given handlers.
func NewInstrumentation(handlers ...InstrumentationHandlerFunc) *Instrumentation {
	return &Instrumentation{handlers: handlers}
}

// AddHandlers adds handler funcs to i.
func (i *Instrumentation) AddHandlers(handlers ...InstrumentationHandlerFunc) {
	i.Lock()
	defer i.Unlock()

	i.handlers = append(i.handlers, handlers...)
}

// RemoveHandlers removes all handlers from i. Calls made with i afterwards
// are unwrapped pass throughs until handlers are added again.
func (i *Instrumentation) RemoveHandlers() {
	i.Lock()
	defer i.Unlock()

	i.handlers = nil
}

// Handlers returns the handlers currently configured on i.
func (i *Instrumentation) Handlers() []InstrumentationHandlerFunc {
	i.RLock()
	defer i.RUnlock()

	return i.handlers
}

func (i *Instrumentation) fire(inv *Invocation) {
	for _, h := range i.Handlers() {
		h(inv)
	}
}

// AddInstrumentationHandlers adds handlers to the package-level default
// Instrumentation used by this package's DefaultNew/DefaultGo/DefaultValue/
// DefaultErr/DefaultWrap/DefaultWait funcs.
func AddInstrumentationHandlers(handlers ...InstrumentationHandlerFunc) {
	defaultInstrumentation.AddHandlers(handlers...)
}

// RemoveInstrumentationHandlers removes all handlers from the package-level
// default Instrumentation.
func RemoveInstrumentationHandlers() {
	defaultInstrumentation.RemoveHandlers()
}

func newUUID() string {
	return uuid.New().String()
}
