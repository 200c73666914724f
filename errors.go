package promise

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Library-emitted error kinds (spec.md §6/§7). These are sentinel values;
// compare with errors.Is, not equality, since operators may wrap them with
// extra context.
var (
	// ErrReturnedSelf is returned when a then body returns the very
	// downstream promise it is resolving.
	ErrReturnedSelf = errors.New("promise: body returned its own downstream promise")
	// ErrCompactMapNil is returned when a compact_map body returns none.
	ErrCompactMapNil = errors.New("promise: compact_map body returned no value")
	// ErrEmptySequence is the error kind for an empty input sequence. No
	// function in this package returns it; the aggregators here report empty
	// input with ErrBadInput or settle immediately instead.
	ErrEmptySequence = errors.New("promise: empty input sequence")
	// ErrBadInput is returned by race/race_fulfilled when given no promises.
	ErrBadInput = errors.New("promise: bad input")
	// ErrNoWinner is returned by race_fulfilled when every input rejected.
	ErrNoWinner = errors.New("promise: no winner, all inputs rejected")
	// ErrInvalidCallingConvention is returned by legacy-callback resolver
	// adapters when neither a value nor an error was supplied.
	ErrInvalidCallingConvention = errors.New("promise: invalid calling convention")
	// ErrCancelled is the library's own cancellation error kind, recognized
	// by the default IsCancelled predicate.
	ErrCancelled = errors.New("promise: cancelled")
)

// cancellationClassifier is the predicate IsCancelled delegates to. By
// default it recognizes ErrCancelled; hosts that mark their own errors as
// cancellation (e.g. wrapping context.Canceled) can replace it via
// SetCancellationClassifier, and the replacement is then the only check.
var cancellationClassifier = func(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// SetCancellationClassifier installs the predicate IsCancelled delegates to.
// The predicate should return true for any error the host considers a
// cancellation, in addition to the library's own ErrCancelled.
func SetCancellationClassifier(f func(error) bool) {
	if f == nil {
		f = func(err error) bool { return errors.Is(err, ErrCancelled) }
	}
	cancellationClassifier = f
}

// IsCancelled reports whether err is classified as a cancellation error,
// per the CatchPolicy contract (AllErrorsExceptCancellation skips handlers
// for such errors).
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	return cancellationClassifier(err)
}

// shouldHandle reports whether a catch/recover handler under policy p
// should see err.
func shouldHandle(p CatchPolicy, err error) bool {
	if p == AllErrorsExceptCancellation && IsCancelled(err) {
		return false
	}
	return true
}

// AggregateError collects the rejection reasons of every input that
// rejected, for reporting more than one cause at once; race_fulfilled's
// NO_WINNER error is built on it. It wraps
// go.uber.org/multierr so that errors.Is/As still see through to each
// individual cause.
type AggregateError struct {
	cause error
}

func newAggregateError(errs ...error) *AggregateError {
	return &AggregateError{cause: multierr.Combine(errs...)}
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if e == nil || e.cause == nil {
		return "promise: no errors"
	}
	return fmt.Sprintf("promise: %d promise(s) rejected: %s", len(multierr.Errors(e.cause)), e.cause)
}

// Unwrap exposes every aggregated cause to errors.Is/As.
func (e *AggregateError) Unwrap() []error {
	if e == nil || e.cause == nil {
		return nil
	}
	return multierr.Errors(e.cause)
}

// Errors returns the individual causes aggregated into e, in the order they
// were combined.
func (e *AggregateError) Errors() []error {
	return e.Unwrap()
}

// noWinnerError is ErrNoWinner annotated with every arm's rejection reason.
type noWinnerError struct {
	*AggregateError
}

func newNoWinnerError(errs ...error) error {
	return &noWinnerError{AggregateError: newAggregateError(errs...)}
}

func (e *noWinnerError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoWinner, e.AggregateError.Error())
}

func (e *noWinnerError) Is(target error) bool {
	return target == ErrNoWinner
}
