package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Outcome holds either a result or an error, never both.
type Outcome[T any] struct {
	result *T
	err    *Error
}

// Success wraps a result. A nil result is replaced by an empty one.
func Success[T any](result *T) Outcome[T] {
	if result == nil {
		result = new(T)
	}
	return Outcome[T]{result: result}
}

// Failure wraps an error. A nil error is replaced by a generic transport error so
// the outcome is never empty.
func Failure[T any](err *Error) Outcome[T] {
	if err == nil {
		err = &Error{Kind: KindTransport, Code: CodeRequestError, Message: "unknown failure"}
	}
	return Outcome[T]{err: err}
}

// OK reports whether the outcome holds a result.
func (o Outcome[T]) OK() bool { return o.err == nil && o.result != nil }

// Result returns the result, or nil on failure.
func (o Outcome[T]) Result() *T { return o.result }

// Err returns the error, or nil on success.
func (o Outcome[T]) Err() *Error { return o.err }

// Unwrap returns the outcome as a Go (value, error) pair.
func (o Outcome[T]) Unwrap() (*T, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.result, nil
}

// Future resolves once to an Outcome. Abandoning it only stops the wait; the call
// itself is bounded by the context it was issued with.
type Future[T any] struct {
	done    chan struct{}
	outcome Outcome[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved[T any](o Outcome[T]) *Future[T] {
	f := newFuture[T]()
	f.resolve(o)
	return f
}

func (f *Future[T]) resolve(o Outcome[T]) {
	f.outcome = o
	close(f.done)
}

// Done is closed when the outcome is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the outcome is available.
func (f *Future[T]) Wait() Outcome[T] {
	<-f.done
	return f.outcome
}

// Await waits for the outcome or for ctx, whichever comes first.
func (f *Future[T]) Await(ctx context.Context) (Outcome[T], error) {
	select {
	case <-f.done:
		return f.outcome, nil
	case <-ctx.Done():
		return Outcome[T]{}, ctx.Err()
	}
}

// CallerContext is an opaque value handed back to a callback handler.
type CallerContext struct {
	ID    string
	Value any
}

// NewCallerContext wraps v with a fresh id.
func NewCallerContext(v any) *CallerContext {
	return &CallerContext{ID: uuid.NewString(), Value: v}
}
