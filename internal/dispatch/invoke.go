package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"wirecall/internal/protocol"
	"wirecall/internal/retry"
	"wirecall/internal/transport"
)

// Invoke runs op synchronously on the caller's goroutine. Exactly one of the
// returned values is non-nil; the error is always a *Error.
func Invoke[In, Out any](ctx context.Context, d *Dispatcher, op Operation[In, Out], in *In) (*Out, error) {
	return InvokeOutcome(ctx, d, op, in).Unwrap()
}

// InvokeOutcome runs op synchronously and returns the Outcome.
func InvokeOutcome[In, Out any](ctx context.Context, d *Dispatcher, op Operation[In, Out], in *In) Outcome[Out] {
	if in == nil {
		in = new(In)
	}
	out := new(Out)
	c := call{
		binding:   op.binding(d.svc),
		retryable: op.retryable(),
		unsigned:  op.Unsigned,
	}
	if err := d.do(ctx, c, in, out); err != nil {
		return Failure[Out](err)
	}
	return Success(out)
}

// Go starts op on the dispatcher's executor and returns a future for its outcome.
// Submit never blocks, so any number of calls may be issued at once.
func Go[In, Out any](ctx context.Context, d *Dispatcher, op Operation[In, Out], in *In) *Future[Out] {
	f := newFuture[Out]()
	err := d.exec.Submit(ctx, func(ctx context.Context) {
		f.resolve(InvokeOutcome(ctx, d, op, in))
	})
	if err != nil {
		f.resolve(Failure[Out](executorError(err)))
	}
	return f
}

// Handler receives the outcome of a callback-style call along with the original
// request and the caller's context value.
type Handler[In, Out any] func(in *In, outcome Outcome[Out], cc *CallerContext)

// Callback runs op on the executor and then calls handler on the same worker,
// never on the calling goroutine. It returns an error only when the executor
// rejects the work, in which case handler is not called.
func Callback[In, Out any](ctx context.Context, d *Dispatcher, op Operation[In, Out], in *In, handler Handler[In, Out], cc *CallerContext) error {
	err := d.exec.Submit(ctx, func(ctx context.Context) {
		outcome := InvokeOutcome(ctx, d, op, in)
		if handler != nil {
			handler(in, outcome, cc)
		}
	})
	if err != nil {
		return executorError(err)
	}
	return nil
}

func executorError(err error) *Error {
	return &Error{Kind: KindTransport, Code: CodeExecutorClosed, Message: err.Error(), Err: err}
}

type call struct {
	binding   protocol.Binding
	retryable bool
	unsigned  bool
}

type attemptResult struct {
	status    int
	requestID string
	err       *Error
}

func (d *Dispatcher) do(ctx context.Context, c call, in, out any) *Error {
	invocationID := uuid.NewString()
	started := d.now()
	log := d.logger.With(
		zap.String("operation", c.binding.OperationName),
		zap.String("invocation_id", invocationID),
	)

	encoded, err := d.svc.Protocol.EncodeRequest(c.binding, in)
	if err != nil {
		derr := &Error{Kind: KindDecode, Code: CodeSerialization, Message: "failed to encode request", Err: err}
		d.finish(log, c, invocationID, started, attemptResult{err: derr}, 0)
		return derr
	}

	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	maxAttempts := d.policy.MaxAttempts()
	var res attemptResult
	attempt := 1
	for ; ; attempt++ {
		log.Debug("sending attempt", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts))
		res = d.attempt(ctx, c, encoded, out, invocationID, attempt, maxAttempts)
		if res.err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		class := retry.Class{
			Kind:       res.err.Kind.retryKind(),
			Code:       res.err.Code,
			StatusCode: res.err.StatusCode,
			Idempotent: c.retryable,
		}
		if !d.policy.ShouldRetry(attempt, class) {
			break
		}
		delay := d.policy.Delay(attempt)
		log.Warn("retrying call",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Stringer("kind", res.err.Kind),
			zap.String("code", res.err.Code),
		)
		if serr := d.sleep(ctx, delay); serr != nil {
			code := CodeRequestCanceled
			if errors.Is(serr, context.DeadlineExceeded) {
				code = CodeRequestTimeout
			}
			res.err = &Error{Kind: KindTransport, Code: code, Message: "canceled while waiting to retry", Err: serr}
			break
		}
	}
	if res.err != nil {
		res.err.Attempts = attempt
	}
	d.finish(log, c, invocationID, started, res, attempt)
	return res.err
}

func (d *Dispatcher) finish(log *zap.Logger, c call, invocationID string, started time.Time, res attemptResult, attempts int) {
	elapsed := d.now().Sub(started)
	ev := CallEvent{
		InvocationID: invocationID,
		Service:      d.svc.Name,
		Operation:    c.binding.OperationName,
		Attempts:     attempts,
		StatusCode:   res.status,
		RequestID:    res.requestID,
		Started:      started,
		Duration:     elapsed,
	}
	fields := []zap.Field{
		zap.Int("status", res.status),
		zap.Int("attempts", attempts),
		zap.Duration("duration", elapsed),
		zap.String("request_id", res.requestID),
	}
	if res.err != nil {
		ev.Kind = res.err.Kind
		ev.Code = res.err.Code
		ev.StatusCode = res.err.StatusCode
		ev.RequestID = res.err.RequestID
		log.Info("call failed", append(fields,
			zap.Stringer("kind", res.err.Kind),
			zap.String("code", res.err.Code),
			zap.String("message", res.err.Message),
		)...)
	} else {
		log.Info("call completed", fields...)
	}
	if d.monitor != nil {
		d.monitor.ObserveCall(ev)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, c call, enc *protocol.Request, out any, invocationID string, attempt, maxAttempts int) attemptResult {
	actx := ctx
	if d.attemptTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, d.attemptTimeout)
		defer cancel()
	}

	req, err := d.newHTTPRequest(actx, enc)
	if err != nil {
		return attemptResult{err: &Error{Kind: KindTransport, Code: CodeRequestError, Message: "failed to build request", Err: err}}
	}
	req.Header.Set("amz-sdk-invocation-id", invocationID)
	req.Header.Set("amz-sdk-request", fmt.Sprintf("attempt=%d; max=%d", attempt, maxAttempts))

	if !c.unsigned {
		creds, err := d.creds.Retrieve(actx)
		if err != nil {
			return attemptResult{err: &Error{Kind: KindAuth, Code: CodeNoCredentials, Message: "failed to resolve credentials", Err: err}}
		}
		if err := d.signer.Sign(actx, req, enc.Body, creds); err != nil {
			return attemptResult{err: &Error{Kind: KindAuth, Code: CodeSigning, Message: "failed to sign request", Err: err}}
		}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return attemptResult{err: transportError(ctx, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return attemptResult{status: resp.StatusCode, err: transportError(ctx, err)}
	}

	res := attemptResult{status: resp.StatusCode, requestID: protocol.RequestIDFromHeader(resp.Header)}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := d.svc.Protocol.DecodeResult(c.binding, body, out); err != nil {
			res.err = &Error{
				Kind: KindDecode, Code: CodeSerialization, Message: "failed to decode response",
				StatusCode: resp.StatusCode, RequestID: res.requestID, Err: err,
			}
		}
		return res
	}

	shape, err := d.svc.Protocol.DecodeError(resp.StatusCode, resp.Header, body)
	if err != nil {
		res.err = &Error{
			Kind: KindDecode, Code: CodeSerialization, Message: "failed to decode error response",
			StatusCode: resp.StatusCode, RequestID: res.requestID, Err: err,
		}
		return res
	}
	if shape.RequestID != "" {
		res.requestID = shape.RequestID
	}
	res.err = &Error{
		Kind:       KindServer,
		Code:       shape.Code,
		Message:    shape.Message,
		RequestID:  res.requestID,
		StatusCode: resp.StatusCode,
	}
	return res
}

func (d *Dispatcher) newHTTPRequest(ctx context.Context, enc *protocol.Request) (*http.Request, error) {
	u, err := url.Parse(strings.TrimRight(d.base.String(), "/") + enc.Path)
	if err != nil {
		return nil, err
	}
	u.RawQuery = enc.Query.Encode()

	var body io.Reader = http.NoBody
	if len(enc.Body) > 0 {
		body = bytes.NewReader(enc.Body)
	}
	req, err := http.NewRequestWithContext(ctx, enc.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range enc.Header {
		req.Header[k] = append([]string(nil), vs...)
	}
	req.Header.Set("User-Agent", d.userAgent)
	return req, nil
}

func transportError(ctx context.Context, err error) *Error {
	code := CodeRequestError
	switch {
	case ctx.Err() != nil:
		code = CodeRequestCanceled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			code = CodeRequestTimeout
		}
	case transport.IsTimeout(err):
		code = CodeRequestTimeout
	}
	return &Error{Kind: KindTransport, Code: code, Message: err.Error(), Err: err}
}
