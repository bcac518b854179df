package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"wirecall/internal/auth"
	"wirecall/internal/config"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
	"wirecall/internal/retry"
	"wirecall/internal/transport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type greetInput struct {
	Name opt.Value[string] `json:"Name,omitzero"`
}

type greetOutput struct {
	Greeting opt.Value[string] `json:"Greeting,omitzero"`
	Count    opt.Value[int64]  `json:"Count,omitzero"`
}

var greeterService = Service{
	Name:           "greeter",
	EndpointPrefix: "greeter",
	APIVersion:     "2020-01-01",
	TargetPrefix:   "Greeter_20200101",
	Protocol:       protocol.JSONRPC{Version: "1.1"},
}

var (
	greetOp           = Operation[greetInput, greetOutput]{Name: "Greet", Method: http.MethodPost, Path: "/"}
	greetIdempotentOp = Operation[greetInput, greetOutput]{Name: "Greet", Method: http.MethodPost, Path: "/", Idempotent: true}
	greetUnsignedOp   = Operation[greetInput, greetOutput]{Name: "Greet", Method: http.MethodPost, Path: "/", Unsigned: true}
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func newTestDispatcher(t *testing.T, endpointURL string, client transport.Doer, opts ...Option) *Dispatcher {
	t.Helper()
	base := []Option{
		WithEndpoint(endpointURL),
		WithRegion("us-east-1"),
		WithHTTPClient(client),
		WithCredentials(auth.NewStaticProvider("AKID", "SECRET", "")),
		WithRetryPolicy(retry.NewExponential(3, time.Millisecond, 10*time.Millisecond)),
		WithSleep(noSleep),
	}
	d, err := New(greeterService, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func jsonResponse(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func timeoutErr(req *http.Request) error {
	return &url.Error{Op: "Post", URL: req.URL.String(), Err: context.DeadlineExceeded}
}

func TestInvoke_Success(t *testing.T) {
	var got *http.Request
	var gotBody string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got, gotBody = r.Clone(context.Background()), string(b)
		w.Header().Set("X-Amzn-RequestId", "req-200")
		fmt.Fprint(w, `{"Greeting":"hello, gopher","Count":3}`)
	})

	var events []CallEvent
	d := newTestDispatcher(t, srv.URL, srv.Client(), WithMonitor(MonitorFunc(func(ev CallEvent) {
		events = append(events, ev)
	})))

	out, err := Invoke(context.Background(), d, greetOp, &greetInput{Name: opt.Of("gopher")})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "hello, gopher", out.Greeting.OrElse(""))
	assert.Equal(t, int64(3), out.Count.OrElse(0))

	assert.JSONEq(t, `{"Name":"gopher"}`, gotBody)
	assert.Equal(t, "Greeter_20200101.Greet", got.Header.Get("X-Amz-Target"))
	assert.Equal(t, "attempt=1; max=3", got.Header.Get("amz-sdk-request"))
	_, perr := uuid.Parse(got.Header.Get("amz-sdk-invocation-id"))
	assert.NoError(t, perr)
	assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
	assert.True(t, strings.HasPrefix(got.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=AKID/"))
	assert.Contains(t, got.Header.Get("Authorization"), "/us-east-1/greeter/aws4_request")

	require.Len(t, events, 1)
	assert.True(t, events[0].OK())
	assert.Equal(t, 1, events[0].Attempts)
	assert.Equal(t, 200, events[0].StatusCode)
	assert.Equal(t, "req-200", events[0].RequestID)
	assert.Equal(t, "Greet", events[0].Operation)
}

func TestInvoke_ServerValidationError(t *testing.T) {
	var hits atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-Amzn-RequestId", "req-400")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"ValidationError","message":"bad field"}`)
	})
	d := newTestDispatcher(t, srv.URL, srv.Client())

	out, err := Invoke(context.Background(), d, greetIdempotentOp, &greetInput{})
	assert.Nil(t, out)
	require.Error(t, err)

	de, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindServer, de.Kind)
	assert.Equal(t, "ValidationError", de.Code)
	assert.Equal(t, "bad field", de.Message)
	assert.Equal(t, 400, de.StatusCode)
	assert.Equal(t, "req-400", de.RequestID)
	assert.Equal(t, 1, de.Attempts)
	assert.Equal(t, int32(1), hits.Load(), "client faults are never retried")
}

func TestInvoke_TimeoutTwiceThenSuccess(t *testing.T) {
	var calls atomic.Int32
	var lastAttemptHeader atomic.Value
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		lastAttemptHeader.Store(req.Header.Get("amz-sdk-request"))
		if calls.Add(1) <= 2 {
			return nil, timeoutErr(req)
		}
		return jsonResponse(200, `{"Greeting":"finally"}`, nil), nil
	})

	core, logs := observer.New(zap.DebugLevel)
	var delays []time.Duration
	var ev CallEvent
	d := newTestDispatcher(t, "https://greeter.test", doer,
		WithLogger(zap.New(core)),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
		WithMonitor(MonitorFunc(func(e CallEvent) { ev = e })),
	)

	out, err := Invoke(context.Background(), d, greetIdempotentOp, &greetInput{})
	require.NoError(t, err)
	assert.Equal(t, "finally", out.Greeting.OrElse(""))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "attempt=3; max=3", lastAttemptHeader.Load())
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, delays)
	assert.Equal(t, 3, ev.Attempts)

	assert.Equal(t, 2, logs.FilterMessage("retrying call").Len())
	assert.Equal(t, 3, logs.FilterMessage("sending attempt").Len())
	assert.Equal(t, 1, logs.FilterMessage("call completed").Len())
}

func TestInvoke_TimeoutExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, timeoutErr(req)
	})
	d := newTestDispatcher(t, "https://greeter.test", doer)

	_, err := Invoke(context.Background(), d, greetIdempotentOp, nil)
	de, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, de.Kind)
	assert.Equal(t, CodeRequestTimeout, de.Code)
	assert.Equal(t, 3, de.Attempts)
	assert.Equal(t, int32(3), calls.Load())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvoke_TransportNotRetriedWhenNotIdempotent(t *testing.T) {
	var calls atomic.Int32
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("connection reset by peer")
	})
	d := newTestDispatcher(t, "https://greeter.test", doer)

	_, err := Invoke(context.Background(), d, greetOp, nil)
	assert.True(t, IsKind(err, KindTransport))
	assert.True(t, IsCode(err, CodeRequestError))
	assert.Equal(t, int32(1), calls.Load())
}

func TestInvoke_SafeMethodRetriesTransport(t *testing.T) {
	var calls atomic.Int32
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("connection refused")
		}
		return jsonResponse(200, `{}`, nil), nil
	})
	d := newTestDispatcher(t, "https://greeter.test", doer)
	getOp := Operation[greetInput, greetOutput]{Name: "Greet", Method: http.MethodGet, Path: "/"}

	_, err := Invoke(context.Background(), d, getOp, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvoke_ThrottleAlwaysRetried(t *testing.T) {
	var calls atomic.Int32
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return jsonResponse(400, `{"__type":"com.amazon#ThrottlingException","message":"Rate exceeded"}`, nil), nil
		}
		return jsonResponse(200, `{"Greeting":"ok"}`, nil), nil
	})
	d := newTestDispatcher(t, "https://greeter.test", doer)

	out, err := Invoke(context.Background(), d, greetOp, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Greeting.OrElse(""))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvoke_ServerFaultRetriedOnlyWhenIdempotent(t *testing.T) {
	for _, tc := range []struct {
		name  string
		op    Operation[greetInput, greetOutput]
		calls int32
	}{
		{"idempotent", greetIdempotentOp, 3},
		{"non-idempotent", greetOp, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
				calls.Add(1)
				return jsonResponse(503, `{"__type":"ServiceUnavailable","message":"try later"}`, nil), nil
			})
			d := newTestDispatcher(t, "https://greeter.test", doer)

			_, err := Invoke(context.Background(), d, tc.op, nil)
			de, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindServer, de.Kind)
			assert.Equal(t, "ServiceUnavailable", de.Code)
			assert.Equal(t, int(tc.calls), de.Attempts)
			assert.Equal(t, tc.calls, calls.Load())
		})
	}
}

func TestInvoke_AuthFailureNeverSends(t *testing.T) {
	var calls atomic.Int32
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		calls.Add(1)
		return jsonResponse(200, `{}`, nil), nil
	})
	failing := auth.ProviderFunc(func(context.Context) (auth.Credentials, error) {
		return auth.Credentials{}, auth.ErrNoCredentials
	})
	d := newTestDispatcher(t, "https://greeter.test", doer, WithCredentials(failing))

	_, err := Invoke(context.Background(), d, greetIdempotentOp, nil)
	de, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindAuth, de.Kind)
	assert.Equal(t, CodeNoCredentials, de.Code)
	assert.Equal(t, 1, de.Attempts)
	assert.ErrorIs(t, err, auth.ErrNoCredentials)
	assert.Zero(t, calls.Load())
}

func TestInvoke_UnsignedSkipsCredentials(t *testing.T) {
	var authz atomic.Value
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		authz.Store(req.Header.Get("Authorization"))
		return jsonResponse(200, `{"Greeting":"anon"}`, nil), nil
	})
	failing := auth.ProviderFunc(func(context.Context) (auth.Credentials, error) {
		return auth.Credentials{}, auth.ErrNoCredentials
	})
	d := newTestDispatcher(t, "https://greeter.test", doer, WithCredentials(failing))

	out, err := Invoke(context.Background(), d, greetUnsignedOp, nil)
	require.NoError(t, err)
	assert.Equal(t, "anon", out.Greeting.OrElse(""))
	assert.Equal(t, "", authz.Load())
}

func TestInvoke_MalformedBodyIsDecodeError(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"result", 200, `{"Greeting":`},
		{"wrong type", 200, `{"Count":"three"}`},
		{"null result", 200, `null`},
		{"array result", 200, `[{"Greeting":"hi"}]`},
		{"error body", 400, `<html>oops</html>`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
				return jsonResponse(tc.status, tc.body, nil), nil
			})
			d := newTestDispatcher(t, "https://greeter.test", doer)

			outcome := InvokeOutcome(context.Background(), d, greetIdempotentOp, nil)
			require.False(t, outcome.OK())
			assert.Nil(t, outcome.Result(), "a malformed body must never become a default result")
			assert.Equal(t, KindDecode, outcome.Err().Kind)
			assert.Equal(t, CodeSerialization, outcome.Err().Code)
			assert.Equal(t, tc.status, outcome.Err().StatusCode)
			assert.Equal(t, 1, outcome.Err().Attempts)
		})
	}
}

func TestInvoke_CanceledWhileWaitingToRetry(t *testing.T) {
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, timeoutErr(req)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d := newTestDispatcher(t, "https://greeter.test", doer, WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := Invoke(ctx, d, greetIdempotentOp, nil)
	assert.True(t, IsCode(err, CodeRequestCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvoke_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
			return
		}
		fmt.Fprint(w, `{"Greeting":"second try"}`)
	})
	defer close(release)
	d := newTestDispatcher(t, srv.URL, srv.Client(), WithAttemptTimeout(50*time.Millisecond))

	out, err := Invoke(context.Background(), d, greetIdempotentOp, nil)
	require.NoError(t, err)
	assert.Equal(t, "second try", out.Greeting.OrElse(""))
	assert.Equal(t, int32(2), calls.Load())
}

func TestInvoke_CallTimeoutBoundsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	})
	d := newTestDispatcher(t, srv.URL, srv.Client(),
		WithRetryPolicy(retry.NewExponential(10, time.Millisecond, time.Millisecond)),
		WithAttemptTimeout(40*time.Millisecond),
		WithCallTimeout(100*time.Millisecond),
	)

	start := time.Now()
	_, err := Invoke(context.Background(), d, greetIdempotentOp, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	derr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindTransport, derr.Kind)
	assert.Equal(t, CodeRequestTimeout, derr.Code)
	assert.GreaterOrEqual(t, derr.Attempts, 2)
	assert.Less(t, derr.Attempts, 10, "the call deadline must stop retries before the budget runs out")
}

func TestGo_ManyInFlight(t *testing.T) {
	var concurrent, peak atomic.Int32
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := concurrent.Add(1)
		defer concurrent.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		fmt.Fprint(w, `{"Greeting":"hi"}`)
	})
	d := newTestDispatcher(t, srv.URL, srv.Client(), WithMaxWorkers(4))

	futures := make([]*Future[greetOutput], 20)
	for i := range futures {
		futures[i] = Go(context.Background(), d, greetOp, &greetInput{Name: opt.Of(fmt.Sprint(i))})
	}
	for _, f := range futures {
		out, err := f.Wait().Unwrap()
		require.NoError(t, err)
		assert.Equal(t, "hi", out.Greeting.OrElse(""))
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestFuture_AwaitAbandon(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"Greeting":"late"}`)
	})
	d := newTestDispatcher(t, srv.URL, srv.Client())

	f := Go(context.Background(), d, greetOp, nil)

	waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.Await(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	outcome := f.Wait()
	require.True(t, outcome.OK())
	assert.Equal(t, "late", outcome.Result().Greeting.OrElse(""))
	select {
	case <-f.Done():
	default:
		t.Fatal("Done not closed after Wait")
	}
}

func TestCallback_RunsOnWorker(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		fmt.Fprint(w, `{"Greeting":"cb"}`)
	})
	d := newTestDispatcher(t, srv.URL, srv.Client())

	in := &greetInput{Name: opt.Of("caller")}
	cc := NewCallerContext("ticket-42")
	var (
		mu        sync.Mutex
		called    bool
		gotIn     *greetInput
		gotCC     *CallerContext
		gotResult string
	)
	done := make(chan struct{})
	err := Callback(context.Background(), d, greetOp, in, func(req *greetInput, outcome Outcome[greetOutput], c *CallerContext) {
		mu.Lock()
		defer mu.Unlock()
		called, gotIn, gotCC = true, req, c
		if outcome.OK() {
			gotResult = outcome.Result().Greeting.OrElse("")
		}
		close(done)
	}, cc)
	require.NoError(t, err)

	mu.Lock()
	assert.False(t, called, "handler must not run on the calling goroutine")
	mu.Unlock()

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Same(t, in, gotIn)
	assert.Same(t, cc, gotCC)
	assert.Equal(t, "ticket-42", gotCC.Value)
	assert.NotEmpty(t, gotCC.ID)
	assert.Equal(t, "cb", gotResult)
}

func TestAsync_ClosedExecutor(t *testing.T) {
	doer := transport.DoerFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(200, `{}`, nil), nil
	})
	d := newTestDispatcher(t, "https://greeter.test", doer)
	d.Close()

	outcome := Go(context.Background(), d, greetOp, nil).Wait()
	require.False(t, outcome.OK())
	assert.Equal(t, CodeExecutorClosed, outcome.Err().Code)

	err := Callback(context.Background(), d, greetOp, nil, func(*greetInput, Outcome[greetOutput], *CallerContext) {
		t.Error("handler must not run")
	}, nil)
	assert.True(t, IsCode(err, CodeExecutorClosed))
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Service{Name: "none", EndpointPrefix: "none"})
	assert.Error(t, err)

	_, err = New(greeterService)
	assert.Error(t, err, "regional service without region")
}

func TestFromConfig(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Greeting":"configured"}`)
	})
	t.Setenv("AWS_ACCESS_KEY_ID", "ENVKEY")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "ENVSECRET")

	cfg := config.DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.HTTP.EnableHTTP2 = false
	cfg.HTTP.UserAgent = "wirecall-test/0"

	d, err := FromConfig(greeterService, cfg)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, srv.URL, d.Endpoint())
	assert.Equal(t, "us-east-1", d.Region())
	assert.Equal(t, cfg.GetTimeout(), d.callTimeout)
	assert.Equal(t, cfg.GetAttemptTimeout(), d.attemptTimeout)

	out, err := Invoke(context.Background(), d, greetOp, nil)
	require.NoError(t, err)
	assert.Equal(t, "configured", out.Greeting.OrElse(""))
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindServer, Code: "ValidationError", Message: "bad field", StatusCode: 400, RequestID: "r1"}
	assert.Equal(t, "server error: ValidationError: bad field (status 400, request id r1)", err.Error())

	wrapped := fmt.Errorf("sts: %w", err)
	assert.True(t, IsKind(wrapped, KindServer))
	assert.False(t, IsKind(wrapped, KindAuth))
	assert.False(t, IsKind(errors.New("plain"), KindServer))

	var rf awserr.RequestFailure = err.AWSError()
	assert.Equal(t, "ValidationError", rf.Code())
	assert.Equal(t, 400, rf.StatusCode())
	assert.Equal(t, "r1", rf.RequestID())

	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestOutcome(t *testing.T) {
	ok := Success(&greetOutput{Greeting: opt.Of("x")})
	assert.True(t, ok.OK())
	assert.Nil(t, ok.Err())
	v, err := ok.Unwrap()
	assert.NoError(t, err)
	assert.Equal(t, "x", v.Greeting.OrElse(""))

	empty := Success[greetOutput](nil)
	assert.True(t, empty.OK())
	assert.NotNil(t, empty.Result())

	bad := Failure[greetOutput](nil)
	assert.False(t, bad.OK())
	assert.Nil(t, bad.Result())
	_, err = bad.Unwrap()
	assert.Error(t, err)

	f := Resolved(ok)
	assert.True(t, f.Wait().OK())
}
