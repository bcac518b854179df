// Package dispatch turns typed operation calls into signed HTTP requests, with
// retry, and delivers the result synchronously, as a future, or to a callback
// running on a bounded executor.
//
// A Dispatcher is bound to one Service. Operations are declared once per service
// package as Operation[In, Out] values and invoked through the generic Invoke, Go
// and Callback functions.
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"wirecall/internal/auth"
	"wirecall/internal/config"
	"wirecall/internal/endpoint"
	"wirecall/internal/executor"
	"wirecall/internal/logging"
	"wirecall/internal/protocol"
	"wirecall/internal/retry"
	"wirecall/internal/transport"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "wirecall/1.0"

// Service is the static description of a remote service.
type Service struct {
	Name           string // Display name, e.g. "sts"
	SigningName    string // SigV4 service name; defaults to EndpointPrefix
	EndpointPrefix string
	Global         bool // One endpoint per partition
	APIVersion     string
	TargetPrefix   string // JSON protocol X-Amz-Target prefix
	Protocol       protocol.Codec
}

// Operation binds a request type to a result type and a wire shape.
type Operation[In, Out any] struct {
	Name          string
	Method        string
	Path          string
	ResultWrapper string
	Idempotent    bool
	Unsigned      bool // Sent without credentials, e.g. AssumeRoleWithSAML
}

func (op Operation[In, Out]) binding(svc Service) protocol.Binding {
	return protocol.Binding{
		OperationName: op.Name,
		Method:        op.Method,
		PathTemplate:  op.Path,
		ResultWrapper: op.ResultWrapper,
		APIVersion:    svc.APIVersion,
		TargetPrefix:  svc.TargetPrefix,
	}
}

// retryable reports whether a failed attempt may be repeated without side effects.
func (op Operation[In, Out]) retryable() bool {
	if op.Idempotent {
		return true
	}
	switch op.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Dispatcher sends operations for one service. It holds no per-call state and is
// safe for concurrent use.
type Dispatcher struct {
	svc            Service
	base           *url.URL
	region         string
	creds          auth.Provider
	signer         auth.Signer
	policy         retry.Policy
	exec           *executor.Pool
	ownsExec       bool
	client         transport.Doer
	logger         *zap.Logger
	monitor        Monitor
	callTimeout    time.Duration
	attemptTimeout time.Duration
	userAgent      string
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

type options struct {
	endpoint       string
	region         string
	creds          auth.Provider
	signer         auth.Signer
	policy         retry.Policy
	exec           *executor.Pool
	maxWorkers     int
	client         transport.Doer
	logger         *zap.Logger
	monitor        Monitor
	callTimeout    time.Duration
	attemptTimeout time.Duration
	userAgent      string
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// Option configures a Dispatcher.
type Option func(*options)

// WithEndpoint overrides endpoint resolution.
func WithEndpoint(u string) Option { return func(o *options) { o.endpoint = u } }

// WithRegion sets the region used for endpoint resolution and signing.
func WithRegion(r string) Option { return func(o *options) { o.region = r } }

// WithCredentials sets the credential provider.
func WithCredentials(p auth.Provider) Option { return func(o *options) { o.creds = p } }

// WithSigner replaces the default SigV4 signer.
func WithSigner(s auth.Signer) Option { return func(o *options) { o.signer = s } }

// WithRetryPolicy sets the retry policy.
func WithRetryPolicy(p retry.Policy) Option { return func(o *options) { o.policy = p } }

// WithExecutor shares an existing pool. The dispatcher does not close it.
func WithExecutor(p *executor.Pool) Option { return func(o *options) { o.exec = p } }

// WithMaxWorkers sizes the pool the dispatcher creates when none is shared.
func WithMaxWorkers(n int) Option { return func(o *options) { o.maxWorkers = n } }

// WithHTTPClient sets the transport.
func WithHTTPClient(c transport.Doer) Option { return func(o *options) { o.client = c } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithMonitor registers a call observer.
func WithMonitor(m Monitor) Option { return func(o *options) { o.monitor = m } }

// WithCallTimeout bounds a whole call, every attempt and backoff included.
func WithCallTimeout(d time.Duration) Option { return func(o *options) { o.callTimeout = d } }

// WithAttemptTimeout bounds each attempt separately from the caller's context.
func WithAttemptTimeout(d time.Duration) Option { return func(o *options) { o.attemptTimeout = d } }

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option { return func(o *options) { o.userAgent = ua } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithSleep replaces the backoff sleep.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// New creates a dispatcher for svc. Unset options fall back to: the env then
// shared-file credential chain, SigV4 signing, three attempts with exponential
// backoff, and a private executor.
func New(svc Service, opts ...Option) (*Dispatcher, error) {
	if svc.Protocol == nil {
		return nil, fmt.Errorf("dispatch: service %s has no protocol", svc.Name)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	epSvc := endpoint.Service{Prefix: svc.EndpointPrefix, Global: svc.Global}
	ep, err := endpoint.Resolve(epSvc, o.region, o.endpoint)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	base, err := url.Parse(ep)
	if err != nil {
		return nil, fmt.Errorf("dispatch: invalid endpoint %q: %w", ep, err)
	}

	d := &Dispatcher{
		svc:            svc,
		base:           base,
		region:         o.region,
		creds:          o.creds,
		signer:         o.signer,
		policy:         o.policy,
		exec:           o.exec,
		client:         o.client,
		logger:         logging.For(o.logger, logging.CategoryDispatch).With(zap.String("service", svc.Name)),
		monitor:        o.monitor,
		callTimeout:    o.callTimeout,
		attemptTimeout: o.attemptTimeout,
		userAgent:      o.userAgent,
		now:            o.now,
		sleep:          o.sleep,
	}
	if d.creds == nil {
		d.creds = auth.NewChainProvider(auth.EnvProvider{}, auth.NewSharedFileProvider("", ""))
	}
	if d.signer == nil {
		name := svc.SigningName
		if name == "" {
			name = svc.EndpointPrefix
		}
		d.signer = auth.NewSigV4Signer(name, endpoint.SigningRegion(epSvc, o.region))
	}
	if d.policy == nil {
		d.policy = retry.NewExponential(3, 100*time.Millisecond, 20*time.Second)
	}
	if d.client == nil {
		hc, err := transport.NewHTTPClient(config.DefaultConfig().HTTP, 0)
		if err != nil {
			return nil, fmt.Errorf("dispatch: %w", err)
		}
		d.client = hc
	}
	if d.exec == nil {
		d.exec = executor.New(o.maxWorkers, logging.For(o.logger, logging.CategoryExecutor))
		d.ownsExec = true
	}
	if d.userAgent == "" {
		d.userAgent = DefaultUserAgent
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.sleep == nil {
		d.sleep = sleepContext
	}
	return d, nil
}

// FromConfig builds a dispatcher from configuration. extra options are applied
// last and win.
func FromConfig(svc Service, cfg *config.Config, extra ...Option) (*Dispatcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	client, err := transport.NewHTTPClient(cfg.HTTP, cfg.GetTimeout())
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	creds := auth.NewChainProvider(
		auth.EnvProvider{},
		auth.NewSharedFileProvider(cfg.CredentialsFile, cfg.Profile),
	)
	opts := []Option{
		WithRegion(cfg.Region),
		WithEndpoint(cfg.Endpoint),
		WithHTTPClient(client),
		WithCredentials(creds),
		WithRetryPolicy(retry.FromConfig(cfg)),
		WithMaxWorkers(cfg.GetMaxWorkers()),
		WithCallTimeout(cfg.GetTimeout()),
		WithAttemptTimeout(cfg.GetAttemptTimeout()),
		WithUserAgent(cfg.HTTP.UserAgent),
	}
	return New(svc, append(opts, extra...)...)
}

// Service returns the service description.
func (d *Dispatcher) Service() Service { return d.svc }

// Endpoint returns the resolved base URL.
func (d *Dispatcher) Endpoint() string { return d.base.String() }

// Region returns the configured region.
func (d *Dispatcher) Region() string { return d.region }

// Credentials returns the credential provider.
func (d *Dispatcher) Credentials() auth.Provider { return d.creds }

// Executor returns the pool used for async calls.
func (d *Dispatcher) Executor() *executor.Pool { return d.exec }

// Logger returns the dispatcher's logger.
func (d *Dispatcher) Logger() *zap.Logger { return d.logger }

// Close waits for outstanding async calls, releases a private executor and drops
// idle connections.
func (d *Dispatcher) Close() {
	if d.ownsExec {
		d.exec.Close()
	}
	if c, ok := d.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
