// Package retry decides whether a failed attempt is retried and how long to wait.
package retry

import (
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"

	"wirecall/internal/config"
)

// Kind mirrors the dispatcher's error taxonomy.
type Kind int

const (
	KindTransport Kind = iota + 1 // Connection failure or timeout
	KindAuth                      // Credential resolution or signing
	KindServer                    // Well-formed error response
	KindDecode                    // Body did not match the expected shape
)

// Class is what the policy knows about a failed attempt.
type Class struct {
	Kind       Kind
	Code       string
	StatusCode int
	Idempotent bool // Operation is idempotent or the method is safe
}

// Policy decides retries. Attempts are numbered from 1.
type Policy interface {
	MaxAttempts() int
	ShouldRetry(attempt int, c Class) bool
	Delay(attempt int) time.Duration
}

// Codes the SDK's request package does not classify as throttles.
var extraThrottleCodes = map[string]struct{}{
	"BandwidthLimitExceeded": {},
	"LimitExceededException": {},
	"SlowDown":               {},
}

// Server-fault codes the SDK leaves to the status code, plus STS's
// IDPCommunicationError which arrives as a 400.
var extraTransientCodes = map[string]struct{}{
	"InternalFailure":       {},
	"InternalError":         {},
	"ServiceUnavailable":    {},
	"InternalServerError":   {},
	"IDPCommunicationError": {},
}

// requestFailure renders c the way the SDK's classifiers expect.
func requestFailure(c Class) awserr.RequestFailure {
	return awserr.NewRequestFailure(awserr.New(c.Code, "", nil), c.StatusCode, "")
}

// IsThrottle reports whether c is a throttling response.
func IsThrottle(c Class) bool {
	if c.Kind != KindServer {
		return false
	}
	if request.IsErrorThrottle(requestFailure(c)) {
		return true
	}
	if _, ok := extraThrottleCodes[c.Code]; ok {
		return true
	}
	return c.StatusCode == http.StatusTooManyRequests
}

// IsTransient reports whether c is a server fault worth repeating. Expired
// credential codes are left out; another attempt would sign with the same ones.
func IsTransient(c Class) bool {
	if c.Kind != KindServer {
		return false
	}
	err := requestFailure(c)
	if request.IsErrorRetryable(err) && !request.IsErrorExpiredCreds(err) {
		return true
	}
	if _, ok := extraTransientCodes[c.Code]; ok {
		return true
	}
	return c.StatusCode >= 500
}

// Retryable applies the classification rules independent of attempt budget.
func Retryable(c Class) bool {
	switch c.Kind {
	case KindTransport:
		return c.Idempotent
	case KindServer:
		if IsThrottle(c) {
			return true
		}
		return IsTransient(c) && c.Idempotent
	default:
		return false
	}
}

// Exponential retries up to Attempts times with capped exponential backoff.
type Exponential struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool

	// Rand returns a value in [0,1). Defaults to math/rand/v2.
	Rand func() float64
}

// NewExponential returns a policy without jitter.
func NewExponential(attempts int, base, maxDelay time.Duration) *Exponential {
	return &Exponential{Attempts: attempts, BaseDelay: base, MaxDelay: maxDelay}
}

// MaxAttempts returns the attempt ceiling, at least 1.
func (p *Exponential) MaxAttempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// ShouldRetry reports whether attempt may be followed by another.
func (p *Exponential) ShouldRetry(attempt int, c Class) bool {
	if attempt >= p.MaxAttempts() {
		return false
	}
	return Retryable(c)
}

// Delay returns min(MaxDelay, BaseDelay*2^(attempt-1)). With Jitter the result is
// drawn uniformly from [0, that).
func (p *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	if d <= 0 {
		return 0
	}
	// Cap the shift so large attempt counts cannot overflow.
	shift := attempt - 1
	if shift > 62 {
		shift = 62
	}
	scaled := float64(d) * math.Pow(2, float64(shift))
	if p.MaxDelay > 0 && scaled > float64(p.MaxDelay) {
		scaled = float64(p.MaxDelay)
	}
	out := time.Duration(math.MaxInt64)
	if scaled < float64(math.MaxInt64) {
		out = time.Duration(scaled)
	}
	if p.Jitter {
		r := rand.Float64
		if p.Rand != nil {
			r = p.Rand
		}
		out = time.Duration(float64(out) * r())
	}
	return out
}

// Never makes a single attempt.
type Never struct{}

func (Never) MaxAttempts() int            { return 1 }
func (Never) ShouldRetry(int, Class) bool { return false }
func (Never) Delay(int) time.Duration     { return 0 }

// FromConfig builds an Exponential policy from the retry section.
func FromConfig(cfg *config.Config) Policy {
	if cfg.Retry.MaxAttempts == 1 {
		return Never{}
	}
	return &Exponential{
		Attempts:  cfg.Retry.MaxAttempts,
		BaseDelay: cfg.GetRetryBaseDelay(),
		MaxDelay:  cfg.GetRetryMaxDelay(),
		Jitter:    cfg.Retry.Jitter,
	}
}
