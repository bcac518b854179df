package retry

import (
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/stretchr/testify/assert"

	"wirecall/internal/config"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		c    Class
		want bool
	}{
		{"transport idempotent", Class{Kind: KindTransport, Idempotent: true}, true},
		{"transport non-idempotent", Class{Kind: KindTransport}, false},
		{"auth", Class{Kind: KindAuth, Idempotent: true}, false},
		{"decode", Class{Kind: KindDecode, Idempotent: true}, false},
		{"throttle code", Class{Kind: KindServer, Code: "Throttling", StatusCode: 400}, true},
		{"throttle status", Class{Kind: KindServer, Code: "Whatever", StatusCode: 429}, true},
		{"transient idempotent", Class{Kind: KindServer, Code: "InternalFailure", StatusCode: 500, Idempotent: true}, true},
		{"transient non-idempotent", Class{Kind: KindServer, Code: "InternalFailure", StatusCode: 500}, false},
		{"5xx idempotent", Class{Kind: KindServer, Code: "Unknown", StatusCode: 503, Idempotent: true}, true},
		{"client fault", Class{Kind: KindServer, Code: "ValidationError", StatusCode: 400, Idempotent: true}, false},
		{"idp transient", Class{Kind: KindServer, Code: "IDPCommunicationError", StatusCode: 400, Idempotent: true}, true},
		{"sdk throttle code", Class{Kind: KindServer, Code: "EC2ThrottledException", StatusCode: 503}, true},
		{"sdk retryable code", Class{Kind: KindServer, Code: "RequestTimeout", StatusCode: 400, Idempotent: true}, true},
		{"expired token", Class{Kind: KindServer, Code: "ExpiredTokenException", StatusCode: 400, Idempotent: true}, false},
		{"slow down", Class{Kind: KindServer, Code: "SlowDown", StatusCode: 503}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Retryable(tt.c))
		})
	}
}

func TestIsThrottle_FollowsSDKCodes(t *testing.T) {
	for _, code := range []string{
		"Throttling", "ThrottlingException", "ThrottledException", "RequestThrottledException",
		"TooManyRequestsException", "ProvisionedThroughputExceededException", "TransactionInProgressException",
		"RequestLimitExceeded", "RequestThrottled", "PriorRequestNotComplete", "EC2ThrottledException",
	} {
		c := Class{Kind: KindServer, Code: code, StatusCode: 400}
		assert.True(t, request.IsErrorThrottle(requestFailure(c)), code)
		assert.True(t, IsThrottle(c), code)
		assert.False(t, IsThrottle(Class{Kind: KindTransport, Code: code}), code)
	}
	assert.False(t, IsThrottle(Class{Kind: KindServer, Code: "AccessDenied", StatusCode: 403}))
}

func TestExponential_ShouldRetryHonorsBudget(t *testing.T) {
	p := NewExponential(3, 10*time.Millisecond, time.Second)
	c := Class{Kind: KindTransport, Idempotent: true}

	assert.True(t, p.ShouldRetry(1, c))
	assert.True(t, p.ShouldRetry(2, c))
	assert.False(t, p.ShouldRetry(3, c))
	assert.Equal(t, 3, p.MaxAttempts())
}

func TestExponential_Delay(t *testing.T) {
	p := NewExponential(10, 100*time.Millisecond, time.Second)

	assert.Equal(t, 100*time.Millisecond, p.Delay(1))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3))
	assert.Equal(t, 800*time.Millisecond, p.Delay(4))
	assert.Equal(t, time.Second, p.Delay(5))
	assert.Equal(t, time.Second, p.Delay(500))
}

func TestExponential_DelayUncapped(t *testing.T) {
	p := NewExponential(10, time.Second, 0)
	assert.Equal(t, time.Duration(math.MaxInt64), p.Delay(1000))
}

func TestExponential_Jitter(t *testing.T) {
	p := NewExponential(5, 100*time.Millisecond, time.Second)
	p.Jitter = true
	p.Rand = func() float64 { return 0.5 }
	assert.Equal(t, 100*time.Millisecond, p.Delay(2))

	p.Rand = nil
	for i := 0; i < 50; i++ {
		d := p.Delay(3)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 400*time.Millisecond)
	}
}

func TestNever(t *testing.T) {
	var p Policy = Never{}
	assert.Equal(t, 1, p.MaxAttempts())
	assert.False(t, p.ShouldRetry(1, Class{Kind: KindServer, Code: "Throttling"}))
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Retry.Jitter = false
	p := FromConfig(cfg)
	exp, ok := p.(*Exponential)
	if assert.True(t, ok) {
		assert.Equal(t, 3, exp.MaxAttempts())
		assert.Equal(t, 100*time.Millisecond, exp.Delay(1))
	}

	cfg.Retry.MaxAttempts = 1
	assert.IsType(t, Never{}, FromConfig(cfg))
}
