// Package auth resolves credentials and signs outgoing requests.
//
// Providers wrap aws-sdk-go's credential sources behind a context-aware interface;
// signers attach authentication to a prepared *http.Request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
)

// ErrNoCredentials is returned when a provider has nothing to offer.
var ErrNoCredentials = errors.New("no credentials available")

// DefaultExpiryWindow is how early cached credentials are refreshed before they expire.
const DefaultExpiryWindow = 5 * time.Minute

// Credentials is a resolved access key set.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Source          string // Provider name, for logs

	CanExpire bool
	Expires   time.Time
}

// HasKeys reports whether both halves of the key pair are present.
func (c Credentials) HasKeys() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// Expired reports whether the credentials are past their expiry at now.
func (c Credentials) Expired(now time.Time) bool {
	return c.CanExpire && !now.Before(c.Expires)
}

// Provider supplies credentials. Implementations must be safe for concurrent use.
type Provider interface {
	Retrieve(ctx context.Context) (Credentials, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (Credentials, error)

// Retrieve calls f(ctx).
func (f ProviderFunc) Retrieve(ctx context.Context) (Credentials, error) { return f(ctx) }

func fromValue(v credentials.Value) Credentials {
	return Credentials{
		AccessKeyID:     v.AccessKeyID,
		SecretAccessKey: v.SecretAccessKey,
		SessionToken:    v.SessionToken,
		Source:          v.ProviderName,
	}
}

// StaticProvider returns a fixed key set.
type StaticProvider struct {
	Value Credentials
}

// NewStaticProvider returns a provider for the given keys.
func NewStaticProvider(accessKeyID, secretAccessKey, sessionToken string) *StaticProvider {
	return &StaticProvider{Value: Credentials{
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		SessionToken:    sessionToken,
		Source:          "StaticProvider",
	}}
}

// Retrieve returns the static keys.
func (p *StaticProvider) Retrieve(ctx context.Context) (Credentials, error) {
	if !p.Value.HasKeys() {
		return Credentials{}, fmt.Errorf("static: %w", ErrNoCredentials)
	}
	return p.Value, nil
}

// EnvProvider reads AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN
// on every call.
type EnvProvider struct{}

// Retrieve reads the environment.
func (EnvProvider) Retrieve(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	v, err := (&credentials.EnvProvider{}).Retrieve()
	if err != nil {
		return Credentials{}, fmt.Errorf("env: %w: %v", ErrNoCredentials, err)
	}
	return fromValue(v), nil
}

// DefaultSharedCredentialsFile returns ~/.aws/credentials, honoring
// AWS_SHARED_CREDENTIALS_FILE.
func DefaultSharedCredentialsFile() string {
	if f := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

// SharedFileProvider reads a profile from an INI credentials file and caches it until
// Invalidate is called, typically by Watch when the file changes.
type SharedFileProvider struct {
	Filename string
	Profile  string

	mu     sync.Mutex
	cached *Credentials
}

// NewSharedFileProvider returns a provider for profile in filename. Empty values fall
// back to the default file and the "default" profile.
func NewSharedFileProvider(filename, profile string) *SharedFileProvider {
	if filename == "" {
		filename = DefaultSharedCredentialsFile()
	}
	if profile == "" {
		profile = "default"
	}
	return &SharedFileProvider{Filename: filename, Profile: profile}
}

// Retrieve returns the cached profile, reading the file on first use.
func (p *SharedFileProvider) Retrieve(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached, nil
	}

	src := &credentials.SharedCredentialsProvider{Filename: p.Filename, Profile: p.Profile}
	v, err := src.Retrieve()
	if err != nil {
		return Credentials{}, fmt.Errorf("shared file %s [%s]: %w: %v", p.Filename, p.Profile, ErrNoCredentials, err)
	}
	creds := fromValue(v)
	p.cached = &creds
	return creds, nil
}

// Invalidate drops the cached profile so the next Retrieve rereads the file.
func (p *SharedFileProvider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

// ChainProvider returns the first provider that succeeds.
type ChainProvider struct {
	Providers []Provider
}

// NewChainProvider chains providers in priority order.
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{Providers: providers}
}

// Retrieve walks the chain. When every provider fails the errors are joined.
func (c *ChainProvider) Retrieve(ctx context.Context) (Credentials, error) {
	var errs []error
	for _, p := range c.Providers {
		creds, err := p.Retrieve(ctx)
		if err == nil {
			return creds, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Credentials{}, ctxErr
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return Credentials{}, ErrNoCredentials
	}
	return Credentials{}, fmt.Errorf("credential chain exhausted: %w", errors.Join(errs...))
}

// CachingProvider memoizes an expiring provider and refreshes it ExpiryWindow before
// expiry. Concurrent callers share one refresh.
type CachingProvider struct {
	Provider     Provider
	ExpiryWindow time.Duration
	Now          func() time.Time

	mu     sync.Mutex
	cached *Credentials
}

// NewCachingProvider wraps p with the default expiry window.
func NewCachingProvider(p Provider) *CachingProvider {
	return &CachingProvider{Provider: p, ExpiryWindow: DefaultExpiryWindow, Now: time.Now}
}

// Retrieve returns cached credentials while they are fresh.
func (c *CachingProvider) Retrieve(ctx context.Context) (Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if c.cached != nil && !c.cached.Expired(now().Add(c.ExpiryWindow)) {
		return *c.cached, nil
	}

	creds, err := c.Provider.Retrieve(ctx)
	if err != nil {
		return Credentials{}, err
	}
	c.cached = &creds
	return creds, nil
}

// Invalidate forces the next Retrieve to refresh.
func (c *CachingProvider) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
