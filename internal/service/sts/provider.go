package sts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wirecall/internal/auth"
	"wirecall/internal/opt"
)

// DefaultAssumeRoleDuration is the session length requested when none is set.
const DefaultAssumeRoleDuration = 15 * time.Minute

// AssumeRoleProvider resolves credentials by assuming a role. Wrap it in
// auth.NewCachingProvider so sessions are reused until they near expiry;
// NewAssumeRoleProvider does that for you.
type AssumeRoleProvider struct {
	Client          *Client
	RoleARN         string
	RoleSessionName string // Defaults to a generated "wirecall-<uuid>" name
	ExternalID      string
	Policy          string
	Duration        time.Duration
	SerialNumber    string
	TokenCode       func() (string, error) // MFA code source, called per refresh
}

// NewAssumeRoleProvider returns a caching provider that assumes roleARN through c.
func NewAssumeRoleProvider(c *Client, roleARN string, configure ...func(*AssumeRoleProvider)) *auth.CachingProvider {
	p := &AssumeRoleProvider{Client: c, RoleARN: roleARN}
	for _, fn := range configure {
		fn(p)
	}
	return auth.NewCachingProvider(p)
}

// Retrieve calls AssumeRole and converts the issued credentials.
func (p *AssumeRoleProvider) Retrieve(ctx context.Context) (auth.Credentials, error) {
	if p.Client == nil || p.RoleARN == "" {
		return auth.Credentials{}, errors.New("sts: assume role provider needs a client and role ARN")
	}
	in := &AssumeRoleInput{
		RoleArn:         opt.Of(p.RoleARN),
		RoleSessionName: opt.Of(p.sessionName()),
	}
	d := p.Duration
	if d <= 0 {
		d = DefaultAssumeRoleDuration
	}
	in.DurationSeconds = opt.Of(int64(d / time.Second))
	if p.ExternalID != "" {
		in.ExternalID = opt.Of(p.ExternalID)
	}
	if p.Policy != "" {
		in.Policy = opt.Of(p.Policy)
	}
	if p.SerialNumber != "" {
		if p.TokenCode == nil {
			return auth.Credentials{}, errors.New("sts: MFA serial number set without a token code source")
		}
		code, err := p.TokenCode()
		if err != nil {
			return auth.Credentials{}, fmt.Errorf("sts: read MFA token code: %w", err)
		}
		in.SerialNumber = opt.Of(p.SerialNumber)
		in.TokenCode = opt.Of(code)
	}

	out, err := p.Client.AssumeRole(ctx, in)
	if err != nil {
		return auth.Credentials{}, fmt.Errorf("sts: assume role %s: %w", p.RoleARN, err)
	}
	return toAuthCredentials(out.Credentials, "AssumeRoleProvider")
}

func (p *AssumeRoleProvider) sessionName() string {
	if p.RoleSessionName != "" {
		return p.RoleSessionName
	}
	return DefaultSessionName()
}

// DefaultSessionName returns a unique session name. Role session names are
// limited to 64 characters of [\w+=,.@-].
func DefaultSessionName() string {
	return "wirecall-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func toAuthCredentials(v opt.Value[Credentials], source string) (auth.Credentials, error) {
	c, ok := v.Get()
	if !ok {
		return auth.Credentials{}, errors.New("sts: response carried no credentials")
	}
	creds := auth.Credentials{
		AccessKeyID:     c.AccessKeyID.OrElse(""),
		SecretAccessKey: c.SecretAccessKey.OrElse(""),
		SessionToken:    c.SessionToken.OrElse(""),
		Source:          source,
	}
	if exp, ok := c.Expiration.Get(); ok {
		creds.CanExpire = true
		creds.Expires = exp
	}
	if !creds.HasKeys() {
		return auth.Credentials{}, errors.New("sts: response carried incomplete credentials")
	}
	return creds, nil
}
