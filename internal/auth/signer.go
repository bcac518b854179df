package auth

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
)

// Signer attaches authentication to a fully-built request. body is the exact
// payload already set on req.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, body []byte, creds Credentials) error
}

// SigV4Signer signs with AWS Signature Version 4.
type SigV4Signer struct {
	Service string
	Region  string
	Now     func() time.Time
}

// NewSigV4Signer returns a SigV4 signer for service in region.
func NewSigV4Signer(service, region string) *SigV4Signer {
	return &SigV4Signer{Service: service, Region: region, Now: time.Now}
}

// Sign computes the Authorization header. Session tokens are sent as
// X-Amz-Security-Token.
func (s *SigV4Signer) Sign(ctx context.Context, req *http.Request, body []byte, creds Credentials) error {
	if !creds.HasKeys() {
		return fmt.Errorf("sigv4: %w", ErrNoCredentials)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	signer := v4.NewSigner(credentials.NewStaticCredentials(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken))
	if _, err := signer.Sign(req, bytes.NewReader(body), s.Service, s.Region, now()); err != nil {
		return fmt.Errorf("sigv4: %w", err)
	}
	return nil
}

// BearerSigner sends the session token, or the secret when there is none, as an
// Authorization bearer token. Used for services fronted by token gateways.
type BearerSigner struct{}

// Sign sets the Authorization header.
func (BearerSigner) Sign(ctx context.Context, req *http.Request, body []byte, creds Credentials) error {
	token := creds.SessionToken
	if token == "" {
		token = creds.SecretAccessKey
	}
	if token == "" {
		return fmt.Errorf("bearer: %w", ErrNoCredentials)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// AnonymousSigner leaves the request unsigned.
type AnonymousSigner struct{}

// Sign does nothing.
func (AnonymousSigner) Sign(context.Context, *http.Request, []byte, Credentials) error { return nil }
