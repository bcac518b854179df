// Package sts is a client for the AWS Security Token Service, spoken over the
// query protocol.
package sts

import (
	"context"
	"fmt"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/protocol"
)

// Service describes STS.
var Service = dispatch.Service{
	Name:           "sts",
	EndpointPrefix: "sts",
	APIVersion:     "2011-06-15",
	Protocol:       protocol.Query{},
}

// Error codes returned by STS operations.
const (
	ErrCodeMalformedPolicyDocument              = "MalformedPolicyDocument"
	ErrCodePackedPolicyTooLarge                 = "PackedPolicyTooLarge"
	ErrCodeRegionDisabledException              = "RegionDisabledException"
	ErrCodeIDPRejectedClaim                     = "IDPRejectedClaim"
	ErrCodeInvalidIdentityToken                 = "InvalidIdentityToken"
	ErrCodeExpiredTokenException                = "ExpiredTokenException"
	ErrCodeIDPCommunicationError                = "IDPCommunicationError"
	ErrCodeInvalidAuthorizationMessageException = "InvalidAuthorizationMessageException"
)

var (
	opAssumeRole = dispatch.Operation[AssumeRoleInput, AssumeRoleOutput]{
		Name: "AssumeRole", ResultWrapper: "AssumeRoleResult",
	}
	opAssumeRoleWithSAML = dispatch.Operation[AssumeRoleWithSAMLInput, AssumeRoleWithSAMLOutput]{
		Name: "AssumeRoleWithSAML", ResultWrapper: "AssumeRoleWithSAMLResult", Unsigned: true,
	}
	opAssumeRoleWithWebIdentity = dispatch.Operation[AssumeRoleWithWebIdentityInput, AssumeRoleWithWebIdentityOutput]{
		Name: "AssumeRoleWithWebIdentity", ResultWrapper: "AssumeRoleWithWebIdentityResult", Unsigned: true,
	}
	opDecodeAuthorizationMessage = dispatch.Operation[DecodeAuthorizationMessageInput, DecodeAuthorizationMessageOutput]{
		Name: "DecodeAuthorizationMessage", ResultWrapper: "DecodeAuthorizationMessageResult", Idempotent: true,
	}
	opGetFederationToken = dispatch.Operation[GetFederationTokenInput, GetFederationTokenOutput]{
		Name: "GetFederationToken", ResultWrapper: "GetFederationTokenResult",
	}
	opGetSessionToken = dispatch.Operation[GetSessionTokenInput, GetSessionTokenOutput]{
		Name: "GetSessionToken", ResultWrapper: "GetSessionTokenResult",
	}
	opGetCallerIdentity = dispatch.Operation[GetCallerIdentityInput, GetCallerIdentityOutput]{
		Name: "GetCallerIdentity", ResultWrapper: "GetCallerIdentityResult", Idempotent: true,
	}
)

// Client issues STS calls.
type Client struct {
	d *dispatch.Dispatcher
}

// Handler receives the outcome of a WithCallback call on an executor worker.
type Handler[In, Out any] func(c *Client, in *In, outcome dispatch.Outcome[Out], cc *dispatch.CallerContext)

func bind[In, Out any](c *Client, h Handler[In, Out]) dispatch.Handler[In, Out] {
	if h == nil {
		return nil
	}
	return func(in *In, outcome dispatch.Outcome[Out], cc *dispatch.CallerContext) {
		h(c, in, outcome, cc)
	}
}

// New builds a client from configuration.
func New(cfg *config.Config, opts ...dispatch.Option) (*Client, error) {
	d, err := dispatch.FromConfig(Service, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("sts: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client {
	return &Client{d: d}
}

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// AssumeRole returns temporary credentials for a role.
func (c *Client) AssumeRole(ctx context.Context, in *AssumeRoleInput) (*AssumeRoleOutput, error) {
	return dispatch.Invoke(ctx, c.d, opAssumeRole, in)
}

func (c *Client) AssumeRoleAsync(ctx context.Context, in *AssumeRoleInput) *dispatch.Future[AssumeRoleOutput] {
	return dispatch.Go(ctx, c.d, opAssumeRole, in)
}

func (c *Client) AssumeRoleWithCallback(ctx context.Context, in *AssumeRoleInput, h Handler[AssumeRoleInput, AssumeRoleOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opAssumeRole, in, bind(c, h), cc)
}

// AssumeRoleWithSAML exchanges a SAML assertion for role credentials. The call is
// not signed.
func (c *Client) AssumeRoleWithSAML(ctx context.Context, in *AssumeRoleWithSAMLInput) (*AssumeRoleWithSAMLOutput, error) {
	return dispatch.Invoke(ctx, c.d, opAssumeRoleWithSAML, in)
}

func (c *Client) AssumeRoleWithSAMLAsync(ctx context.Context, in *AssumeRoleWithSAMLInput) *dispatch.Future[AssumeRoleWithSAMLOutput] {
	return dispatch.Go(ctx, c.d, opAssumeRoleWithSAML, in)
}

func (c *Client) AssumeRoleWithSAMLWithCallback(ctx context.Context, in *AssumeRoleWithSAMLInput, h Handler[AssumeRoleWithSAMLInput, AssumeRoleWithSAMLOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opAssumeRoleWithSAML, in, bind(c, h), cc)
}

// AssumeRoleWithWebIdentity exchanges an OIDC token for role credentials. The
// call is not signed.
func (c *Client) AssumeRoleWithWebIdentity(ctx context.Context, in *AssumeRoleWithWebIdentityInput) (*AssumeRoleWithWebIdentityOutput, error) {
	return dispatch.Invoke(ctx, c.d, opAssumeRoleWithWebIdentity, in)
}

func (c *Client) AssumeRoleWithWebIdentityAsync(ctx context.Context, in *AssumeRoleWithWebIdentityInput) *dispatch.Future[AssumeRoleWithWebIdentityOutput] {
	return dispatch.Go(ctx, c.d, opAssumeRoleWithWebIdentity, in)
}

func (c *Client) AssumeRoleWithWebIdentityWithCallback(ctx context.Context, in *AssumeRoleWithWebIdentityInput, h Handler[AssumeRoleWithWebIdentityInput, AssumeRoleWithWebIdentityOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opAssumeRoleWithWebIdentity, in, bind(c, h), cc)
}

// DecodeAuthorizationMessage decodes the encoded detail of an authorization
// failure.
func (c *Client) DecodeAuthorizationMessage(ctx context.Context, in *DecodeAuthorizationMessageInput) (*DecodeAuthorizationMessageOutput, error) {
	return dispatch.Invoke(ctx, c.d, opDecodeAuthorizationMessage, in)
}

func (c *Client) DecodeAuthorizationMessageAsync(ctx context.Context, in *DecodeAuthorizationMessageInput) *dispatch.Future[DecodeAuthorizationMessageOutput] {
	return dispatch.Go(ctx, c.d, opDecodeAuthorizationMessage, in)
}

func (c *Client) DecodeAuthorizationMessageWithCallback(ctx context.Context, in *DecodeAuthorizationMessageInput, h Handler[DecodeAuthorizationMessageInput, DecodeAuthorizationMessageOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opDecodeAuthorizationMessage, in, bind(c, h), cc)
}

// GetFederationToken returns credentials for a federated user.
func (c *Client) GetFederationToken(ctx context.Context, in *GetFederationTokenInput) (*GetFederationTokenOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGetFederationToken, in)
}

func (c *Client) GetFederationTokenAsync(ctx context.Context, in *GetFederationTokenInput) *dispatch.Future[GetFederationTokenOutput] {
	return dispatch.Go(ctx, c.d, opGetFederationToken, in)
}

func (c *Client) GetFederationTokenWithCallback(ctx context.Context, in *GetFederationTokenInput, h Handler[GetFederationTokenInput, GetFederationTokenOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGetFederationToken, in, bind(c, h), cc)
}

// GetSessionToken returns session credentials for the calling identity,
// optionally MFA-authenticated.
func (c *Client) GetSessionToken(ctx context.Context, in *GetSessionTokenInput) (*GetSessionTokenOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGetSessionToken, in)
}

func (c *Client) GetSessionTokenAsync(ctx context.Context, in *GetSessionTokenInput) *dispatch.Future[GetSessionTokenOutput] {
	return dispatch.Go(ctx, c.d, opGetSessionToken, in)
}

func (c *Client) GetSessionTokenWithCallback(ctx context.Context, in *GetSessionTokenInput, h Handler[GetSessionTokenInput, GetSessionTokenOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGetSessionToken, in, bind(c, h), cc)
}

// GetCallerIdentity describes the identity whose credentials signed the call.
func (c *Client) GetCallerIdentity(ctx context.Context, in *GetCallerIdentityInput) (*GetCallerIdentityOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGetCallerIdentity, in)
}

func (c *Client) GetCallerIdentityAsync(ctx context.Context, in *GetCallerIdentityInput) *dispatch.Future[GetCallerIdentityOutput] {
	return dispatch.Go(ctx, c.d, opGetCallerIdentity, in)
}

func (c *Client) GetCallerIdentityWithCallback(ctx context.Context, in *GetCallerIdentityInput, h Handler[GetCallerIdentityInput, GetCallerIdentityOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGetCallerIdentity, in, bind(c, h), cc)
}
