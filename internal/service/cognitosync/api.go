// Package cognitosync covers Cognito Sync device registration and dataset
// listing over the REST-JSON protocol.
package cognitosync

import (
	"context"
	"fmt"
	"net/http"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// Service describes Cognito Sync.
var Service = dispatch.Service{
	Name:           "cognito-sync",
	EndpointPrefix: "cognito-sync",
	APIVersion:     "2014-06-30",
	Protocol:       protocol.RESTJSON{},
}

// Error codes returned by Cognito Sync.
const (
	ErrCodeNotAuthorizedException        = "NotAuthorizedException"
	ErrCodeInvalidParameterException     = "InvalidParameterException"
	ErrCodeResourceNotFoundException     = "ResourceNotFoundException"
	ErrCodeInternalErrorException        = "InternalErrorException"
	ErrCodeInvalidConfigurationException = "InvalidConfigurationException"
	ErrCodeTooManyRequestsException      = "TooManyRequestsException"
)

var (
	opRegisterDevice = dispatch.Operation[RegisterDeviceInput, RegisterDeviceOutput]{
		Name:   "RegisterDevice",
		Method: http.MethodPost,
		Path:   "/identitypools/{IdentityPoolId}/identity/{IdentityId}/device",
	}
	opListDatasets = dispatch.Operation[ListDatasetsInput, ListDatasetsOutput]{
		Name:   "ListDatasets",
		Method: http.MethodGet,
		Path:   "/identitypools/{IdentityPoolId}/identities/{IdentityId}/datasets",
	}
)

// Client issues Cognito Sync calls.
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
		return nil, fmt.Errorf("cognitosync: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client { return &Client{d: d} }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// RegisterDevice registers a device to receive push sync notifications.
func (c *Client) RegisterDevice(ctx context.Context, in *RegisterDeviceInput) (*RegisterDeviceOutput, error) {
	return dispatch.Invoke(ctx, c.d, opRegisterDevice, in)
}

func (c *Client) RegisterDeviceAsync(ctx context.Context, in *RegisterDeviceInput) *dispatch.Future[RegisterDeviceOutput] {
	return dispatch.Go(ctx, c.d, opRegisterDevice, in)
}

func (c *Client) RegisterDeviceWithCallback(ctx context.Context, in *RegisterDeviceInput, h Handler[RegisterDeviceInput, RegisterDeviceOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opRegisterDevice, in, bind(c, h), cc)
}

// ListDatasets lists the datasets of an identity, one page at a time.
func (c *Client) ListDatasets(ctx context.Context, in *ListDatasetsInput) (*ListDatasetsOutput, error) {
	return dispatch.Invoke(ctx, c.d, opListDatasets, in)
}

func (c *Client) ListDatasetsAsync(ctx context.Context, in *ListDatasetsInput) *dispatch.Future[ListDatasetsOutput] {
	return dispatch.Go(ctx, c.d, opListDatasets, in)
}

func (c *Client) ListDatasetsWithCallback(ctx context.Context, in *ListDatasetsInput, h Handler[ListDatasetsInput, ListDatasetsOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opListDatasets, in, bind(c, h), cc)
}

// ListDatasetsPages follows NextToken, calling fn per page until it returns
// false or the service stops handing out new tokens.
func (c *Client) ListDatasetsPages(ctx context.Context, in *ListDatasetsInput, fn func(page *ListDatasetsOutput, lastPage bool) bool) error {
	req := ListDatasetsInput{}
	if in != nil {
		req = *in
	}
	seen := map[string]bool{}
	if t, ok := req.NextToken.Get(); ok {
		seen[t] = true
	}
	for {
		page, err := c.ListDatasets(ctx, &req)
		if err != nil {
			return err
		}
		token := page.NextToken.OrElse("")
		last := token == "" || seen[token]
		if !fn(page, last) || last {
			return nil
		}
		seen[token] = true
		req.NextToken = opt.Of(token)
	}
}
