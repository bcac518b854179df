// Package securityhub covers Security Hub finding retrieval over REST-JSON.
package securityhub

import (
	"context"
	"fmt"
	"net/http"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// Service describes Security Hub.
var Service = dispatch.Service{
	Name:           "securityhub",
	EndpointPrefix: "securityhub",
	APIVersion:     "2018-10-26",
	Protocol:       protocol.RESTJSON{},
}

// Error codes returned by GetFindings.
const (
	ErrCodeInternalException      = "InternalException"
	ErrCodeInvalidInputException  = "InvalidInputException"
	ErrCodeInvalidAccessException = "InvalidAccessException"
	ErrCodeLimitExceededException = "LimitExceededException"
)

// GetFindings is a read despite its POST method, so it is marked idempotent.
var opGetFindings = dispatch.Operation[GetFindingsInput, GetFindingsOutput]{
	Name:       "GetFindings",
	Method:     http.MethodPost,
	Path:       "/findings",
	Idempotent: true,
}

// Client issues Security Hub calls.
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
		return nil, fmt.Errorf("securityhub: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client { return &Client{d: d} }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// GetFindings returns one page of findings matching the filters.
func (c *Client) GetFindings(ctx context.Context, in *GetFindingsInput) (*GetFindingsOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGetFindings, in)
}

func (c *Client) GetFindingsAsync(ctx context.Context, in *GetFindingsInput) *dispatch.Future[GetFindingsOutput] {
	return dispatch.Go(ctx, c.d, opGetFindings, in)
}

func (c *Client) GetFindingsWithCallback(ctx context.Context, in *GetFindingsInput, h Handler[GetFindingsInput, GetFindingsOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGetFindings, in, bind(c, h), cc)
}

// GetFindingsPages follows NextToken, calling fn per page until it returns false
// or the service stops handing out new tokens.
func (c *Client) GetFindingsPages(ctx context.Context, in *GetFindingsInput, fn func(page *GetFindingsOutput, lastPage bool) bool) error {
	req := GetFindingsInput{}
	if in != nil {
		req = *in
	}
	seen := map[string]bool{}
	if t, ok := req.NextToken.Get(); ok {
		seen[t] = true
	}
	for {
		page, err := c.GetFindings(ctx, &req)
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
