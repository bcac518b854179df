// Package ecs covers ECS task definition lookup over the JSON 1.1 protocol.
package ecs

import (
	"context"
	"fmt"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/protocol"
)

// Service describes ECS.
var Service = dispatch.Service{
	Name:           "ecs",
	EndpointPrefix: "ecs",
	APIVersion:     "2014-11-13",
	TargetPrefix:   "AmazonEC2ContainerServiceV20141113",
	Protocol:       protocol.JSONRPC{Version: "1.1"},
}

// Error codes returned by DescribeTaskDefinition.
const (
	ErrCodeServerException           = "ServerException"
	ErrCodeClientException           = "ClientException"
	ErrCodeInvalidParameterException = "InvalidParameterException"
)

var opDescribeTaskDefinition = dispatch.Operation[DescribeTaskDefinitionInput, DescribeTaskDefinitionOutput]{
	Name:       "DescribeTaskDefinition",
	Idempotent: true,
}

// Client issues ECS calls.
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
		return nil, fmt.Errorf("ecs: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client { return &Client{d: d} }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// DescribeTaskDefinition describes a task definition by family, family:revision
// or full ARN.
func (c *Client) DescribeTaskDefinition(ctx context.Context, in *DescribeTaskDefinitionInput) (*DescribeTaskDefinitionOutput, error) {
	return dispatch.Invoke(ctx, c.d, opDescribeTaskDefinition, in)
}

func (c *Client) DescribeTaskDefinitionAsync(ctx context.Context, in *DescribeTaskDefinitionInput) *dispatch.Future[DescribeTaskDefinitionOutput] {
	return dispatch.Go(ctx, c.d, opDescribeTaskDefinition, in)
}

func (c *Client) DescribeTaskDefinitionWithCallback(ctx context.Context, in *DescribeTaskDefinitionInput, h Handler[DescribeTaskDefinitionInput, DescribeTaskDefinitionOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opDescribeTaskDefinition, in, bind(c, h), cc)
}
