// Package elasticache covers the ElastiCache reserved cache node listing.
package elasticache

import (
	"context"
	"fmt"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/opt"
	"wirecall/internal/protocol"
)

// Service describes ElastiCache.
var Service = dispatch.Service{
	Name:           "elasticache",
	EndpointPrefix: "elasticache",
	APIVersion:     "2015-02-02",
	Protocol:       protocol.Query{},
}

// Error codes returned by DescribeReservedCacheNodes.
const (
	ErrCodeReservedCacheNodeNotFoundFault       = "ReservedCacheNodeNotFound"
	ErrCodeInvalidParameterValueException       = "InvalidParameterValue"
	ErrCodeInvalidParameterCombinationException = "InvalidParameterCombination"
)

var opDescribeReservedCacheNodes = dispatch.Operation[DescribeReservedCacheNodesInput, DescribeReservedCacheNodesOutput]{
	Name:          "DescribeReservedCacheNodes",
	ResultWrapper: "DescribeReservedCacheNodesResult",
	Idempotent:    true,
}

// Client issues ElastiCache calls.
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
		return nil, fmt.Errorf("elasticache: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client { return &Client{d: d} }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// DescribeReservedCacheNodes returns one page of reserved cache nodes.
func (c *Client) DescribeReservedCacheNodes(ctx context.Context, in *DescribeReservedCacheNodesInput) (*DescribeReservedCacheNodesOutput, error) {
	return dispatch.Invoke(ctx, c.d, opDescribeReservedCacheNodes, in)
}

func (c *Client) DescribeReservedCacheNodesAsync(ctx context.Context, in *DescribeReservedCacheNodesInput) *dispatch.Future[DescribeReservedCacheNodesOutput] {
	return dispatch.Go(ctx, c.d, opDescribeReservedCacheNodes, in)
}

func (c *Client) DescribeReservedCacheNodesWithCallback(ctx context.Context, in *DescribeReservedCacheNodesInput, h Handler[DescribeReservedCacheNodesInput, DescribeReservedCacheNodesOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opDescribeReservedCacheNodes, in, bind(c, h), cc)
}

// DescribeReservedCacheNodesPages calls fn for each page, following Marker until
// the last page or until fn returns false. in is copied and never modified.
func (c *Client) DescribeReservedCacheNodesPages(ctx context.Context, in *DescribeReservedCacheNodesInput, fn func(page *DescribeReservedCacheNodesOutput, lastPage bool) bool) error {
	req := DescribeReservedCacheNodesInput{}
	if in != nil {
		req = *in
	}
	seen := map[string]bool{}
	for {
		page, err := c.DescribeReservedCacheNodes(ctx, &req)
		if err != nil {
			return err
		}
		marker, more := page.Marker.Get()
		last := !more || marker == "" || seen[marker]
		if !fn(page, last) || last {
			return nil
		}
		seen[marker] = true
		req.Marker = opt.Of(marker)
	}
}
