// Package iam covers the IAM credential report operations. IAM is a global
// service: one endpoint per partition, signed for us-east-1 (or cn-north-1).
package iam

import (
	"context"
	"fmt"
	"time"

	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/protocol"
)

// Service describes IAM.
var Service = dispatch.Service{
	Name:           "iam",
	EndpointPrefix: "iam",
	Global:         true,
	APIVersion:     "2010-05-08",
	Protocol:       protocol.Query{},
}

// Error codes returned by the credential report operations.
const (
	ErrCodeLimitExceeded              = "LimitExceeded"
	ErrCodeServiceFailure             = "ServiceFailure"
	ErrCodeCredentialReportNotPresent = "ReportNotPresent"
	ErrCodeCredentialReportExpired    = "ReportExpired"
	ErrCodeCredentialReportNotReady   = "ReportInProgress"
)

var (
	opGenerateCredentialReport = dispatch.Operation[GenerateCredentialReportInput, GenerateCredentialReportOutput]{
		Name: "GenerateCredentialReport", ResultWrapper: "GenerateCredentialReportResult", Idempotent: true,
	}
	opGetCredentialReport = dispatch.Operation[GetCredentialReportInput, GetCredentialReportOutput]{
		Name: "GetCredentialReport", ResultWrapper: "GetCredentialReportResult", Idempotent: true,
	}
)

// Client issues IAM calls.
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
		return nil, fmt.Errorf("iam: %w", err)
	}
	return &Client{d: d}, nil
}

// NewWithDispatcher wraps an existing dispatcher built for Service.
func NewWithDispatcher(d *dispatch.Dispatcher) *Client { return &Client{d: d} }

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *dispatch.Dispatcher { return c.d }

// Close releases the dispatcher.
func (c *Client) Close() { c.d.Close() }

// GenerateCredentialReport starts (or reports on) generation of the account's
// credential report.
func (c *Client) GenerateCredentialReport(ctx context.Context, in *GenerateCredentialReportInput) (*GenerateCredentialReportOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGenerateCredentialReport, in)
}

func (c *Client) GenerateCredentialReportAsync(ctx context.Context, in *GenerateCredentialReportInput) *dispatch.Future[GenerateCredentialReportOutput] {
	return dispatch.Go(ctx, c.d, opGenerateCredentialReport, in)
}

func (c *Client) GenerateCredentialReportWithCallback(ctx context.Context, in *GenerateCredentialReportInput, h Handler[GenerateCredentialReportInput, GenerateCredentialReportOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGenerateCredentialReport, in, bind(c, h), cc)
}

// GetCredentialReport fetches the most recent credential report. Content is
// the decoded CSV.
func (c *Client) GetCredentialReport(ctx context.Context, in *GetCredentialReportInput) (*GetCredentialReportOutput, error) {
	return dispatch.Invoke(ctx, c.d, opGetCredentialReport, in)
}

func (c *Client) GetCredentialReportAsync(ctx context.Context, in *GetCredentialReportInput) *dispatch.Future[GetCredentialReportOutput] {
	return dispatch.Go(ctx, c.d, opGetCredentialReport, in)
}

func (c *Client) GetCredentialReportWithCallback(ctx context.Context, in *GetCredentialReportInput, h Handler[GetCredentialReportInput, GetCredentialReportOutput], cc *dispatch.CallerContext) error {
	return dispatch.Callback(ctx, c.d, opGetCredentialReport, in, bind(c, h), cc)
}

// WaitForCredentialReport generates a report and polls every interval until it
// is COMPLETE, then fetches it.
func (c *Client) WaitForCredentialReport(ctx context.Context, interval time.Duration) (*GetCredentialReportOutput, error) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		gen, err := c.GenerateCredentialReport(ctx, nil)
		if err != nil {
			return nil, err
		}
		if gen.State.OrElse(ReportStateTypeNotSet) == ReportStateTypeComplete {
			out, err := c.GetCredentialReport(ctx, nil)
			if err == nil || !dispatch.IsCode(err, ErrCodeCredentialReportNotReady) {
				return out, err
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
