// Package marketo provides a client for the Marketo SOAP lead API (mktows).
//
// Marketo is a marketing automation platform. Leads are people records with
// an open-ended set of attributes (FirstName, Company, custom fields, ...).
// The SOAP API addresses leads by id or email, upserts them singly or in
// batches, and manages static list membership.
//
// Every request carries an AuthenticationHeader signed with the account's
// secret key. The signature covers the request timestamp and is computed
// fresh for each call.
//
// Public Client operations never return transport or response errors. A
// failed call logs the error, forwards it to the attached ErrorLogger and
// returns nil. The only error surfaced to callers is ErrInvalidState from
// SyncLeadRecordByID.
package marketo

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Client is the main client for the Marketo SOAP API
type Client struct {
	transport Transport
	header    *AuthenticationHeader
	logger    *zap.Logger
	errLogger ErrorLogger
	now       func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClock sets the time source used to stamp requests.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a new Marketo client with default production logger
func NewClient(transport Transport, header *AuthenticationHeader, opts ...ClientOption) *Client {
	logger, _ := zap.NewProduction()
	return NewClientWithLogger(transport, header, logger, opts...)
}

// NewClientWithLogger creates a new Marketo client with a custom logger
func NewClientWithLogger(transport Transport, header *AuthenticationHeader, logger *zap.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		transport: transport,
		header:    header,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetErrorLogger attaches a sink for failures swallowed by public operations.
func (c *Client) SetErrorLogger(l ErrorLogger) {
	c.errLogger = l
}

// send signs and sends one request, then strips the response envelope.
func (c *Client) send(ctx context.Context, op string, payload Fields) (map[string]any, error) {
	header := c.header.Stamp(c.now())

	c.logger.Debug("Sending request",
		zap.String("operation", op),
		zap.String("request_timestamp", header.Timestamp()))

	resp, err := c.transport.Send(ctx, op, payload, header.WirePayload())
	if err != nil {
		return nil, classify(op, err)
	}

	result, err := unwrap(op, resp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Request completed", zap.String("operation", op))
	return result, nil
}

// report logs a failure that a public operation is about to swallow.
func (c *Client) report(err error) {
	fields := []zap.Field{zap.Error(err)}
	var e *Error
	if errors.As(err, &e) {
		fields = append(fields, zap.String("operation", e.Op), zap.Stringer("kind", e.Kind))
	}
	c.logger.Error("Marketo request failed", fields...)

	if c.errLogger != nil {
		c.errLogger.Log(err)
	}
}

type zapErrorLogger struct {
	logger *zap.Logger
}

// NewZapErrorLogger returns an ErrorLogger writing to logger at warn level.
func NewZapErrorLogger(logger *zap.Logger) ErrorLogger {
	return zapErrorLogger{logger: logger}
}

func (z zapErrorLogger) Log(err error) {
	z.logger.Warn("Marketo operation degraded", zap.Error(err), zap.Stringer("kind", KindOf(err)))
}
