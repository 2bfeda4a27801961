package soap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	httpclient "github.com/natserract/mkto/pkg/http"
	"github.com/natserract/mkto/pkg/marketo"
)

const contentType = "text/xml;charset=UTF-8"

// Transport posts SOAP envelopes to a single service endpoint. It is safe
// for concurrent use.
type Transport struct {
	endpoint   string
	namespace  string
	httpClient *httpclient.Client
	logger     *zap.Logger
	timeout    time.Duration
	maxTries   uint
}

// Option configures a Transport.
type Option func(*Transport)

// WithNamespace overrides the service namespace.
func WithNamespace(namespace string) Option {
	return func(t *Transport) {
		t.namespace = namespace
	}
}

// WithHTTPClient sets the HTTP client used to post envelopes.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(t *Transport) {
		t.httpClient = c
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		t.timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxTries sets how many times a request is attempted on network
// errors and 5xx responses that are not faults. Faults are never retried.
func WithMaxTries(n uint) Option {
	return func(t *Transport) {
		t.maxTries = n
	}
}

// NewTransport creates a transport for endpoint.
func NewTransport(endpoint string, opts ...Option) *Transport {
	t := &Transport{
		endpoint:  endpoint,
		namespace: NsMarketo,
		logger:    zap.NewNop(),
		maxTries:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.httpClient == nil {
		t.httpClient = httpclient.NewClientWithTimeout(t.timeout, t.logger)
	}
	return t
}

var _ marketo.Transport = (*Transport)(nil)

// Send encodes operation with payload and header, posts it and decodes the
// response body.
func (t *Transport) Send(ctx context.Context, operation string, payload, header marketo.Fields) (map[string]any, error) {
	requestID := uuid.New().String()
	logger := t.logger.With(
		zap.String("operation", operation),
		zap.String("request_id", requestID),
	)

	env, err := NewEnvelope(t.namespace).WithHeader(header)
	if err != nil {
		return nil, err
	}
	if _, err := env.WithRequest(operation, payload); err != nil {
		return nil, err
	}
	body, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	logger.Debug("Sending SOAP request", zap.Int("bytes", len(body)))

	resp, err := t.httpClient.Do(httpclient.RequestOptions{
		Method: http.MethodPost,
		URL:    t.endpoint,
		Headers: map[string]string{
			"Content-Type": contentType,
			"Accept":       "text/xml",
			"SOAPAction":   SOAPAction(t.namespace, operation),
		},
		Body:      body,
		Context:   ctx,
		MaxTries:  t.maxTries,
		Retryable: retryable,
	})
	if err != nil {
		// Faults usually arrive with a 500 status
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) {
			if fault := ParseFault(statusErr.Body); fault != nil {
				logger.Warn("SOAP fault",
					zap.String("fault_code", fault.Code),
					zap.String("service_code", fault.ServiceCode()),
					zap.String("message", fault.Message))
				return nil, fault
			}
		}
		return nil, fmt.Errorf("post %s: %w", operation, err)
	}

	decoded, err := DecodeResponse(resp.Body)
	if err != nil {
		if IsFault(err) {
			logger.Warn("SOAP fault", zap.Error(err))
		}
		return nil, err
	}

	logger.Debug("SOAP request completed", zap.Int("status_code", resp.StatusCode))
	return decoded, nil
}

func retryable(resp *httpclient.Response) bool {
	return resp.StatusCode >= 500 && ParseFault(resp.Body) == nil
}
