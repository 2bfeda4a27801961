package config

import (
	"go.uber.org/zap"

	"github.com/natserract/mkto/pkg/marketo"
	"github.com/natserract/mkto/pkg/soap"
)

// NewTransport builds the SOAP transport described by c.
func (c *Config) NewTransport(logger *zap.Logger) (*soap.Transport, error) {
	endpoint, err := c.SOAPEndpoint()
	if err != nil {
		return nil, err
	}
	return soap.NewTransport(endpoint,
		soap.WithNamespace(c.Namespace),
		soap.WithTimeout(c.Timeout),
		soap.WithMaxTries(c.MaxTries),
		soap.WithLogger(logger),
	), nil
}

// NewClient builds a Marketo client whose swallowed failures are logged
// through logger.
func (c *Config) NewClient(logger *zap.Logger) (*marketo.Client, error) {
	transport, err := c.NewTransport(logger)
	if err != nil {
		return nil, err
	}
	return c.NewClientWithTransport(transport, logger), nil
}

// NewClientWithTransport builds a Marketo client on an existing transport.
func (c *Config) NewClientWithTransport(transport marketo.Transport, logger *zap.Logger) *marketo.Client {
	client := marketo.NewClientWithLogger(transport, c.AuthenticationHeader(), logger)
	client.SetErrorLogger(marketo.NewZapErrorLogger(logger))
	return client
}

// AuthenticationHeader returns the signing header for c's credentials.
func (c *Config) AuthenticationHeader() *marketo.AuthenticationHeader {
	return marketo.NewAuthenticationHeader(c.AccessKey, c.SecretKey)
}
