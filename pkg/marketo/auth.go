package marketo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"time"
)

// TimestampLayout is the request timestamp format. Millisecond precision
// keeps signatures of back-to-back calls distinct.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// Signer derives a request signature from the credentials and the request
// timestamp.
type Signer func(accessKey, secretKey, timestamp string) string

// HMACSHA1Hex signs timestamp+accessKey with HMAC-SHA1 keyed by secretKey
// and returns the lowercase hex digest.
func HMACSHA1Hex(accessKey, secretKey, timestamp string) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	_, _ = mac.Write([]byte(timestamp + accessKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthenticationHeader holds the API credentials. It is immutable; each call
// takes its own RequestHeader from Stamp.
type AuthenticationHeader struct {
	accessKey string
	secretKey string
	signer    Signer
}

// HeaderOption configures an AuthenticationHeader.
type HeaderOption func(*AuthenticationHeader)

// WithSigner replaces the default HMAC-SHA1 signer.
func WithSigner(s Signer) HeaderOption {
	return func(h *AuthenticationHeader) {
		if s != nil {
			h.signer = s
		}
	}
}

// NewAuthenticationHeader creates a header for the given access key (the
// Marketo user id) and secret key (the encryption key).
func NewAuthenticationHeader(accessKey, secretKey string, opts ...HeaderOption) *AuthenticationHeader {
	h := &AuthenticationHeader{
		accessKey: accessKey,
		secretKey: secretKey,
		signer:    HMACSHA1Hex,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AccessKey returns the access key.
func (h *AuthenticationHeader) AccessKey() string {
	return h.accessKey
}

// Stamp returns the header for a call made at now.
func (h *AuthenticationHeader) Stamp(now time.Time) RequestHeader {
	return RequestHeader{
		accessKey: h.accessKey,
		secretKey: h.secretKey,
		signer:    h.signer,
		timestamp: now.Format(TimestampLayout),
	}
}

// RequestHeader is the authentication header of a single call.
type RequestHeader struct {
	accessKey string
	secretKey string
	signer    Signer
	timestamp string
}

// Timestamp returns the formatted request timestamp.
func (r RequestHeader) Timestamp() string {
	return r.timestamp
}

// Signature computes the request signature.
func (r RequestHeader) Signature() string {
	return r.signer(r.accessKey, r.secretKey, r.timestamp)
}

// WirePayload returns the SOAP header content. The signature is computed on
// every call and never stored.
func (r RequestHeader) WirePayload() Fields {
	return Fields{
		{Name: "AuthenticationHeader", Value: Fields{
			{Name: "mktowsUserId", Value: r.accessKey},
			{Name: "requestSignature", Value: r.Signature()},
			{Name: "requestTimestamp", Value: r.timestamp},
		}},
	}
}
