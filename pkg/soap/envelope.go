// Package soap implements the SOAP 1.1 transport used by the Marketo client.
//
// Requests are built from ordered marketo.Fields payloads so element order
// follows the service schema. Responses are decoded generically into nested
// maps: repeated elements become lists, leaves become strings and elements
// marked xsi:nil become nil.
package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/natserract/mkto/pkg/marketo"
)

const (
	// NsSoap is the SOAP 1.1 envelope namespace.
	NsSoap = "http://schemas.xmlsoap.org/soap/envelope/"

	// NsMarketo is the default service namespace.
	NsMarketo = "http://www.marketo.com/mktows/"

	// NsXsi is the XML Schema Instance namespace.
	NsXsi = "http://www.w3.org/2001/XMLSchema-instance"

	servicePrefix = "ns1"
)

// Envelope is an outgoing SOAP 1.1 envelope.
type Envelope struct {
	XMLName xml.Name `xml:"SOAP-ENV:Envelope"`

	NsSoap    string `xml:"xmlns:SOAP-ENV,attr"`
	NsService string `xml:"xmlns:ns1,attr"`

	Header *Header `xml:"SOAP-ENV:Header"`
	Body   *Body   `xml:"SOAP-ENV:Body"`
}

// Header holds pre-encoded header blocks.
type Header struct {
	Content []byte `xml:",innerxml"`
}

// Body holds the pre-encoded request element.
type Body struct {
	Content []byte `xml:",innerxml"`
}

// NewEnvelope creates an empty envelope bound to the service namespace.
func NewEnvelope(namespace string) *Envelope {
	if namespace == "" {
		namespace = NsMarketo
	}
	return &Envelope{
		NsSoap:    NsSoap,
		NsService: namespace,
		Header:    &Header{},
		Body:      &Body{},
	}
}

// WithHeader encodes header blocks. Top-level names are namespace
// qualified; nested elements are not.
func (e *Envelope) WithHeader(header marketo.Fields) (*Envelope, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for _, f := range header {
		if err := encodeField(enc, servicePrefix+":"+f.Name, f.Value); err != nil {
			return nil, fmt.Errorf("encode header %s: %w", f.Name, err)
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	e.Header.Content = buf.Bytes()
	return e, nil
}

// WithRequest encodes payload as the request element of operation,
// e.g. getLead -> ns1:paramsGetLead.
func (e *Envelope) WithRequest(operation string, payload marketo.Fields) (*Envelope, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := encodeField(enc, servicePrefix+":"+RequestElement(operation), payload); err != nil {
		return nil, fmt.Errorf("encode %s request: %w", operation, err)
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	e.Body.Content = buf.Bytes()
	return e, nil
}

// Marshal serializes the envelope to XML, including the XML declaration.
func (e *Envelope) Marshal() ([]byte, error) {
	out, err := xml.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// RequestElement returns the body element name for operation.
func RequestElement(operation string) string {
	return "params" + upperFirst(operation)
}

// SOAPAction returns the SOAPAction header value for operation.
func SOAPAction(namespace, operation string) string {
	if namespace == "" {
		namespace = NsMarketo
	}
	return strings.TrimSuffix(namespace, "/") + "/" + operation
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func encodeField(enc *xml.Encoder, name string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []marketo.Fields:
		for _, item := range v {
			if err := encodeField(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, item := range v {
			if err := encodeField(enc, name, item); err != nil {
				return err
			}
		}
		return nil
	}

	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	switch v := value.(type) {
	case marketo.Fields:
		for _, f := range v {
			if err := encodeField(enc, f.Name, f.Value); err != nil {
				return err
			}
		}
	case string:
		if err := enc.EncodeToken(xml.CharData(v)); err != nil {
			return err
		}
	case bool:
		if err := enc.EncodeToken(xml.CharData(strconv.FormatBool(v))); err != nil {
			return err
		}
	case int:
		if err := enc.EncodeToken(xml.CharData(strconv.Itoa(v))); err != nil {
			return err
		}
	case int64:
		if err := enc.EncodeToken(xml.CharData(strconv.FormatInt(v, 10))); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported value type %T for element %s", value, name)
	}

	return enc.EncodeToken(start.End())
}
