package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrEmptyBody is returned when a response envelope has no body element.
var ErrEmptyBody = errors.New("soap: response body is empty")

// DecodeError reports a response that arrived but could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MalformedResponse marks the error as a bad payload rather than a failed
// round trip.
func (e *DecodeError) MalformedResponse() bool {
	return true
}

// DecodeResponse extracts the first element of the envelope body and
// decodes it into a map keyed by its local name. A fault in the body is
// returned as a *Fault error.
func DecodeResponse(data []byte) (map[string]any, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	inBody := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Err: ErrEmptyBody}
		}
		if err != nil {
			return nil, &DecodeError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inBody {
				if t.Name.Local == "Body" {
					inBody = true
				}
				continue
			}

			value, err := decodeElement(d, t)
			if err != nil {
				return nil, &DecodeError{Err: fmt.Errorf("%s: %w", t.Name.Local, err)}
			}
			if t.Name.Local == "Fault" {
				return nil, faultFromMap(value)
			}
			return map[string]any{t.Name.Local: value}, nil

		case xml.EndElement:
			if inBody && t.Name.Local == "Body" {
				return nil, &DecodeError{Err: ErrEmptyBody}
			}
		}
	}
}

// decodeElement reads the content of start up to its end tag. Elements with
// children decode to map[string]any, repeated children to []any and leaves
// to their text.
func decodeElement(d *xml.Decoder, start xml.StartElement) (any, error) {
	var (
		children map[string]any
		text     bytes.Buffer
	)

	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			value, err := decodeElement(d, t)
			if err != nil {
				return nil, err
			}
			if children == nil {
				children = make(map[string]any)
			}
			addChild(children, t.Name.Local, value)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if isNil(start) {
				return nil, nil
			}
			if children != nil {
				return children, nil
			}
			return text.String(), nil
		}
	}
}

func addChild(m map[string]any, name string, value any) {
	existing, ok := m[name]
	if !ok {
		m[name] = value
		return
	}
	if list, ok := existing.([]any); ok {
		m[name] = append(list, value)
		return
	}
	m[name] = []any{existing, value}
}

func isNil(start xml.StartElement) bool {
	for _, attr := range start.Attr {
		if attr.Name.Local == "nil" && (attr.Name.Space == NsXsi || attr.Name.Space == "xsi") {
			return attr.Value == "true" || attr.Value == "1"
		}
	}
	return false
}
