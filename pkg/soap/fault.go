package soap

import (
	"errors"
	"strings"
)

// Fault represents a SOAP 1.1 fault returned by the service.
type Fault struct {
	// Code is the fault code, e.g. "SOAP-ENV:Client".
	Code string

	// Message is the human-readable fault string.
	Message string

	// Detail is the decoded detail element, if any.
	Detail any
}

// Error implements the error interface.
func (f *Fault) Error() string {
	var parts []string
	if f.Code != "" {
		parts = append(parts, f.Code)
	}
	if f.Message != "" {
		parts = append(parts, f.Message)
	}
	if code := f.ServiceCode(); code != "" {
		parts = append(parts, "code="+code)
	}
	return "soap fault: " + strings.Join(parts, ": ")
}

// FaultCode returns the SOAP fault code.
func (f *Fault) FaultCode() string {
	return f.Code
}

// ServiceCode returns the service error code carried in the fault detail,
// e.g. 20014 for an authentication failure. Empty when absent.
func (f *Fault) ServiceCode() string {
	detail, ok := f.Detail.(map[string]any)
	if !ok {
		return ""
	}
	for _, v := range detail {
		exc, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if code, ok := exc["code"].(string); ok {
			return strings.TrimSpace(code)
		}
	}
	return ""
}

// IsFault returns true if the error is a SOAP Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// ParseFault parses a response and returns its Fault if present.
// Returns nil if the response does not contain a fault.
func ParseFault(data []byte) *Fault {
	// Quick check if this might be a fault
	if !strings.Contains(string(data), "Fault") {
		return nil
	}
	_, err := DecodeResponse(data)
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return nil
}

func faultFromMap(v any) *Fault {
	m, _ := v.(map[string]any)
	f := &Fault{Detail: m["detail"]}
	f.Code, _ = m["faultcode"].(string)
	f.Message, _ = m["faultstring"].(string)
	f.Code = strings.TrimSpace(f.Code)
	f.Message = strings.TrimSpace(f.Message)
	return f
}
