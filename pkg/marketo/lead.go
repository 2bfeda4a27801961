package marketo

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LeadRecord is a lead identity plus its attributes. An empty Email or ID
// means the field is absent.
type LeadRecord struct {
	Email string
	ID    string

	attributes AttributeBag
}

// NewLeadRecord creates a record addressed by email.
func NewLeadRecord(email string) *LeadRecord {
	return &LeadRecord{Email: email}
}

// NewLeadRecordWithID creates a record addressed by Marketo id.
func NewLeadRecordWithID(id string) *LeadRecord {
	return &LeadRecord{ID: id}
}

// Set sets an attribute, inferring its type from value.
func (r *LeadRecord) Set(name string, value any) {
	r.attributes.Set(name, value)
}

// SetTyped sets an attribute with an explicit type tag.
func (r *LeadRecord) SetTyped(name, value string, t AttributeType) {
	r.attributes.SetTyped(name, value, t)
}

// Attributes returns the record's attribute bag.
func (r *LeadRecord) Attributes() *AttributeBag {
	return &r.attributes
}

// Attribute returns the raw value of name.
func (r *LeadRecord) Attribute(name string) (string, bool) {
	a, ok := r.attributes.Get(name)
	return a.Value, ok
}

// String returns the value of name, or "" when unset.
func (r *LeadRecord) String(name string) string {
	v, _ := r.Attribute(name)
	return v
}

// Int parses the value of name as an integer.
func (r *LeadRecord) Int(name string) (int64, error) {
	v, ok := r.Attribute(name)
	if !ok {
		return 0, fmt.Errorf("attribute %q not set", name)
	}
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}

// Bool parses the value of name as a boolean.
func (r *LeadRecord) Bool(name string) (bool, error) {
	v, ok := r.Attribute(name)
	if !ok {
		return false, fmt.Errorf("attribute %q not set", name)
	}
	return strconv.ParseBool(strings.TrimSpace(v))
}

// Time parses the value of name as a date or timestamp.
func (r *LeadRecord) Time(name string) (time.Time, error) {
	v, ok := r.Attribute(name)
	if !ok {
		return time.Time{}, fmt.Errorf("attribute %q not set", name)
	}
	return parseTime(v)
}

// parseTime handles the date formats the API returns. Timestamps may come
// with or without a zone and with or without fractional seconds.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, nil
		}
	}

	// No zone; drop milliseconds if present
	if idx := strings.Index(s, "."); idx > 0 {
		if parsed, err := time.Parse("2006-01-02T15:04:05", s[:idx]); err == nil {
			return parsed, nil
		}
	}
	if parsed, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return parsed, nil
	}
	if parsed, err := time.Parse(time.DateOnly, s); err == nil {
		return parsed, nil
	}

	return time.Time{}, fmt.Errorf("unable to parse time string: %s", s)
}

// WirePayload returns the record in wire form: identity fields present,
// followed by the attribute list.
func (r *LeadRecord) WirePayload() Fields {
	var f Fields
	if r.ID != "" {
		f = append(f, Field{Name: "Id", Value: r.ID})
	}
	if r.Email != "" {
		f = append(f, Field{Name: "Email", Value: r.Email})
	}
	return append(f, Field{
		Name:  "leadAttributeList",
		Value: Fields{{Name: "attribute", Value: r.attributes.wirePayload()}},
	})
}

// idWirePayload returns the record addressed by id. The service also
// expects the id repeated as an Id attribute.
func (r *LeadRecord) idWirePayload() (Fields, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("lead record id not set: %w", ErrInvalidState)
	}

	attrs := r.attributes.wirePayload()
	if _, ok := r.attributes.Get("Id"); !ok {
		attrs = append(attrs, Fields{
			{Name: "attrName", Value: "Id"},
			{Name: "attrType", Value: string(TypeString)},
			{Name: "attrValue", Value: r.ID},
		})
	}

	return Fields{
		{Name: "Id", Value: r.ID},
		{Name: "leadAttributeList", Value: Fields{{Name: "attribute", Value: attrs}}},
	}, nil
}

// LeadRecordFromWire parses one record from a response.
func LeadRecordFromWire(raw any) (*LeadRecord, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("lead record: expected object, got %T", raw)
	}

	r := &LeadRecord{
		ID:    stringOf(m["Id"]),
		Email: stringOf(m["Email"]),
	}

	list, ok := asMap(m["leadAttributeList"])
	if !ok {
		return r, nil
	}
	for i, item := range asList(list["attribute"]) {
		attr, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("lead record %s: attribute %d: expected object, got %T", r.ID, i, item)
		}
		r.attributes.SetTyped(
			stringOf(attr["attrName"]),
			stringOf(attr["attrValue"]),
			ParseAttributeType(stringOf(attr["attrType"])),
		)
	}
	return r, nil
}

// LeadRecordsFromWire parses a record list. A single record may arrive as a
// bare object instead of a one-element list.
func LeadRecordsFromWire(raw any) ([]*LeadRecord, error) {
	items := asList(raw)
	records := make([]*LeadRecord, 0, len(items))
	for _, item := range items {
		r, err := LeadRecordFromWire(item)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
