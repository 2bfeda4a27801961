package services

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/natserract/mkto/pkg/marketo"
)

// LeadInput is one entry of a leads file.
type LeadInput struct {
	Email      string         `json:"email"`
	ID         string         `json:"id,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Record converts the input to a lead record. Attributes are added in name
// order so the encoded request is stable.
func (in LeadInput) Record() *marketo.LeadRecord {
	rec := &marketo.LeadRecord{Email: in.Email, ID: in.ID}

	names := make([]string, 0, len(in.Attributes))
	for name := range in.Attributes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		rec.Set(name, in.Attributes[name])
	}
	return rec
}

// ReadLeads decodes a JSON array of leads. Batch upserts match on email,
// so every lead needs one. Numbers are kept as json.Number so integral
// values are sent as integers.
func ReadLeads(r io.Reader) ([]LeadInput, error) {
	var leads []LeadInput
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&leads); err != nil {
		return nil, fmt.Errorf("failed to decode leads: %w", err)
	}
	for i, l := range leads {
		if l.Email == "" {
			return nil, fmt.Errorf("lead %d: email is required", i)
		}
	}
	return leads, nil
}
