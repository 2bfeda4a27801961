package marketo

// keyType values understood by the service.
const (
	keyTypeIDNum = "IDNUM"
	keyTypeEmail = "EMAIL"
)

// LeadKey selects one or more leads. It is implemented only by ByID,
// ByEmail and ByEmails.
type LeadKey interface {
	// WirePayload returns the key in wire form.
	WirePayload() Fields
	leadKey()
}

// ByID addresses a lead by its Marketo id.
type ByID string

// ByEmail addresses leads by email address.
type ByEmail string

// ByEmails addresses a batch of leads by email address.
type ByEmails []string

func (k ByID) WirePayload() Fields {
	return Fields{
		{Name: "keyType", Value: keyTypeIDNum},
		{Name: "keyValue", Value: string(k)},
	}
}

func (k ByEmail) WirePayload() Fields {
	return Fields{
		{Name: "keyType", Value: keyTypeEmail},
		{Name: "keyValue", Value: string(k)},
	}
}

func (k ByEmails) WirePayload() Fields {
	values := []string(k)
	if values == nil {
		values = []string{}
	}
	return Fields{
		{Name: "keyType", Value: keyTypeEmail},
		{Name: "keyValues", Value: Fields{{Name: "stringItem", Value: values}}},
	}
}

func (ByID) leadKey()     {}
func (ByEmail) leadKey()  {}
func (ByEmails) leadKey() {}

// EmailsOf builds a ByEmails key from untyped input such as decoded JSON.
// Anything other than a list of strings yields an empty key.
func EmailsOf(v any) ByEmails {
	switch list := v.(type) {
	case []string:
		return ByEmails(list)
	case ByEmails:
		return list
	case []any:
		emails := make(ByEmails, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				emails = append(emails, s)
			}
		}
		return emails
	default:
		return ByEmails{}
	}
}
