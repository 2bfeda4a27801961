package marketo

import (
	"context"
)

// Field is a single named element of a request payload.
type Field struct {
	Name  string
	Value any
}

// Fields is an ordered request payload. Element order is kept as written so
// the encoded request follows the order the service schema declares.
//
// Values may be string, bool, integer types, Fields, []Fields, []string or nil.
// Nil values are skipped by encoders.
type Fields []Field

// Get returns the value of the first field called name.
func (f Fields) Get(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// Transport carries one operation to the remote service and returns its
// decoded response body. The response nests the result under a success
// element keyed by operation name, e.g. {"successGetLead": {"result": ...}}.
type Transport interface {
	Send(ctx context.Context, operation string, payload Fields, header Fields) (map[string]any, error)
}

// ErrorLogger receives failures that public Client operations swallow.
type ErrorLogger interface {
	Log(err error)
}

// SyncStatus is the per-record outcome of a batch upsert.
type SyncStatus struct {
	LeadID string `json:"leadId"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Succeeded reports whether the remote created or updated the record.
func (s SyncStatus) Succeeded() bool {
	return s.Status == "CREATED" || s.Status == "UPDATED"
}

// ListKeyType selects how a static list is addressed.
type ListKeyType string

const (
	ListKeyName            ListKeyType = "MKTOLISTNAME"
	ListKeySalesUserID     ListKeyType = "MKTOSALESUSERID"
	ListKeySFDCLeadOwnerID ListKeyType = "SFDCLEADOWNERID"
)

// ListKey addresses a static list.
type ListKey struct {
	Type  ListKeyType
	Value string
}

// ListByName addresses a static list by its Marketo name.
func ListByName(name string) ListKey {
	return ListKey{Type: ListKeyName, Value: name}
}

// WirePayload returns the list key in wire form.
func (k ListKey) WirePayload() Fields {
	keyType := k.Type
	if keyType == "" {
		keyType = ListKeyName
	}
	return Fields{
		{Name: "keyType", Value: string(keyType)},
		{Name: "keyValue", Value: k.Value},
	}
}

// ListOperationKind is the action performed by a list operation.
type ListOperationKind string

const (
	ListAdd      ListOperationKind = "ADDTOLIST"
	ListRemove   ListOperationKind = "REMOVEFROMLIST"
	ListIsMember ListOperationKind = "ISMEMBEROFLIST"
)

// Wire operation names.
const (
	opGetLead           = "getLead"
	opGetMultipleLeads  = "getMultipleLeads"
	opSyncLead          = "syncLead"
	opSyncMultipleLeads = "syncMultipleLeads"
	opListOperation     = "listOperation"
	opListMObjects      = "listMObjects"
)
