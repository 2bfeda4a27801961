package marketo

import (
	"context"
)

// MarketoClient defines the interface for Marketo SOAP API operations
type MarketoClient interface {
	// GetLeadByID retrieves a lead by Marketo id
	GetLeadByID(ctx context.Context, id string) *LeadRecord

	// GetLeadByEmail retrieves a lead by email
	GetLeadByEmail(ctx context.Context, email string) *LeadRecord

	// GetLeadsByEmails retrieves the leads for a batch of emails
	GetLeadsByEmails(ctx context.Context, emails []string) []*LeadRecord

	// SyncLead upserts a lead by email with the standard contact attributes
	SyncLead(ctx context.Context, email, firstName, lastName, company, mobilePhone string) *LeadRecord

	// SyncLeadRecord upserts a lead by email
	SyncLeadRecord(ctx context.Context, rec *LeadRecord) *LeadRecord

	// SyncLeadRecordByID upserts a lead by Marketo id
	SyncLeadRecordByID(ctx context.Context, rec *LeadRecord) (*LeadRecord, error)

	// SyncLeadRecords upserts a batch of leads by email
	SyncLeadRecords(ctx context.Context, records []*LeadRecord) []SyncStatus

	AddToList(ctx context.Context, list ListKey, email string) map[string]any
	RemoveFromList(ctx context.Context, list ListKey, email string) map[string]any
	IsMemberOfList(ctx context.Context, list ListKey, email string) map[string]any

	// ListObjectTypes lists the object types the service exposes
	ListObjectTypes(ctx context.Context) map[string]any
}

var _ MarketoClient = (*Client)(nil)
