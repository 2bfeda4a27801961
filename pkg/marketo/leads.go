package marketo

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// GetLeadByID retrieves a lead by Marketo id. It returns nil on any failure.
func (c *Client) GetLeadByID(ctx context.Context, id string) *LeadRecord {
	return c.GetLead(ctx, ByID(id))
}

// GetLeadByEmail retrieves a lead by email. It returns nil on any failure.
func (c *Client) GetLeadByEmail(ctx context.Context, email string) *LeadRecord {
	return c.GetLead(ctx, ByEmail(email))
}

// GetLead retrieves the first lead matching key. It returns nil on any failure.
func (c *Client) GetLead(ctx context.Context, key LeadKey) *LeadRecord {
	rec, err := c.getLead(ctx, key)
	if err != nil {
		c.report(err)
		return nil
	}
	return rec
}

// GetLeadsByEmails retrieves the leads for a batch of emails. A nil slice
// is sent as an empty key. It returns nil on any failure.
func (c *Client) GetLeadsByEmails(ctx context.Context, emails []string) []*LeadRecord {
	return c.GetMultipleLeads(ctx, EmailsOf(emails))
}

// GetMultipleLeads retrieves all leads matching key. It returns nil on any
// failure and an empty slice when nothing matched.
func (c *Client) GetMultipleLeads(ctx context.Context, key LeadKey) []*LeadRecord {
	recs, err := c.getMultipleLeads(ctx, key)
	if err != nil {
		c.report(err)
		return nil
	}
	return recs
}

// SyncLead upserts a lead by email with the standard contact attributes.
func (c *Client) SyncLead(ctx context.Context, email, firstName, lastName, company, mobilePhone string) *LeadRecord {
	rec := NewLeadRecord(email)
	rec.Set("FirstName", firstName)
	rec.Set("LastName", lastName)
	rec.Set("Email", email)
	rec.Set("Company", company)
	rec.Set("MobilePhone", mobilePhone)
	return c.SyncLeadRecord(ctx, rec)
}

// SyncLeadRecord upserts a lead by email with dedup enabled and returns the
// record as stored by the service. It returns nil on any failure.
func (c *Client) SyncLeadRecord(ctx context.Context, rec *LeadRecord) *LeadRecord {
	out, err := c.syncLeadRecord(ctx, rec)
	if err != nil {
		c.report(err)
		return nil
	}
	return out
}

// SyncLeadRecordByID upserts a lead addressed by its Marketo id. A record
// without an id fails with ErrInvalidState before anything is sent; any
// other failure returns (nil, nil).
func (c *Client) SyncLeadRecordByID(ctx context.Context, rec *LeadRecord) (*LeadRecord, error) {
	out, err := c.syncLeadRecordByID(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrInvalidState) {
			return nil, err
		}
		c.report(err)
		return nil, nil
	}
	return out, nil
}

// SyncLeadRecords upserts a batch of leads by email with dedup enabled. The
// statuses follow the order of records. It returns nil on any failure.
func (c *Client) SyncLeadRecords(ctx context.Context, records []*LeadRecord) []SyncStatus {
	statuses, err := c.syncLeadRecords(ctx, records)
	if err != nil {
		c.report(err)
		return nil
	}
	return statuses
}

func (c *Client) getLead(ctx context.Context, key LeadKey) (*LeadRecord, error) {
	result, err := c.send(ctx, opGetLead, Fields{{Name: "leadKey", Value: key.WirePayload()}})
	if err != nil {
		return nil, err
	}

	recs, err := leadRecordList(opGetLead, result)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, malformed(opGetLead, "result has no lead record")
	}
	if len(recs) > 1 {
		c.logger.Debug("Multiple leads matched, using the first",
			zap.Int("count", len(recs)))
	}
	return recs[0], nil
}

func (c *Client) getMultipleLeads(ctx context.Context, key LeadKey) ([]*LeadRecord, error) {
	result, err := c.send(ctx, opGetMultipleLeads, Fields{{Name: "leadKey", Value: key.WirePayload()}})
	if err != nil {
		return nil, err
	}

	recs, err := leadRecordList(opGetMultipleLeads, result)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Successfully retrieved leads", zap.Int("count", len(recs)))
	return recs, nil
}

func (c *Client) syncLeadRecord(ctx context.Context, rec *LeadRecord) (*LeadRecord, error) {
	if rec == nil {
		return nil, &Error{Kind: KindInvalidState, Op: opSyncLead, Err: errNilRecord}
	}
	byEmail := &LeadRecord{Email: rec.Email, attributes: rec.attributes}
	result, err := c.send(ctx, opSyncLead, Fields{
		{Name: "leadRecord", Value: byEmail.WirePayload()},
		{Name: "dedupEnabled", Value: true},
	})
	if err != nil {
		return nil, err
	}
	return syncedLeadRecord(opSyncLead, result)
}

func (c *Client) syncLeadRecordByID(ctx context.Context, rec *LeadRecord) (*LeadRecord, error) {
	if rec == nil {
		return nil, &Error{Kind: KindInvalidState, Op: opSyncLead, Err: errNilRecord}
	}
	payload, err := rec.idWirePayload()
	if err != nil {
		return nil, &Error{Kind: KindInvalidState, Op: opSyncLead, Err: err}
	}

	result, err := c.send(ctx, opSyncLead, Fields{
		{Name: "leadRecord", Value: payload},
		{Name: "returnLead", Value: true},
	})
	if err != nil {
		return nil, err
	}
	return syncedLeadRecord(opSyncLead, result)
}

func (c *Client) syncLeadRecords(ctx context.Context, records []*LeadRecord) ([]SyncStatus, error) {
	list := make([]Fields, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, &Error{Kind: KindInvalidState, Op: opSyncMultipleLeads,
				Err: fmt.Errorf("record %d: %w", i, errNilRecord)}
		}
		byEmail := &LeadRecord{Email: rec.Email, attributes: rec.attributes}
		list = append(list, byEmail.WirePayload())
	}

	result, err := c.send(ctx, opSyncMultipleLeads, Fields{
		{Name: "leadRecordList", Value: Fields{{Name: "leadRecord", Value: list}}},
		{Name: "dedupEnabled", Value: true},
	})
	if err != nil {
		return nil, err
	}

	statusList, ok := asMap(result["syncStatusList"])
	if !ok {
		return nil, malformed(opSyncMultipleLeads, "result has no syncStatusList")
	}

	items := asList(statusList["syncStatus"])
	statuses := make([]SyncStatus, 0, len(items))
	for i, item := range items {
		m, ok := asMap(item)
		if !ok {
			return nil, malformed(opSyncMultipleLeads, "sync status %d: expected object, got %T", i, item)
		}
		statuses = append(statuses, SyncStatus{
			LeadID: stringOf(m["leadId"]),
			Status: stringOf(m["status"]),
			Error:  stringOf(m["error"]),
		})
	}

	if len(statuses) != len(records) {
		c.logger.Warn("Sync status count does not match records sent",
			zap.Int("records", len(records)),
			zap.Int("statuses", len(statuses)))
	}
	return statuses, nil
}

func leadRecordList(op string, result map[string]any) ([]*LeadRecord, error) {
	list, ok := asMap(result["leadRecordList"])
	if !ok {
		return nil, malformed(op, "result has no leadRecordList")
	}
	recs, err := LeadRecordsFromWire(list["leadRecord"])
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	return recs, nil
}

func syncedLeadRecord(op string, result map[string]any) (*LeadRecord, error) {
	raw, ok := result["leadRecord"]
	if !ok {
		return nil, malformed(op, "result has no leadRecord")
	}
	rec, err := LeadRecordFromWire(raw)
	if err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Op: op, Err: err}
	}
	return rec, nil
}
