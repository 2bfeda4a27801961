package marketo

import (
	"context"
)

// AddToList adds the lead with email to a static list. It returns the raw
// acknowledgment, or nil on any failure.
func (c *Client) AddToList(ctx context.Context, list ListKey, email string) map[string]any {
	return c.listOperation(ctx, list, ListAdd, email)
}

// RemoveFromList removes the lead with email from a static list.
func (c *Client) RemoveFromList(ctx context.Context, list ListKey, email string) map[string]any {
	return c.listOperation(ctx, list, ListRemove, email)
}

// IsMemberOfList queries membership of the lead with email in a static list.
func (c *Client) IsMemberOfList(ctx context.Context, list ListKey, email string) map[string]any {
	return c.listOperation(ctx, list, ListIsMember, email)
}

// ListObjectTypes lists the object types the service exposes.
func (c *Client) ListObjectTypes(ctx context.Context) map[string]any {
	result, err := c.send(ctx, opListMObjects, Fields{})
	if err != nil {
		c.report(err)
		return nil
	}
	return result
}

func (c *Client) listOperation(ctx context.Context, list ListKey, kind ListOperationKind, email string) map[string]any {
	result, err := c.doListOperation(ctx, list, kind, email)
	if err != nil {
		c.report(err)
		return nil
	}
	return result
}

func (c *Client) doListOperation(ctx context.Context, list ListKey, kind ListOperationKind, email string) (map[string]any, error) {
	return c.send(ctx, opListOperation, Fields{
		{Name: "listOperation", Value: string(kind)},
		{Name: "listKey", Value: list.WirePayload()},
		{Name: "listMemberList", Value: Fields{
			{Name: "leadKey", Value: []Fields{ByEmail(email).WirePayload()}},
		}},
		{Name: "strict", Value: false},
	})
}
