package freeradical

import (
	"context"
	"encoding/json"
	"net/http"
)

func (c *Client) CreateRelationship(ctx context.Context, input CreateRelationshipInput) (*Relationship, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/relationships", nil, input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Relationship](body)
}

// GetRelated lists the resources related to (resourceType, resourceID). Their
// shape is server defined, so each one is returned undecoded.
func (c *Client) GetRelated(ctx context.Context, resourceType, resourceID string) ([]json.RawMessage, error) {
	body, err := c.get(ctx, "/api/relationships/{type}/{id}", nil, map[string]string{
		"type": resourceType,
		"id":   resourceID,
	})
	if err != nil {
		return nil, err
	}
	return decodeList[json.RawMessage](body, "related")
}

func (c *Client) DeleteRelationship(ctx context.Context, id int64) error {
	return c.remove(ctx, "/api/relationships/{id}", intIDParam(id))
}
