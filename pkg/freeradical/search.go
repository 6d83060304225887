package freeradical

import (
	"context"
	"strings"
)

type SearchOptions struct {
	Query string
	// Resources restricts results to these resource types ("pages",
	// "modules", "media"). Sent comma joined.
	Resources []string
	PaginationOptions
}

// Search issues GET /api/search?q=<query>[&resources=a,b].
func (c *Client) Search(ctx context.Context, q string, resources []string) (*SearchResponse, error) {
	return c.SearchWithOptions(ctx, SearchOptions{Query: q, Resources: resources})
}

func (c *Client) SearchWithOptions(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	q := query{}.add("q", opts.Query)
	if len(opts.Resources) > 0 {
		q = q.add("resources", strings.Join(opts.Resources, ","))
	}
	q = opts.PaginationOptions.apply(q)
	body, err := c.get(ctx, "/api/search", q, nil)
	if err != nil {
		return nil, err
	}
	resp, err := decodeOne[SearchResponse](body)
	if err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []SearchResult{}
	}
	return resp, nil
}
