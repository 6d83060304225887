package freeradical

import (
	"context"
	"net/http"
	"strconv"
)

func idParam(id string) map[string]string {
	return map[string]string{"id": id}
}

func intIDParam(id int64) map[string]string {
	return idParam(strconv.FormatInt(id, 10))
}

// ListPages returns pages in server order. A nil opts sends no query string.
func (c *Client) ListPages(ctx context.Context, opts *PaginationOptions) ([]Page, error) {
	body, err := c.get(ctx, "/api/pages", opts.apply(nil), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Page](body, "pages")
}

func (c *Client) GetPage(ctx context.Context, uuid string) (*Page, error) {
	body, err := c.get(ctx, "/api/pages/{id}", nil, idParam(uuid))
	if err != nil {
		return nil, err
	}
	return decodeOne[Page](body)
}

func (c *Client) CreatePage(ctx context.Context, input CreatePageInput) (*Page, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/pages", nil, input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Page](body)
}

func (c *Client) UpdatePage(ctx context.Context, uuid string, input UpdatePageInput) (*Page, error) {
	body, err := c.write(ctx, http.MethodPut, "/api/pages/{id}", idParam(uuid), input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Page](body)
}

func (c *Client) DeletePage(ctx context.Context, uuid string) error {
	return c.remove(ctx, "/api/pages/{id}", idParam(uuid))
}
