package freeradical

import (
	"context"
	"net/http"
)

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	body, err := c.get(ctx, "/api/categories", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Category](body, "categories")
}

func (c *Client) CreateCategory(ctx context.Context, input CreateCategoryInput) (*Category, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/categories", nil, input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Category](body)
}

func (c *Client) UpdateCategory(ctx context.Context, uuid string, input UpdateCategoryInput) (*Category, error) {
	body, err := c.write(ctx, http.MethodPut, "/api/categories/{id}", idParam(uuid), input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Category](body)
}

func (c *Client) DeleteCategory(ctx context.Context, uuid string) error {
	return c.remove(ctx, "/api/categories/{id}", idParam(uuid))
}
