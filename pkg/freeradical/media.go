package freeradical

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
)

// UploadMediaInput is one file. ContentType defaults from the filename
// extension, then to application/octet-stream.
type UploadMediaInput struct {
	Filename    string
	Content     io.Reader
	ContentType string
	AltText     string
}

func (c *Client) ListMedia(ctx context.Context, opts *PaginationOptions) ([]Media, error) {
	body, err := c.get(ctx, "/api/media", opts.apply(nil), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Media](body, "media")
}

func (c *Client) GetMedia(ctx context.Context, uuid string) (*Media, error) {
	body, err := c.get(ctx, "/api/media/{id}", nil, idParam(uuid))
	if err != nil {
		return nil, err
	}
	return decodeOne[Media](body)
}

// UploadMedia sends a multipart/form-data request with a single "file" part
// and, when AltText is set, a single "alt_text" field.
func (c *Client) UploadMedia(ctx context.Context, input UploadMediaInput) (*Media, error) {
	if input.Content == nil {
		return nil, errors.New("freeradical: upload content is required")
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(input.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req := c.request(ctx).SetMultipartField("file", input.Filename, contentType, input.Content)
	if input.AltText != "" {
		req.SetFormData(map[string]string{"alt_text": input.AltText})
	}
	body, err := c.send(req, http.MethodPost, "/api/media/upload")
	if err != nil {
		return nil, err
	}
	return decodeOne[Media](body)
}

func (c *Client) DeleteMedia(ctx context.Context, uuid string) error {
	return c.remove(ctx, "/api/media/{id}", idParam(uuid))
}
