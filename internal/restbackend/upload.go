package restbackend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

// Upload proxies a binary asset to the platform as a multipart form.
func (c *Client) Upload(ctx context.Context, req core.UploadRequest) (schema.Asset, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("purpose", string(req.Purpose)); err != nil {
		return schema.Asset{}, err
	}
	part, err := form.CreateFormFile("file", req.Filename)
	if err != nil {
		return schema.Asset{}, err
	}
	if _, err := part.Write(req.Data); err != nil {
		return schema.Asset{}, err
	}
	if err := form.Close(); err != nil {
		return schema.Asset{}, err
	}

	path := fmt.Sprintf("/v1/workspaces/%s/uploads", req.WorkspaceID)
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, &body)
	if err != nil {
		return schema.Asset{}, err
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Warn("backend upload failed", "filename", req.Filename, "err", err)
		return schema.Asset{}, fmt.Errorf("%w: %v", schema.ErrTransport, err)
	}
	defer resp.Body.Close()
	if err := c.statusError(resp, schema.ErrWorkspaceNotFound); err != nil {
		return schema.Asset{}, err
	}
	var asset schema.Asset
	if err := decodeJSONBody(resp, &asset); err != nil {
		return schema.Asset{}, err
	}
	return asset, nil
}
