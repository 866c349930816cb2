package restbackend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

type workspaceDTO struct {
	Title        string   `json:"title"`
	Tabs         []tabDTO `json:"tabs"`
	DocumentHTML string   `json:"document_html"`
}

type tabDTO struct {
	ID   schema.TabID   `json:"id"`
	Kind schema.TabKind `json:"kind"`
}

// FetchWorkspace loads workspace metadata, tab provisioning and the saved
// document body.
func (c *Client) FetchWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) (core.WorkspaceInfo, error) {
	path := fmt.Sprintf("/v1/workspaces/%s", workspaceID)
	var dto workspaceDTO
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &dto, schema.ErrWorkspaceNotFound); err != nil {
		return core.WorkspaceInfo{}, err
	}
	info := core.WorkspaceInfo{
		Title:        dto.Title,
		DocumentHTML: dto.DocumentHTML,
	}
	for _, tab := range dto.Tabs {
		info.Tabs = append(info.Tabs, core.WorkspaceTab{ID: tab.ID, Kind: tab.Kind})
	}
	return info, nil
}

// RenameWorkspace updates the workspace title.
func (c *Client) RenameWorkspace(ctx context.Context, workspaceID schema.WorkspaceID, title string) error {
	path := fmt.Sprintf("/v1/workspaces/%s", workspaceID)
	payload := map[string]string{"title": title}
	return c.doJSON(ctx, http.MethodPatch, path, payload, nil, schema.ErrWorkspaceNotFound)
}

// SaveDocument pushes the rendered document body to the platform.
func (c *Client) SaveDocument(ctx context.Context, workspaceID schema.WorkspaceID, html string) error {
	path := fmt.Sprintf("/v1/workspaces/%s/document", workspaceID)
	payload := map[string]string{"html": html}
	return c.doJSON(ctx, http.MethodPut, path, payload, nil, schema.ErrWorkspaceNotFound)
}
