package restbackend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

type createDiagramDTO struct {
	Type           schema.DiagramType    `json:"type"`
	Config         schema.DiagramConfig  `json:"config"`
	Scene          schema.Scene          `json:"scene"`
	CreationMethod schema.CreationMethod `json:"creation_method"`
}

type updateDiagramDTO struct {
	Scene schema.Scene `json:"scene"`
}

type describeDiagramDTO struct {
	Type   schema.DiagramType   `json:"type"`
	Config schema.DiagramConfig `json:"config"`
}

// CreateDiagram appends a new entry to a tab's diagram history.
func (c *Client) CreateDiagram(ctx context.Context, rec core.DiagramRecord) (schema.Diagram, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/diagrams", rec.WorkspaceID, rec.TabID)
	payload := createDiagramDTO{
		Type:           rec.Type,
		Config:         rec.Config,
		Scene:          rec.Scene,
		CreationMethod: rec.CreationMethod,
	}
	var diagram schema.Diagram
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &diagram, schema.ErrTabNotFound); err != nil {
		return schema.Diagram{}, err
	}
	return diagram, nil
}

// UpdateDiagram revises an existing entry in place.
func (c *Client) UpdateDiagram(ctx context.Context, rev core.DiagramRevision) (schema.Diagram, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/diagrams/%s", rev.WorkspaceID, rev.TabID, rev.DiagramID)
	var diagram schema.Diagram
	if err := c.doJSON(ctx, http.MethodPut, path, updateDiagramDTO{Scene: rev.Scene}, &diagram, schema.ErrDiagramNotFound); err != nil {
		return schema.Diagram{}, err
	}
	return diagram, nil
}

// ListDiagrams fetches a tab's history entries.
func (c *Client) ListDiagrams(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID) ([]schema.DiagramSummary, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/diagrams", workspaceID, tabID)
	var out struct {
		Entries []schema.DiagramSummary `json:"entries"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, schema.ErrTabNotFound); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

// GetDiagram fetches one entry with its full scene.
func (c *Client) GetDiagram(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID, diagramID schema.DiagramID) (schema.Diagram, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/diagrams/%s", workspaceID, tabID, diagramID)
	var diagram schema.Diagram
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &diagram, schema.ErrDiagramNotFound); err != nil {
		return schema.Diagram{}, err
	}
	return diagram, nil
}

// DescribeDiagram asks the AI for a structured description of the requested
// diagram. Nothing is stored by this call.
func (c *Client) DescribeDiagram(ctx context.Context, req core.DescribeDiagramRequest) (schema.DiagramDescription, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/diagrams/describe", req.WorkspaceID, req.TabID)
	payload := describeDiagramDTO{Type: req.Type, Config: req.Config}
	var description schema.DiagramDescription
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &description, schema.ErrTabNotFound); err != nil {
		return schema.DiagramDescription{}, err
	}
	return description, nil
}
