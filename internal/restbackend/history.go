package restbackend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/schema"
)

type messagePageDTO struct {
	Messages []schema.Message `json:"messages"`
	HasMore  bool             `json:"has_more"`
}

// RecentMessages fetches the newest page of a tab's history.
func (c *Client) RecentMessages(ctx context.Context, req core.RecentMessagesRequest) (schema.MessagePage, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/messages?limit=%d", req.WorkspaceID, req.TabID, req.Limit)
	var page messagePageDTO
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page, schema.ErrTabNotFound); err != nil {
		return schema.MessagePage{}, err
	}
	return schema.MessagePage{Messages: page.Messages, HasMore: page.HasMore}, nil
}

// MessagesBefore fetches the page older than the anchor. A vanished anchor
// comes back as schema.ErrMessageNotFound.
func (c *Client) MessagesBefore(ctx context.Context, req core.MessagesBeforeRequest) (schema.MessagePage, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/tabs/%s/messages?limit=%d&before=%s",
		req.WorkspaceID, req.TabID, req.Limit, url.QueryEscape(string(req.Before)))
	var page messagePageDTO
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &page, schema.ErrMessageNotFound); err != nil {
		return schema.MessagePage{}, err
	}
	return schema.MessagePage{Messages: page.Messages, HasMore: page.HasMore}, nil
}
