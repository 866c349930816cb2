package core

import (
	"context"

	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
)

func (s *service) ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.ListTabsResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		log.Warn("service tabs list failed", "err", err)
		return schema.ListTabsResponse{}, err
	}
	tabs := make([]schema.TabSnapshot, 0, len(ws.order))
	for _, id := range ws.order {
		tab := ws.tabs[id]
		if tab == nil {
			continue
		}
		tabs = append(tabs, tab.Snapshot(id == ws.active))
	}
	log.Trace("service tabs listed", "count", len(tabs), "active", ws.active)
	return schema.ListTabsResponse{Tabs: tabs, ActiveTab: ws.active}, nil
}

func (s *service) SwitchTab(ctx context.Context, req schema.SwitchTabRequest) (schema.SwitchTabResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.SwitchTabResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	ws, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service tab switch failed", "err", err)
		return schema.SwitchTabResponse{}, err
	}
	// Background tabs keep their streams and windows; switching only moves
	// the foreground pointer.
	ws.active = req.TabID
	event := schema.TabEvent{
		WorkspaceID: workspaceID,
		Type:        schema.TabEventActivated,
		Tab:         tab.Snapshot(true),
		ActiveTab:   ws.active,
	}
	s.mu.Unlock()
	s.emitTabEvent(event)
	s.persistWorkspace(log, workspaceID)
	log.Info("service tab switched", "kind", tab.Kind)
	return schema.SwitchTabResponse{Tab: event.Tab}, nil
}

func (s *service) GetActiveTab(ctx context.Context, req schema.GetActiveTabRequest) (schema.GetActiveTabResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.GetActiveTabResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		log.Warn("service active tab failed", "err", err)
		return schema.GetActiveTabResponse{}, err
	}
	tab := ws.tabs[ws.active]
	if tab == nil {
		return schema.GetActiveTabResponse{}, schema.ErrTabNotFound
	}
	return schema.GetActiveTabResponse{Tab: tab.Snapshot(true)}, nil
}
