package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/medhika/skripsihub/internal/blocktree"
	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
)

func (s *service) OpenWorkspace(ctx context.Context, req schema.OpenWorkspaceRequest) (schema.OpenWorkspaceResponse, error) {
	if ctx == nil {
		return schema.OpenWorkspaceResponse{}, errors.New("missing context")
	}
	if s.workspaces == nil {
		return schema.OpenWorkspaceResponse{}, errors.New("workspace backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.OpenWorkspaceResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)
	log.Info("service workspace open start")

	s.mu.Lock()
	if ws := s.open[workspaceID]; ws != nil {
		snapshot := ws.snapshotLocked()
		s.mu.Unlock()
		log.Debug("service workspace already open")
		return schema.OpenWorkspaceResponse{Workspace: snapshot}, nil
	}
	s.mu.Unlock()

	info, err := s.workspaces.FetchWorkspace(ctx, workspaceID)
	if err != nil {
		log.Warn("service workspace open failed", "err", err)
		return schema.OpenWorkspaceResponse{}, err
	}
	if err := validateTabSet(info.Tabs); err != nil {
		log.Warn("service workspace open failed", "err", err)
		return schema.OpenWorkspaceResponse{}, err
	}
	doc, err := blocktree.ParseHTML(info.DocumentHTML)
	if err != nil {
		log.Warn("service document parse failed", "err", err)
		return schema.OpenWorkspaceResponse{}, err
	}

	ws := &workspaceState{
		id:          workspaceID,
		title:       info.Title,
		tabs:        make(map[schema.TabID]*tabSession, len(info.Tabs)),
		document:    doc,
		saveLimiter: rate.NewLimiter(rate.Limit(float64(s.cfg.SaveRetryPerMinute)/60.0), 1),
	}
	byKind := make(map[schema.TabKind]schema.TabID, len(info.Tabs))
	for _, entry := range info.Tabs {
		ws.tabs[entry.ID] = &tabSession{
			ID:     entry.ID,
			Kind:   entry.Kind,
			Status: schema.TabStatusIdle,
			window: newMessageWindow(s.cfg.WindowMaxMessages),
		}
		byKind[entry.Kind] = entry.ID
	}
	for _, kind := range schema.TabKinds() {
		ws.order = append(ws.order, byKind[kind])
	}
	ws.active = ws.order[0]

	if s.store != nil {
		if snapshot, ok, err := s.store.Load(workspaceID); err == nil && ok {
			s.applyPersistedState(ws, snapshot)
		} else if err != nil {
			log.Warn("service state load failed", "err", err)
		}
	}

	s.mu.Lock()
	if existing := s.open[workspaceID]; existing != nil {
		snapshot := existing.snapshotLocked()
		s.mu.Unlock()
		return schema.OpenWorkspaceResponse{Workspace: snapshot}, nil
	}
	s.open[workspaceID] = ws
	autosaveCtx, cancel := detachStreamContext(ctx)
	ws.autosaveStop = cancel
	snapshot := ws.snapshotLocked()
	s.mu.Unlock()

	go s.autosaveLoop(autosaveCtx, workspaceID)
	s.persistWorkspace(log, workspaceID)
	log.Info("service workspace opened", "tabs", len(snapshot.Tabs), "active", snapshot.ActiveTab)
	return schema.OpenWorkspaceResponse{Workspace: snapshot}, nil
}

func (s *service) CloseWorkspace(ctx context.Context, req schema.CloseWorkspaceRequest) (schema.CloseWorkspaceResponse, error) {
	if ctx == nil {
		return schema.CloseWorkspaceResponse{}, errors.New("missing context")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.CloseWorkspaceResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	s.persistWorkspace(log, workspaceID)

	s.mu.Lock()
	ws := s.open[workspaceID]
	if ws == nil {
		s.mu.Unlock()
		log.Debug("service workspace close ignored", "reason", "not open")
		return schema.CloseWorkspaceResponse{}, nil
	}
	delete(s.open, workspaceID)
	stop := ws.autosaveStop
	dirty := ws.dirty
	var html string
	if dirty && ws.document != nil {
		html = blocktree.RenderHTML(ws.document)
	}
	var streams []StreamHandle
	var cancels []context.CancelFunc
	for _, tab := range ws.tabs {
		if tab.stream != nil {
			streams = append(streams, tab.stream)
		}
		if tab.streamCancel != nil {
			cancels = append(cancels, tab.streamCancel)
		}
	}
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, cancel := range cancels {
		cancel()
	}
	for _, stream := range streams {
		_ = stream.Close()
	}
	if dirty && s.workspaces != nil {
		if err := s.workspaces.SaveDocument(ctx, workspaceID, html); err != nil {
			log.Warn("service close flush failed", "err", err)
		} else {
			log.Debug("service close flush ok")
		}
	}
	log.Info("service workspace closed")
	return schema.CloseWorkspaceResponse{}, nil
}

func (s *service) RenameWorkspace(ctx context.Context, req schema.RenameWorkspaceRequest) (schema.RenameWorkspaceResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.RenameWorkspaceResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return schema.RenameWorkspaceResponse{}, fmt.Errorf("%w: title is required", schema.ErrInvalidRequest)
	}

	s.mu.Lock()
	ws, err := s.workspaceLocked(workspaceID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service workspace rename failed", "err", err)
		return schema.RenameWorkspaceResponse{}, err
	}
	if s.workspaces != nil {
		if err := s.workspaces.RenameWorkspace(ctx, workspaceID, title); err != nil {
			log.Warn("service workspace rename failed", "err", err)
			return schema.RenameWorkspaceResponse{}, err
		}
	}
	s.mu.Lock()
	ws.title = title
	snapshot := ws.snapshotLocked()
	s.mu.Unlock()
	log.Info("service workspace renamed", "title", title)
	return schema.RenameWorkspaceResponse{Workspace: snapshot}, nil
}

func validateTabSet(tabs []WorkspaceTab) error {
	if len(tabs) != len(schema.TabKinds()) {
		return fmt.Errorf("%w: expected %d tabs, got %d", schema.ErrInvalidRequest, len(schema.TabKinds()), len(tabs))
	}
	seen := make(map[schema.TabKind]bool, len(tabs))
	for _, tab := range tabs {
		if strings.TrimSpace(string(tab.ID)) == "" {
			return fmt.Errorf("%w: tab id is required", schema.ErrInvalidRequest)
		}
		if !schema.ValidTabKind(tab.Kind) {
			return fmt.Errorf("%w: unknown tab kind %q", schema.ErrInvalidRequest, tab.Kind)
		}
		if seen[tab.Kind] {
			return fmt.Errorf("%w: duplicate tab kind %q", schema.ErrInvalidRequest, tab.Kind)
		}
		seen[tab.Kind] = true
	}
	return nil
}
