package core

import (
	"context"
	"errors"

	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

func (s *service) GetMessages(ctx context.Context, req schema.GetMessagesRequest) (schema.GetMessagesResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.GetMessagesResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service messages get failed", "err", err)
		return schema.GetMessagesResponse{}, err
	}
	loaded := tab.window.Loaded()
	s.mu.Unlock()

	if !loaded {
		if err := s.seedWindow(ctx, log, workspaceID, req.TabID); err != nil {
			return schema.GetMessagesResponse{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, tab, err = s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		return schema.GetMessagesResponse{}, err
	}
	snapshot := tab.window.Snapshot(req.TabID)
	log.Trace("service messages fetched", "count", len(snapshot.Messages), "has_more", snapshot.HasMore)
	return schema.GetMessagesResponse{Window: snapshot}, nil
}

func (s *service) LoadOlder(ctx context.Context, req schema.LoadOlderRequest) (schema.LoadOlderResponse, error) {
	if s.history == nil {
		return schema.LoadOlderResponse{}, errors.New("history backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.LoadOlderResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.PageSize
	}

	s.mu.Lock()
	_, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service messages older failed", "err", err)
		return schema.LoadOlderResponse{}, err
	}
	anchor := req.Before
	if anchor == "" {
		oldest, ok := tab.window.OldestID()
		if !ok {
			snapshot := tab.window.Snapshot(req.TabID)
			s.mu.Unlock()
			return schema.LoadOlderResponse{Window: snapshot}, nil
		}
		anchor = oldest
	}
	if !tab.window.HasMore() {
		snapshot := tab.window.Snapshot(req.TabID)
		s.mu.Unlock()
		log.Debug("service messages older exhausted")
		return schema.LoadOlderResponse{Window: snapshot}, nil
	}
	epoch := tab.window.Epoch()
	s.mu.Unlock()

	page, err := s.history.MessagesBefore(ctx, MessagesBeforeRequest{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Before:      anchor,
		Limit:       limit,
	})
	if err != nil {
		if errors.Is(err, schema.ErrMessageNotFound) {
			log.Warn("service messages older stale anchor", "anchor", anchor)
		} else {
			log.Warn("service messages older failed", "err", err)
		}
		return schema.LoadOlderResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, tab, err = s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		return schema.LoadOlderResponse{}, err
	}
	if tab.window.Epoch() != epoch {
		// The window was reset while the page was in flight. Splicing a
		// page anchored in the old window would corrupt ordering.
		snapshot := tab.window.Snapshot(req.TabID)
		log.Debug("service messages older discarded", "reason", "stale epoch")
		return schema.LoadOlderResponse{Window: snapshot}, nil
	}
	added := tab.window.PrependPage(page.Messages, page.HasMore)
	snapshot := tab.window.Snapshot(req.TabID)
	log.Debug("service messages older loaded", "added", added, "has_more", page.HasMore)
	return schema.LoadOlderResponse{Window: snapshot, Added: added}, nil
}

func (s *service) ResetMessages(ctx context.Context, req schema.ResetMessagesRequest) (schema.ResetMessagesResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.ResetMessagesResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service messages reset failed", "err", err)
		return schema.ResetMessagesResponse{}, err
	}
	if err := s.reloadWindow(ctx, log, workspaceID, req.TabID); err != nil {
		return schema.ResetMessagesResponse{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		return schema.ResetMessagesResponse{}, err
	}
	snapshot := tab.window.Snapshot(req.TabID)
	log.Info("service messages reset", "count", len(snapshot.Messages))
	return schema.ResetMessagesResponse{Window: snapshot}, nil
}

// seedWindow loads the newest page into an untouched window. A window that
// got loaded concurrently is left alone.
func (s *service) seedWindow(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID, tabID schema.TabID) error {
	if s.history == nil {
		s.mu.Lock()
		if _, tab, err := s.tabLocked(workspaceID, tabID); err == nil {
			tab.window.Reset(nil, false)
		}
		s.mu.Unlock()
		return nil
	}
	page, err := s.history.RecentMessages(ctx, RecentMessagesRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		Limit:       s.cfg.PageSize,
	})
	if err != nil {
		log.Warn("service messages seed failed", "err", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, tab, err := s.tabLocked(workspaceID, tabID)
	if err != nil {
		return err
	}
	if tab.window.Loaded() {
		return nil
	}
	tab.window.Reset(page.Messages, page.HasMore)
	return nil
}

// reloadWindow unconditionally replaces the window with the newest page.
func (s *service) reloadWindow(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID, tabID schema.TabID) error {
	var page schema.MessagePage
	if s.history != nil {
		fetched, err := s.history.RecentMessages(ctx, RecentMessagesRequest{
			WorkspaceID: workspaceID,
			TabID:       tabID,
			Limit:       s.cfg.PageSize,
		})
		if err != nil {
			log.Warn("service messages reload failed", "err", err)
			return err
		}
		page = fetched
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, tab, err := s.tabLocked(workspaceID, tabID)
	if err != nil {
		return err
	}
	tab.window.Reset(page.Messages, page.HasMore)
	return nil
}
