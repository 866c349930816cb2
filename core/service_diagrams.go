package core

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
)

func (s *service) CreateDiagram(ctx context.Context, req schema.CreateDiagramRequest) (schema.CreateDiagramResponse, error) {
	if s.diagrams == nil {
		return schema.CreateDiagramResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.CreateDiagramResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service diagram create failed", "err", err)
		return schema.CreateDiagramResponse{}, err
	}
	method := req.CreationMethod
	if method == "" {
		method = schema.CreatedManually
	}
	diagram, err := s.diagrams.CreateDiagram(ctx, DiagramRecord{
		WorkspaceID:    workspaceID,
		TabID:          req.TabID,
		Type:           req.Type,
		Config:         req.Config,
		Scene:          req.Scene,
		CreationMethod: method,
	})
	if err != nil {
		log.Warn("service diagram create failed", "err", err)
		return schema.CreateDiagramResponse{}, err
	}
	s.emitDiagram(schema.DiagramEvent{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Type:        schema.DiagramEventCreated,
		Diagram:     diagram.Summary(),
	})
	log.Info("service diagram created", "diagram", diagram.ID, "type", diagram.Type, "method", method)
	return schema.CreateDiagramResponse{Diagram: diagram}, nil
}

func (s *service) UpdateDiagram(ctx context.Context, req schema.UpdateDiagramRequest) (schema.UpdateDiagramResponse, error) {
	if s.diagrams == nil {
		return schema.UpdateDiagramResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.UpdateDiagramResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service diagram update failed", "err", err)
		return schema.UpdateDiagramResponse{}, err
	}
	diagram, err := s.diagrams.UpdateDiagram(ctx, DiagramRevision{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		DiagramID:   req.DiagramID,
		Scene:       req.Scene,
	})
	if err != nil {
		log.Warn("service diagram update failed", "diagram", req.DiagramID, "err", err)
		return schema.UpdateDiagramResponse{}, err
	}
	s.emitDiagram(schema.DiagramEvent{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Type:        schema.DiagramEventUpdated,
		Diagram:     diagram.Summary(),
	})
	log.Info("service diagram updated", "diagram", diagram.ID)
	return schema.UpdateDiagramResponse{Diagram: diagram}, nil
}

func (s *service) DiagramHistory(ctx context.Context, req schema.DiagramHistoryRequest) (schema.DiagramHistoryResponse, error) {
	if s.diagrams == nil {
		return schema.DiagramHistoryResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.DiagramHistoryResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service diagram history failed", "err", err)
		return schema.DiagramHistoryResponse{}, err
	}
	entries, err := s.diagrams.ListDiagrams(ctx, workspaceID, req.TabID)
	if err != nil {
		log.Warn("service diagram history failed", "err", err)
		return schema.DiagramHistoryResponse{}, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if s.cfg.DiagramHistoryMax > 0 && len(entries) > s.cfg.DiagramHistoryMax {
		entries = entries[:s.cfg.DiagramHistoryMax]
	}
	log.Debug("service diagram history fetched", "count", len(entries))
	return schema.DiagramHistoryResponse{Entries: entries}, nil
}

func (s *service) DiagramDetail(ctx context.Context, req schema.DiagramDetailRequest) (schema.DiagramDetailResponse, error) {
	if s.diagrams == nil {
		return schema.DiagramDetailResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.DiagramDetailResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service diagram detail failed", "err", err)
		return schema.DiagramDetailResponse{}, err
	}
	diagram, err := s.diagrams.GetDiagram(ctx, workspaceID, req.TabID, req.DiagramID)
	if err != nil {
		log.Warn("service diagram detail failed", "diagram", req.DiagramID, "err", err)
		return schema.DiagramDetailResponse{}, err
	}
	log.Debug("service diagram detail fetched", "diagram", diagram.ID, "elements", len(diagram.Scene.Elements))
	return schema.DiagramDetailResponse{Diagram: diagram}, nil
}

func (s *service) LoadDiagram(ctx context.Context, req schema.LoadDiagramRequest) (schema.LoadDiagramResponse, error) {
	if s.diagrams == nil {
		return schema.LoadDiagramResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.LoadDiagramResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	diagram, err := s.diagrams.GetDiagram(ctx, workspaceID, req.TabID, req.DiagramID)
	if err != nil {
		log.Warn("service diagram load failed", "diagram", req.DiagramID, "err", err)
		return schema.LoadDiagramResponse{}, err
	}

	s.mu.Lock()
	_, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service diagram load failed", "err", err)
		return schema.LoadDiagramResponse{}, err
	}
	tab.LoadedDiagram = diagram.ID
	s.mu.Unlock()
	s.emitDiagram(schema.DiagramEvent{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Type:        schema.DiagramEventLoaded,
		Diagram:     diagram.Summary(),
	})
	s.persistWorkspace(log, workspaceID)
	log.Info("service diagram loaded", "diagram", diagram.ID)
	return schema.LoadDiagramResponse{Diagram: diagram}, nil
}

func (s *service) GenerateDiagram(ctx context.Context, req schema.GenerateDiagramRequest) (schema.GenerateDiagramResponse, error) {
	if s.diagrams == nil {
		return schema.GenerateDiagramResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.GenerateDiagramResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)
	if strings.TrimSpace(req.Config.Description) == "" {
		return schema.GenerateDiagramResponse{}, schema.ErrMissingDescription
	}

	s.mu.Lock()
	_, _, err = s.tabLocked(workspaceID, req.TabID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service diagram generate failed", "err", err)
		return schema.GenerateDiagramResponse{}, err
	}
	log.Info("service diagram generate start", "type", req.Type)

	// Nothing is written until both the description and the conversion
	// succeed; a failed generation leaves the history untouched.
	description, err := s.diagrams.DescribeDiagram(ctx, DescribeDiagramRequest{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Type:        req.Type,
		Config:      req.Config,
	})
	if err != nil {
		log.Warn("service diagram describe failed", "err", err)
		return schema.GenerateDiagramResponse{}, err
	}
	converted, err := s.converter.Convert(description, req.Config)
	if err != nil {
		log.Warn("service diagram convert failed", "err", err)
		return schema.GenerateDiagramResponse{}, err
	}
	diagram, err := s.diagrams.CreateDiagram(ctx, DiagramRecord{
		WorkspaceID:    workspaceID,
		TabID:          req.TabID,
		Type:           req.Type,
		Config:         req.Config,
		Scene:          converted,
		CreationMethod: schema.CreatedByAI,
	})
	if err != nil {
		log.Warn("service diagram generate failed", "err", err)
		return schema.GenerateDiagramResponse{}, err
	}

	s.mu.Lock()
	if _, tab, err := s.tabLocked(workspaceID, req.TabID); err == nil {
		tab.LoadedDiagram = diagram.ID
	}
	s.mu.Unlock()
	s.emitDiagram(schema.DiagramEvent{
		WorkspaceID: workspaceID,
		TabID:       req.TabID,
		Type:        schema.DiagramEventCreated,
		Diagram:     diagram.Summary(),
	})
	s.persistWorkspace(log, workspaceID)
	log.Info("service diagram generated", "diagram", diagram.ID, "nodes", len(description.Nodes), "edges", len(description.Edges))
	return schema.GenerateDiagramResponse{Diagram: diagram}, nil
}

func (s *service) SaveCanvas(ctx context.Context, req schema.SaveCanvasRequest) (schema.SaveCanvasResponse, error) {
	if s.diagrams == nil {
		return schema.SaveCanvasResponse{}, errors.New("diagram backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.SaveCanvasResponse{}, err
	}
	log := logx.WithWorkspaceTab(ctx, workspaceID, req.TabID)

	s.mu.Lock()
	_, tab, err := s.tabLocked(workspaceID, req.TabID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service canvas save failed", "err", err)
		return schema.SaveCanvasResponse{}, err
	}
	loaded := tab.LoadedDiagram
	s.mu.Unlock()

	if loaded != "" {
		resp, err := s.UpdateDiagram(ctx, schema.UpdateDiagramRequest{
			WorkspaceID: workspaceID,
			TabID:       req.TabID,
			DiagramID:   loaded,
			Scene:       req.Scene,
		})
		if err == nil {
			return schema.SaveCanvasResponse{Diagram: resp.Diagram}, nil
		}
		if !errors.Is(err, schema.ErrDiagramNotFound) {
			return schema.SaveCanvasResponse{}, err
		}
		// The loaded entry vanished upstream; fall through to a create.
		log.Warn("service canvas save loaded entry missing", "diagram", loaded)
	}
	created, err := s.CreateDiagram(ctx, schema.CreateDiagramRequest{
		WorkspaceID:    workspaceID,
		TabID:          req.TabID,
		Scene:          req.Scene,
		CreationMethod: schema.CreatedManually,
	})
	if err != nil {
		return schema.SaveCanvasResponse{}, err
	}
	s.mu.Lock()
	if _, tab, err := s.tabLocked(workspaceID, req.TabID); err == nil {
		tab.LoadedDiagram = created.Diagram.ID
	}
	s.mu.Unlock()
	s.persistWorkspace(log, workspaceID)
	return schema.SaveCanvasResponse{Diagram: created.Diagram, Created: true}, nil
}
