package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medhika/skripsihub/internal/blocktree"
	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

func (s *service) SetDocument(ctx context.Context, req schema.SetDocumentRequest) (schema.SetDocumentResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.SetDocumentResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	doc, err := blocktree.ParseHTML(req.HTML)
	if err != nil {
		log.Warn("service document parse failed", "err", err)
		return schema.SetDocumentResponse{}, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err)
	}

	s.mu.Lock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service document set failed", "err", err)
		return schema.SetDocumentResponse{}, err
	}
	ws.document = doc
	ws.dirty = true
	ws.editSeq++
	status := ws.documentStatusLocked()
	s.mu.Unlock()
	s.emitDocument(schema.DocumentEvent{WorkspaceID: workspaceID, Status: status})
	log.Debug("service document set", "blocks", doc.Len())
	return schema.SetDocumentResponse{Status: status}, nil
}

func (s *service) MarkDirty(ctx context.Context, req schema.MarkDirtyRequest) (schema.MarkDirtyResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.MarkDirtyResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	s.mu.Lock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service document mark failed", "err", err)
		return schema.MarkDirtyResponse{}, err
	}
	changed := !ws.dirty
	ws.dirty = true
	ws.editSeq++
	status := ws.documentStatusLocked()
	s.mu.Unlock()
	if changed {
		s.emitDocument(schema.DocumentEvent{WorkspaceID: workspaceID, Status: status})
	}
	log.Trace("service document marked dirty")
	return schema.MarkDirtyResponse{Status: status}, nil
}

func (s *service) SaveDocument(ctx context.Context, req schema.SaveDocumentRequest) (schema.SaveDocumentResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.SaveDocumentResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)
	status, err := s.saveDocumentOnce(ctx, log, workspaceID)
	if err != nil {
		return schema.SaveDocumentResponse{Status: status}, err
	}
	return schema.SaveDocumentResponse{Status: status}, nil
}

func (s *service) GetDocumentStatus(ctx context.Context, req schema.GetDocumentStatusRequest) (schema.GetDocumentStatusResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.GetDocumentStatusResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		return schema.GetDocumentStatusResponse{}, err
	}
	return schema.GetDocumentStatusResponse{Status: ws.documentStatusLocked()}, nil
}

func (s *service) ExportDocument(ctx context.Context, req schema.ExportDocumentRequest) (schema.ExportDocumentResponse, error) {
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.ExportDocumentResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)

	s.mu.Lock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service document export failed", "err", err)
		return schema.ExportDocumentResponse{}, err
	}
	if ws.document == nil {
		s.mu.Unlock()
		return schema.ExportDocumentResponse{}, schema.ErrNoDocument
	}
	// Exports read the live tree, so unsaved edits are always included.
	doc := ws.document
	title := ws.title
	s.mu.Unlock()

	base := exportBasename(title, workspaceID)
	switch req.Format {
	case schema.ExportHTML, "":
		html := blocktree.RenderHTML(doc)
		log.Info("service document exported", "format", schema.ExportHTML, "bytes", len(html))
		return schema.ExportDocumentResponse{
			Filename:    base + ".html",
			ContentType: "text/html; charset=utf-8",
			Data:        []byte(html),
		}, nil
	case schema.ExportDOCX:
		data, err := blocktree.RenderDOCX(doc, title)
		if err != nil {
			log.Warn("service document export failed", "err", err)
			return schema.ExportDocumentResponse{}, err
		}
		log.Info("service document exported", "format", schema.ExportDOCX, "bytes", len(data))
		return schema.ExportDocumentResponse{
			Filename:    base + ".docx",
			ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			Data:        data,
		}, nil
	default:
		return schema.ExportDocumentResponse{}, fmt.Errorf("%w: unknown export format %q", schema.ErrInvalidRequest, req.Format)
	}
}

func (s *service) UploadAsset(ctx context.Context, req schema.UploadAssetRequest) (schema.UploadAssetResponse, error) {
	if s.uploads == nil {
		return schema.UploadAssetResponse{}, errors.New("upload backend is required")
	}
	workspaceID, err := normalizeWorkspaceID(req.WorkspaceID)
	if err != nil {
		return schema.UploadAssetResponse{}, err
	}
	log := logx.WithWorkspace(ctx, workspaceID)
	if strings.TrimSpace(req.Filename) == "" {
		return schema.UploadAssetResponse{}, fmt.Errorf("%w: filename is required", schema.ErrInvalidRequest)
	}
	if len(req.Data) == 0 {
		return schema.UploadAssetResponse{}, fmt.Errorf("%w: empty upload", schema.ErrInvalidRequest)
	}

	s.mu.Lock()
	_, err = s.workspaceLocked(workspaceID)
	s.mu.Unlock()
	if err != nil {
		log.Warn("service upload failed", "err", err)
		return schema.UploadAssetResponse{}, err
	}
	asset, err := s.uploads.Upload(ctx, UploadRequest{
		WorkspaceID: workspaceID,
		Filename:    req.Filename,
		Purpose:     req.Purpose,
		Data:        req.Data,
	})
	if err != nil {
		log.Warn("service upload failed", "filename", req.Filename, "err", err)
		return schema.UploadAssetResponse{}, err
	}
	log.Info("service upload stored", "filename", req.Filename, "bytes", len(req.Data), "purpose", req.Purpose)
	return schema.UploadAssetResponse{Asset: asset}, nil
}

// saveDocumentOnce pushes the current tree to the platform. The dirty flag
// clears only when the save succeeds and no edit landed while it was in
// flight.
func (s *service) saveDocumentOnce(ctx context.Context, log pslog.Logger, workspaceID schema.WorkspaceID) (schema.DocumentStatus, error) {
	if s.workspaces == nil {
		return schema.DocumentStatus{}, errors.New("workspace backend is required")
	}
	s.mu.Lock()
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		s.mu.Unlock()
		log.Warn("service document save failed", "err", err)
		return schema.DocumentStatus{}, err
	}
	if ws.document == nil {
		s.mu.Unlock()
		return schema.DocumentStatus{}, schema.ErrNoDocument
	}
	if ws.saving {
		status := ws.documentStatusLocked()
		s.mu.Unlock()
		log.Debug("service document save skipped", "reason", "save in flight")
		return status, nil
	}
	ws.saving = true
	seq := ws.editSeq
	html := blocktree.RenderHTML(ws.document)
	status := ws.documentStatusLocked()
	s.mu.Unlock()
	s.emitDocument(schema.DocumentEvent{WorkspaceID: workspaceID, Status: status})
	log.Debug("service document save start", "bytes", len(html))

	saveErr := s.workspaces.SaveDocument(ctx, workspaceID, html)

	s.mu.Lock()
	ws, err = s.workspaceLocked(workspaceID)
	if err != nil {
		s.mu.Unlock()
		return schema.DocumentStatus{}, err
	}
	ws.saving = false
	if saveErr != nil {
		ws.lastSaveErr = saveErr.Error()
	} else {
		ws.lastSaveErr = ""
		ws.lastSavedAt = time.Now()
		if ws.editSeq == seq {
			ws.dirty = false
		}
	}
	status = ws.documentStatusLocked()
	s.mu.Unlock()
	s.emitDocument(schema.DocumentEvent{WorkspaceID: workspaceID, Status: status})
	if saveErr != nil {
		log.Warn("service document save failed", "err", saveErr)
		return status, fmt.Errorf("%w: %v", schema.ErrSaveFailed, saveErr)
	}
	log.Info("service document saved", "dirty", status.Dirty)
	return status, nil
}

// autosaveLoop flushes dirty documents on a fixed interval. After a failed
// save the retry rate is throttled by the workspace limiter instead of
// hammering the platform every tick.
func (s *service) autosaveLoop(ctx context.Context, workspaceID schema.WorkspaceID) {
	log := logx.WithWorkspace(ctx, workspaceID)
	interval := s.cfg.AutosaveInterval
	if interval <= 0 {
		interval = schema.DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Debug("service autosave loop start", "interval", interval)
	for {
		select {
		case <-ctx.Done():
			log.Debug("service autosave loop stop")
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		ws := s.open[workspaceID]
		if ws == nil {
			s.mu.Unlock()
			return
		}
		dirty := ws.dirty && !ws.saving
		failing := ws.lastSaveErr != ""
		limiter := ws.saveLimiter
		s.mu.Unlock()
		if !dirty {
			continue
		}
		if failing && limiter != nil && !limiter.Allow() {
			log.Trace("service autosave throttled")
			continue
		}
		if _, err := s.saveDocumentOnce(ctx, log, workspaceID); err != nil {
			log.Warn("service autosave failed", "err", err)
		}
	}
}

func exportBasename(title string, workspaceID schema.WorkspaceID) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = string(workspaceID)
	}
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "document"
	}
	return out
}
