package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/medhika/skripsihub/core"
	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
)

const maxUploadBytes = 32 << 20

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	service  core.Service
	hub      *Hub
	metrics  *metrics
	validate *validator.Validate
}

// NewServer constructs an HTTP server.
func NewServer(cfg Config, service core.Service, hub *Hub) *Server {
	return &Server{
		cfg:      cfg,
		service:  service,
		hub:      hub,
		metrics:  newMetrics(),
		validate: validator.New(),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/workspaces/{workspaceID}").Subrouter()
	api.HandleFunc("", s.handleOpenWorkspace).Methods(http.MethodGet)
	api.HandleFunc("", s.handleRenameWorkspace).Methods(http.MethodPatch)
	api.HandleFunc("/close", s.handleCloseWorkspace).Methods(http.MethodPost)

	api.HandleFunc("/tabs", s.handleListTabs).Methods(http.MethodGet)
	api.HandleFunc("/tabs/active", s.handleActiveTab).Methods(http.MethodGet)
	api.HandleFunc("/tabs/{tabID}/activate", s.handleActivateTab).Methods(http.MethodPost)

	api.HandleFunc("/tabs/{tabID}/messages", s.handleGetMessages).Methods(http.MethodGet)
	api.HandleFunc("/tabs/{tabID}/messages", s.handleSendMessage).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID}/messages/reset", s.handleResetMessages).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID}/stop", s.handleStopStreaming).Methods(http.MethodPost)

	api.HandleFunc("/tabs/{tabID}/diagrams", s.handleDiagramHistory).Methods(http.MethodGet)
	api.HandleFunc("/tabs/{tabID}/diagrams", s.handleCreateDiagram).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID}/diagrams/generate", s.handleGenerateDiagram).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID}/diagrams/{diagramID}", s.handleDiagramDetail).Methods(http.MethodGet)
	api.HandleFunc("/tabs/{tabID}/diagrams/{diagramID}", s.handleUpdateDiagram).Methods(http.MethodPut)
	api.HandleFunc("/tabs/{tabID}/diagrams/{diagramID}/load", s.handleLoadDiagram).Methods(http.MethodPost)
	api.HandleFunc("/tabs/{tabID}/canvas", s.handleSaveCanvas).Methods(http.MethodPost)

	api.HandleFunc("/document", s.handleDocumentStatus).Methods(http.MethodGet)
	api.HandleFunc("/document", s.handleSetDocument).Methods(http.MethodPut)
	api.HandleFunc("/document/dirty", s.handleMarkDirty).Methods(http.MethodPost)
	api.HandleFunc("/document/save", s.handleSaveDocument).Methods(http.MethodPost)
	api.HandleFunc("/document/export", s.handleExportDocument).Methods(http.MethodGet)

	api.HandleFunc("/uploads", s.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	return withRequestLogging(s.metrics.middleware(router))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func requestIDs(r *http.Request) (schema.WorkspaceID, schema.TabID) {
	vars := mux.Vars(r)
	return schema.WorkspaceID(vars["workspaceID"]), schema.TabID(vars["tabID"])
}

func (s *Server) handleOpenWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.OpenWorkspace(r.Context(), schema.OpenWorkspaceRequest{WorkspaceID: workspaceID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Workspace)
}

func (s *Server) handleCloseWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	if _, err := s.service.CloseWorkspace(r.Context(), schema.CloseWorkspaceRequest{WorkspaceID: workspaceID}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRenameWorkspace(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	var payload struct {
		Title string `json:"title" validate:"required,max=300"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.RenameWorkspace(r.Context(), schema.RenameWorkspaceRequest{
		WorkspaceID: workspaceID,
		Title:       payload.Title,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Workspace)
}

func (s *Server) handleListTabs(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.ListTabs(r.Context(), schema.ListTabsRequest{WorkspaceID: workspaceID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tabs": resp.Tabs, "active_tab": resp.ActiveTab})
}

func (s *Server) handleActiveTab(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.GetActiveTab(r.Context(), schema.GetActiveTabRequest{WorkspaceID: workspaceID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Tab)
}

func (s *Server) handleActivateTab(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	resp, err := s.service.SwitchTab(r.Context(), schema.SwitchTabRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Tab)
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	before := r.URL.Query().Get("before")
	if before != "" || r.URL.Query().Get("older") == "true" {
		resp, err := s.service.LoadOlder(r.Context(), schema.LoadOlderRequest{
			WorkspaceID: workspaceID,
			TabID:       tabID,
			Before:      schema.MessageID(before),
			Limit:       parseInt(r.URL.Query().Get("limit"), 0),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		s.metrics.pagesLoaded.Inc()
		writeJSON(w, http.StatusOK, resp.Window)
		return
	}
	resp, err := s.service.GetMessages(r.Context(), schema.GetMessagesRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Window)
}

func (s *Server) handleResetMessages(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	resp, err := s.service.ResetMessages(r.Context(), schema.ResetMessagesRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Window)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	var payload struct {
		Content string `json:"content" validate:"required"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SendMessage(r.Context(), schema.SendMessageRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		Content:     payload.Content,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.streamsStarted.Inc()
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleStopStreaming(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	resp, err := s.service.StopStreaming(r.Context(), schema.StopStreamingRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.metrics.streamsStopped.Inc()
	writeJSON(w, http.StatusOK, resp.Tab)
}

func (s *Server) handleDiagramHistory(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	resp, err := s.service.DiagramHistory(r.Context(), schema.DiagramHistoryRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": resp.Entries})
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	var payload struct {
		Type   schema.DiagramType   `json:"type" validate:"omitempty,oneof=flowchart concept-map mind-map"`
		Config schema.DiagramConfig `json:"config"`
		Scene  schema.Scene         `json:"scene"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.CreateDiagram(r.Context(), schema.CreateDiagramRequest{
		WorkspaceID:    workspaceID,
		TabID:          tabID,
		Type:           payload.Type,
		Config:         payload.Config,
		Scene:          payload.Scene,
		CreationMethod: schema.CreatedManually,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Diagram)
}

func (s *Server) handleGenerateDiagram(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	var payload struct {
		Type   schema.DiagramType   `json:"type" validate:"required,oneof=flowchart concept-map mind-map"`
		Config schema.DiagramConfig `json:"config"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.GenerateDiagram(r.Context(), schema.GenerateDiagramRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		Type:        payload.Type,
		Config:      payload.Config,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Diagram)
}

func (s *Server) handleDiagramDetail(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	diagramID := schema.DiagramID(mux.Vars(r)["diagramID"])
	resp, err := s.service.DiagramDetail(r.Context(), schema.DiagramDetailRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		DiagramID:   diagramID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Diagram)
}

func (s *Server) handleUpdateDiagram(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	diagramID := schema.DiagramID(mux.Vars(r)["diagramID"])
	var payload struct {
		Scene schema.Scene `json:"scene"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.UpdateDiagram(r.Context(), schema.UpdateDiagramRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		DiagramID:   diagramID,
		Scene:       payload.Scene,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Diagram)
}

func (s *Server) handleLoadDiagram(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	diagramID := schema.DiagramID(mux.Vars(r)["diagramID"])
	resp, err := s.service.LoadDiagram(r.Context(), schema.LoadDiagramRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		DiagramID:   diagramID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Diagram)
}

func (s *Server) handleSaveCanvas(w http.ResponseWriter, r *http.Request) {
	workspaceID, tabID := requestIDs(r)
	var payload struct {
		Scene schema.Scene `json:"scene"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SaveCanvas(r.Context(), schema.SaveCanvasRequest{
		WorkspaceID: workspaceID,
		TabID:       tabID,
		Scene:       payload.Scene,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp.Diagram)
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.GetDocumentStatus(r.Context(), schema.GetDocumentStatusRequest{WorkspaceID: workspaceID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Status)
}

func (s *Server) handleSetDocument(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	var payload struct {
		HTML string `json:"html"`
	}
	if err := s.decodePayload(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.SetDocument(r.Context(), schema.SetDocumentRequest{
		WorkspaceID: workspaceID,
		HTML:        payload.HTML,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Status)
}

func (s *Server) handleMarkDirty(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.MarkDirty(r.Context(), schema.MarkDirtyRequest{WorkspaceID: workspaceID})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Status)
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	resp, err := s.service.SaveDocument(r.Context(), schema.SaveDocumentRequest{WorkspaceID: workspaceID})
	if err != nil {
		s.metrics.saveAttempts.WithLabelValues("failure").Inc()
		writeServiceError(w, err)
		return
	}
	s.metrics.saveAttempts.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, resp.Status)
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	format := schema.ExportFormat(r.URL.Query().Get("format"))
	resp, err := s.service.ExportDocument(r.Context(), schema.ExportDocumentRequest{
		WorkspaceID: workspaceID,
		Format:      format,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resp.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Data)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.UploadAsset(r.Context(), schema.UploadAssetRequest{
		WorkspaceID: workspaceID,
		Filename:    header.Filename,
		Purpose:     schema.AssetPurpose(r.FormValue("purpose")),
		Data:        data,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp.Asset)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	workspaceID, _ := requestIDs(r)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := logx.WithWorkspace(r.Context(), workspaceID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	if lastID == 0 {
		lastID = parseUint(r.URL.Query().Get("after"))
	}

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(workspaceID, lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	ch, unsubscribe, _, _ := s.hub.Subscribe(workspaceID)
	defer unsubscribe()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	notify := r.Context().Done()
	log.Info("http events opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-notify:
			log.Info("http events closed")
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case event := <-ch:
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func (s *Server) decodePayload(r *http.Request, target any) error {
	if err := decodeJSON(r.Body, target); err != nil {
		return err
	}
	if err := s.validate.Struct(target); err != nil {
		return err
	}
	return nil
}

// writeServiceError maps service errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schema.ErrAlreadyStreaming):
		status = http.StatusConflict
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidWorkspace),
		errors.Is(err, schema.ErrEmptyMessage),
		errors.Is(err, schema.ErrMissingDescription),
		errors.Is(err, schema.ErrNoDocument):
		status = http.StatusBadRequest
	case errors.Is(err, schema.ErrWorkspaceNotFound),
		errors.Is(err, schema.ErrTabNotFound),
		errors.Is(err, schema.ErrMessageNotFound),
		errors.Is(err, schema.ErrDiagramNotFound):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrTransport),
		errors.Is(err, schema.ErrSaveFailed):
		status = http.StatusBadGateway
	}
	writeError(w, status, err)
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
