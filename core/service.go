package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/medhika/skripsihub/internal/blocktree"
	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/internal/persist"
	"github.com/medhika/skripsihub/internal/scene"
	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// service implements the core service behavior.
type service struct {
	cfg        schema.ServiceConfig
	chat       ChatBackend
	history    HistoryBackend
	workspaces WorkspaceBackend
	diagrams   DiagramBackend
	uploads    Uploader
	converter  SceneConverter
	sink       EventSink
	store      *persist.Store
	logger     pslog.Logger
	mu         sync.Mutex
	open       map[schema.WorkspaceID]*workspaceState
}

type workspaceState struct {
	id     schema.WorkspaceID
	title  string
	tabs   map[schema.TabID]*tabSession
	order  []schema.TabID
	active schema.TabID

	document    *blocktree.Document
	dirty       bool
	saving      bool
	editSeq     uint64
	lastSavedAt time.Time
	lastSaveErr string
	saveLimiter *rate.Limiter

	autosaveStop context.CancelFunc
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Converter == nil {
		deps.Converter = scene.NewConverter()
	}
	var store *persist.Store
	if cfg.StateDir != "" {
		store, err = persist.NewStoreWithLogger(cfg.StateDir, deps.Logger)
		if err != nil {
			return nil, err
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:        cfg,
		chat:       deps.Chat,
		history:    deps.History,
		workspaces: deps.Workspaces,
		diagrams:   deps.Diagrams,
		uploads:    deps.Uploads,
		converter:  deps.Converter,
		sink:       deps.EventSink,
		store:      store,
		logger:     logger,
		open:       make(map[schema.WorkspaceID]*workspaceState),
	}, nil
}

func (s *service) workspaceLocked(workspaceID schema.WorkspaceID) (*workspaceState, error) {
	ws := s.open[workspaceID]
	if ws == nil {
		return nil, schema.ErrWorkspaceNotFound
	}
	return ws, nil
}

func (s *service) tabLocked(workspaceID schema.WorkspaceID, tabID schema.TabID) (*workspaceState, *tabSession, error) {
	ws, err := s.workspaceLocked(workspaceID)
	if err != nil {
		return nil, nil, err
	}
	tab := ws.tabs[tabID]
	if tab == nil {
		return ws, nil, schema.ErrTabNotFound
	}
	return ws, tab, nil
}

func (ws *workspaceState) documentStatusLocked() schema.DocumentStatus {
	return schema.DocumentStatus{
		Dirty:       ws.dirty,
		Saving:      ws.saving,
		LastSavedAt: ws.lastSavedAt,
		LastError:   ws.lastSaveErr,
	}
}

func (ws *workspaceState) snapshotLocked() schema.WorkspaceSnapshot {
	tabs := make([]schema.TabSnapshot, 0, len(ws.order))
	for _, id := range ws.order {
		tab := ws.tabs[id]
		if tab == nil {
			continue
		}
		tabs = append(tabs, tab.Snapshot(id == ws.active))
	}
	return schema.WorkspaceSnapshot{
		ID:        ws.id,
		Title:     ws.title,
		Tabs:      tabs,
		ActiveTab: ws.active,
		Document:  ws.documentStatusLocked(),
	}
}

func (s *service) emitMessage(event schema.MessageEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnMessage(event)
}

func (s *service) emitDelta(event schema.MessageDeltaEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnMessageDelta(event)
}

func (s *service) emitTabEvent(event schema.TabEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnTabEvent(event)
}

func (s *service) emitDiagram(event schema.DiagramEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnDiagram(event)
}

func (s *service) emitDocument(event schema.DocumentEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnDocument(event)
}

func (s *service) persistWorkspace(log pslog.Logger, workspaceID schema.WorkspaceID) {
	if s.store == nil {
		return
	}
	s.mu.Lock()
	ws := s.open[workspaceID]
	if ws == nil {
		s.mu.Unlock()
		return
	}
	snapshot := persist.WorkspaceSnapshot{
		ActiveTab:      ws.active,
		LoadedDiagrams: make(map[schema.TabID]schema.DiagramID),
	}
	for id, tab := range ws.tabs {
		if tab.LoadedDiagram != "" {
			snapshot.LoadedDiagrams[id] = tab.LoadedDiagram
		}
	}
	s.mu.Unlock()
	if err := s.store.Save(workspaceID, snapshot); err != nil {
		if log != nil {
			log.Warn("service persist failed", "err", err)
		}
		return
	}
	if log != nil {
		log.Trace("service state persisted")
	}
}

func (s *service) applyPersistedState(ws *workspaceState, snapshot persist.WorkspaceSnapshot) {
	if snapshot.ActiveTab != "" {
		if _, ok := ws.tabs[snapshot.ActiveTab]; ok {
			ws.active = snapshot.ActiveTab
		}
	}
	for tabID, diagramID := range snapshot.LoadedDiagrams {
		if tab := ws.tabs[tabID]; tab != nil {
			tab.LoadedDiagram = diagramID
		}
	}
}

// detachStreamContext builds a fresh context carrying the logger and log
// markers of ctx but none of its cancellation. Streams outlive the request
// that started them.
func detachStreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.Background()
	if ctx != nil {
		if logger := pslog.Ctx(ctx); logger != nil {
			base = logx.CopyContextFields(pslog.ContextWithLogger(base, logger), ctx)
		}
	}
	return context.WithCancel(base)
}

func normalizeWorkspaceID(workspaceID schema.WorkspaceID) (schema.WorkspaceID, error) {
	if err := schema.ValidateWorkspaceID(workspaceID); err != nil {
		return "", schema.ErrInvalidWorkspace
	}
	return workspaceID, nil
}
