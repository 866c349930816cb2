package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

func testLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.ErrorLevel,
	})
}

func defaultTabs() []WorkspaceTab {
	return []WorkspaceTab{
		{ID: "tab-r1", Kind: schema.TabResearcher1},
		{ID: "tab-r2", Kind: schema.TabResearcher2},
		{ID: "tab-r3", Kind: schema.TabResearcher3},
		{ID: "tab-para", Kind: schema.TabParaphraser},
		{ID: "tab-diagram", Kind: schema.TabDiagramBuilder},
	}
}

type testEnv struct {
	svc        Service
	chat       *fakeChat
	history    *fakeHistory
	workspaces *fakeWorkspaces
	diagrams   *fakeDiagramStore
	uploads    *fakeUploader
	sink       *sinkRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		chat:       &fakeChat{},
		history:    &fakeHistory{},
		workspaces: &fakeWorkspaces{title: "Hipertensi dan Gaya Hidup"},
		diagrams:   newFakeDiagramStore(),
		uploads:    &fakeUploader{},
		sink:       &sinkRecorder{},
	}
	cfg := schema.ServiceConfig{
		StateDir:          t.TempDir(),
		PageSize:          3,
		WindowMaxMessages: 50,
		AutosaveInterval:  time.Hour,
	}
	svc, err := NewService(cfg, ServiceDeps{
		Chat:       env.chat,
		History:    env.history,
		Workspaces: env.workspaces,
		Diagrams:   env.diagrams,
		Uploads:    env.uploads,
		EventSink:  env.sink,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	env.svc = svc
	return env
}

func (e *testEnv) openWorkspace(t *testing.T, workspaceID schema.WorkspaceID) schema.WorkspaceSnapshot {
	t.Helper()
	resp, err := e.svc.OpenWorkspace(context.Background(), schema.OpenWorkspaceRequest{WorkspaceID: workspaceID})
	if err != nil {
		t.Fatalf("open workspace: %v", err)
	}
	return resp.Workspace
}

func (e *testEnv) window(t *testing.T, workspaceID schema.WorkspaceID, tabID schema.TabID) schema.MessageWindowSnapshot {
	t.Helper()
	resp, err := e.svc.GetMessages(context.Background(), schema.GetMessagesRequest{WorkspaceID: workspaceID, TabID: tabID})
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	return resp.Window
}

func (e *testEnv) tabStatus(workspaceID schema.WorkspaceID, tabID schema.TabID) schema.TabStatus {
	resp, err := e.svc.ListTabs(context.Background(), schema.ListTabsRequest{WorkspaceID: workspaceID})
	if err != nil {
		return ""
	}
	for _, tab := range resp.Tabs {
		if tab.ID == tabID {
			return tab.Status
		}
	}
	return ""
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// fakeChat hands out pre-scripted streams in order. A non-nil openGate parks
// StreamMessage until the gate closes or the context ends.
type fakeChat struct {
	mu       sync.Mutex
	handles  []*scriptedHandle
	started  int
	startErr error
	openGate chan struct{}
	stops    []StopStreamRequest
	stopErr  error
}

func (c *fakeChat) script(id string) *scriptedHandle {
	handle := &scriptedHandle{
		id:     id,
		stream: &scriptedStream{chunks: make(chan StreamChunk, 64)},
	}
	c.mu.Lock()
	c.handles = append(c.handles, handle)
	c.mu.Unlock()
	return handle
}

func (c *fakeChat) StreamMessage(ctx context.Context, req StreamMessageRequest) (StreamHandle, error) {
	c.mu.Lock()
	gate := c.openGate
	c.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return nil, c.startErr
	}
	if c.started >= len(c.handles) {
		return nil, errors.New("no scripted stream left")
	}
	handle := c.handles[c.started]
	c.started++
	return handle, nil
}

func (c *fakeChat) StopStream(ctx context.Context, req StopStreamRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops = append(c.stops, req)
	return c.stopErr
}

func (c *fakeChat) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stops)
}

type scriptedHandle struct {
	id     string
	stream *scriptedStream
}

func (h *scriptedHandle) ID() string         { return h.id }
func (h *scriptedHandle) Events() ChatStream { return h.stream }
func (h *scriptedHandle) Close() error       { return nil }

func (h *scriptedHandle) delta(text string) {
	h.stream.chunks <- StreamChunk{Delta: text}
}

func (h *scriptedHandle) final(msg schema.Message) {
	h.stream.chunks <- StreamChunk{Final: &msg}
}

func (h *scriptedHandle) finish() {
	close(h.stream.chunks)
}

func (h *scriptedHandle) fail(err error) {
	h.stream.mu.Lock()
	h.stream.err = err
	h.stream.mu.Unlock()
	close(h.stream.chunks)
}

type scriptedStream struct {
	chunks chan StreamChunk
	mu     sync.Mutex
	err    error
}

func (s *scriptedStream) Next(ctx context.Context) (StreamChunk, error) {
	select {
	case <-ctx.Done():
		return StreamChunk{}, ctx.Err()
	case chunk, ok := <-s.chunks:
		if !ok {
			s.mu.Lock()
			err := s.err
			s.mu.Unlock()
			if err != nil {
				return StreamChunk{}, err
			}
			return StreamChunk{}, io.EOF
		}
		return chunk, nil
	}
}

func (s *scriptedStream) Close() error { return nil }

// fakeHistory serves pages keyed by the anchor message id.
type fakeHistory struct {
	mu          sync.Mutex
	recent      schema.MessagePage
	recentErr   error
	pages       map[schema.MessageID]schema.MessagePage
	beforeHook  func()
	beforeCalls int
}

func (h *fakeHistory) RecentMessages(ctx context.Context, req RecentMessagesRequest) (schema.MessagePage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.recentErr != nil {
		return schema.MessagePage{}, h.recentErr
	}
	return h.recent, nil
}

func (h *fakeHistory) MessagesBefore(ctx context.Context, req MessagesBeforeRequest) (schema.MessagePage, error) {
	h.mu.Lock()
	h.beforeCalls++
	hook := h.beforeHook
	page, ok := h.pages[req.Before]
	h.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return schema.MessagePage{}, schema.ErrMessageNotFound
	}
	return page, nil
}

func (h *fakeHistory) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.beforeCalls
}

type fakeWorkspaces struct {
	mu       sync.Mutex
	title    string
	tabs     []WorkspaceTab
	document string
	fetchErr error
	saveErr  error
	saveHook func()
	saves    []string
	renames  []string
}

func (w *fakeWorkspaces) FetchWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) (WorkspaceInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fetchErr != nil {
		return WorkspaceInfo{}, w.fetchErr
	}
	tabs := w.tabs
	if tabs == nil {
		tabs = defaultTabs()
	}
	return WorkspaceInfo{Title: w.title, Tabs: tabs, DocumentHTML: w.document}, nil
}

func (w *fakeWorkspaces) RenameWorkspace(ctx context.Context, workspaceID schema.WorkspaceID, title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.renames = append(w.renames, title)
	return nil
}

func (w *fakeWorkspaces) SaveDocument(ctx context.Context, workspaceID schema.WorkspaceID, html string) error {
	w.mu.Lock()
	hook := w.saveHook
	err := w.saveErr
	w.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.saves = append(w.saves, html)
	w.mu.Unlock()
	return nil
}

func (w *fakeWorkspaces) savedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saves)
}

func (w *fakeWorkspaces) lastSaved() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.saves) == 0 {
		return ""
	}
	return w.saves[len(w.saves)-1]
}

func (w *fakeWorkspaces) setSaveErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saveErr = err
}

// fakeDiagramStore keeps entries in insertion order with deterministic
// timestamps so newest-first sorting is observable.
type fakeDiagramStore struct {
	mu          sync.Mutex
	nextID      int
	entries     map[schema.DiagramID]schema.Diagram
	order       []schema.DiagramID
	describe    schema.DiagramDescription
	describeErr error
	createErr   error
	base        time.Time
}

func newFakeDiagramStore() *fakeDiagramStore {
	return &fakeDiagramStore{
		entries: make(map[schema.DiagramID]schema.Diagram),
		base:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (d *fakeDiagramStore) CreateDiagram(ctx context.Context, rec DiagramRecord) (schema.Diagram, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.createErr != nil {
		return schema.Diagram{}, d.createErr
	}
	d.nextID++
	created := d.base.Add(time.Duration(d.nextID) * time.Minute)
	diagram := schema.Diagram{
		ID:             schema.DiagramID(fmt.Sprintf("diag-%d", d.nextID)),
		TabID:          rec.TabID,
		Type:           rec.Type,
		Config:         rec.Config,
		Scene:          rec.Scene,
		CreationMethod: rec.CreationMethod,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	d.entries[diagram.ID] = diagram
	d.order = append(d.order, diagram.ID)
	return diagram, nil
}

func (d *fakeDiagramStore) UpdateDiagram(ctx context.Context, rev DiagramRevision) (schema.Diagram, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	diagram, ok := d.entries[rev.DiagramID]
	if !ok {
		return schema.Diagram{}, schema.ErrDiagramNotFound
	}
	diagram.Scene = rev.Scene
	diagram.UpdatedAt = diagram.UpdatedAt.Add(time.Minute)
	d.entries[rev.DiagramID] = diagram
	return diagram, nil
}

func (d *fakeDiagramStore) ListDiagrams(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID) ([]schema.DiagramSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []schema.DiagramSummary
	for _, id := range d.order {
		diagram := d.entries[id]
		if diagram.TabID == tabID {
			out = append(out, diagram.Summary())
		}
	}
	return out, nil
}

func (d *fakeDiagramStore) GetDiagram(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID, diagramID schema.DiagramID) (schema.Diagram, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	diagram, ok := d.entries[diagramID]
	if !ok {
		return schema.Diagram{}, schema.ErrDiagramNotFound
	}
	return diagram, nil
}

func (d *fakeDiagramStore) DescribeDiagram(ctx context.Context, req DescribeDiagramRequest) (schema.DiagramDescription, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.describeErr != nil {
		return schema.DiagramDescription{}, d.describeErr
	}
	return d.describe, nil
}

func (d *fakeDiagramStore) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

type fakeUploader struct {
	mu       sync.Mutex
	uploads  []UploadRequest
	uploadID int
}

func (u *fakeUploader) Upload(ctx context.Context, req UploadRequest) (schema.Asset, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploads = append(u.uploads, req)
	u.uploadID++
	return schema.Asset{
		ID:      fmt.Sprintf("asset-%d", u.uploadID),
		URL:     fmt.Sprintf("https://assets.example/%d/%s", u.uploadID, req.Filename),
		Purpose: req.Purpose,
		Size:    int64(len(req.Data)),
	}, nil
}

// sinkRecorder captures everything the service emits.
type sinkRecorder struct {
	mu        sync.Mutex
	messages  []schema.MessageEvent
	deltas    []schema.MessageDeltaEvent
	tabs      []schema.TabEvent
	diagrams  []schema.DiagramEvent
	documents []schema.DocumentEvent
}

func (r *sinkRecorder) OnMessage(event schema.MessageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, event)
}

func (r *sinkRecorder) OnMessageDelta(event schema.MessageDeltaEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, event)
}

func (r *sinkRecorder) OnTabEvent(event schema.TabEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tabs = append(r.tabs, event)
}

func (r *sinkRecorder) OnDiagram(event schema.DiagramEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagrams = append(r.diagrams, event)
}

func (r *sinkRecorder) OnDocument(event schema.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, event)
}

func (r *sinkRecorder) deltaTexts(tabID schema.TabID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, event := range r.deltas {
		if event.TabID == tabID {
			out = append(out, event.Delta)
		}
	}
	return out
}

func (r *sinkRecorder) tabEventTypes(tabID schema.TabID) []schema.TabEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []schema.TabEventType
	for _, event := range r.tabs {
		if event.Tab.ID == tabID {
			out = append(out, event.Type)
		}
	}
	return out
}
