package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/medhika/skripsihub/internal/logx"
	"github.com/medhika/skripsihub/schema"
)

// StreamEvent is sent to SSE clients.
type StreamEvent struct {
	Seq       uint64                    `json:"seq"`
	Type      string                    `json:"type"`
	Message   *schema.MessageEvent      `json:"message,omitempty"`
	Delta     *schema.MessageDeltaEvent `json:"delta,omitempty"`
	Tab       *schema.TabEvent          `json:"tab,omitempty"`
	Diagram   *schema.DiagramEvent      `json:"diagram,omitempty"`
	Document  *schema.DocumentEvent     `json:"document,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Hub broadcasts events per workspace and keeps a replay window so SSE
// clients can resume after a reconnect.
type Hub struct {
	mu          sync.Mutex
	workspaces  map[schema.WorkspaceID]*workspaceHub
	historySize int
}

// NewHub constructs a hub with the given history size.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1000
	}
	return &Hub{
		workspaces:  make(map[schema.WorkspaceID]*workspaceHub),
		historySize: historySize,
	}
}

// OnMessage implements core.EventSink.
func (h *Hub) OnMessage(event schema.MessageEvent) {
	log := logx.WithWorkspaceTab(context.Background(), event.WorkspaceID, event.TabID)
	log.Trace("hub message event", "message", event.Message.ID, "replaced", event.Replaced)
	e := event
	h.publish(event.WorkspaceID, StreamEvent{
		Type:      "message",
		Message:   &e,
		Timestamp: time.Now(),
	})
}

// OnMessageDelta implements core.EventSink.
func (h *Hub) OnMessageDelta(event schema.MessageDeltaEvent) {
	e := event
	h.publish(event.WorkspaceID, StreamEvent{
		Type:      "message_delta",
		Delta:     &e,
		Timestamp: time.Now(),
	})
}

// OnTabEvent implements core.EventSink.
func (h *Hub) OnTabEvent(event schema.TabEvent) {
	log := logx.WithWorkspace(context.Background(), event.WorkspaceID)
	log.Trace("hub tab event", "type", event.Type, "tab", event.Tab.ID, "status", event.Tab.Status)
	e := event
	h.publish(event.WorkspaceID, StreamEvent{
		Type:      "tab",
		Tab:       &e,
		Timestamp: time.Now(),
	})
}

// OnDiagram implements core.EventSink.
func (h *Hub) OnDiagram(event schema.DiagramEvent) {
	log := logx.WithWorkspaceTab(context.Background(), event.WorkspaceID, event.TabID)
	log.Trace("hub diagram event", "type", event.Type, "diagram", event.Diagram.ID)
	e := event
	h.publish(event.WorkspaceID, StreamEvent{
		Type:      "diagram",
		Diagram:   &e,
		Timestamp: time.Now(),
	})
}

// OnDocument implements core.EventSink.
func (h *Hub) OnDocument(event schema.DocumentEvent) {
	e := event
	h.publish(event.WorkspaceID, StreamEvent{
		Type:      "document",
		Document:  &e,
		Timestamp: time.Now(),
	})
}

// Subscribe registers a subscriber for a workspace.
func (h *Hub) Subscribe(workspaceID schema.WorkspaceID) (<-chan StreamEvent, func(), uint64, []StreamEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	wh := h.getOrCreateWorkspaceHubLocked(workspaceID)
	ch := make(chan StreamEvent, 256)
	wh.subs[ch] = struct{}{}
	history := append([]StreamEvent(nil), wh.history...)
	seq := wh.seq
	log := logx.WithWorkspace(context.Background(), workspaceID)
	log.Info("hub subscribe", "subs", len(wh.subs), "history", len(history))
	unsub := func() {
		h.mu.Lock()
		delete(wh.subs, ch)
		close(ch)
		remaining := len(wh.subs)
		h.mu.Unlock()
		log.Info("hub unsubscribe", "subs", remaining)
	}
	return ch, unsub, seq, history
}

// Replay returns events after the provided seq.
func (h *Hub) Replay(workspaceID schema.WorkspaceID, after uint64) []StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	wh := h.workspaces[workspaceID]
	if wh == nil {
		return nil
	}
	events := make([]StreamEvent, 0, len(wh.history))
	for _, event := range wh.history {
		if event.Seq > after {
			events = append(events, event)
		}
	}
	logx.WithWorkspace(context.Background(), workspaceID).Debug("hub replay", "after", after, "count", len(events))
	return events
}

func (h *Hub) publish(workspaceID schema.WorkspaceID, event StreamEvent) {
	h.mu.Lock()
	wh := h.getOrCreateWorkspaceHubLocked(workspaceID)
	wh.seq++
	event.Seq = wh.seq
	wh.history = append(wh.history, event)
	if len(wh.history) > h.historySize {
		wh.history = wh.history[len(wh.history)-h.historySize:]
	}
	// Sends stay under the lock so an unsubscribe cannot close a channel
	// mid-send. The channels are buffered and the sends never block.
	dropped := 0
	for sub := range wh.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	h.mu.Unlock()
	if dropped > 0 {
		logx.WithWorkspace(context.Background(), workspaceID).Warn("hub event dropped", "type", event.Type, "dropped", dropped)
	}
}

func (h *Hub) getOrCreateWorkspaceHubLocked(workspaceID schema.WorkspaceID) *workspaceHub {
	wh := h.workspaces[workspaceID]
	if wh == nil {
		wh = &workspaceHub{
			subs: make(map[chan StreamEvent]struct{}),
		}
		h.workspaces[workspaceID] = wh
	}
	return wh
}

type workspaceHub struct {
	seq     uint64
	history []StreamEvent
	subs    map[chan StreamEvent]struct{}
}
