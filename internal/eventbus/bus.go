package eventbus

import (
	"context"
	"sync"

	"github.com/medhika/skripsihub/schema"
	"pkt.systems/pslog"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventMessage carries an installed or replaced message.
	EventMessage EventType = "message"
	// EventMessageDelta carries streamed token text.
	EventMessageDelta EventType = "message_delta"
	// EventTab carries tab status and activation updates.
	EventTab EventType = "tab"
	// EventDiagram carries diagram history updates.
	EventDiagram EventType = "diagram"
	// EventDocument carries autosave status updates.
	EventDocument EventType = "document"
)

// Event represents a client-facing event emitted by the core service.
type Event struct {
	Type     EventType
	Message  schema.MessageEvent
	Delta    schema.MessageDeltaEvent
	Tab      schema.TabEvent
	Diagram  schema.DiagramEvent
	Document schema.DocumentEvent
}

// Bus fanouts events to per-workspace subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.WorkspaceID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.WorkspaceID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the workspace and returns a channel + cancel.
func (b *Bus) Subscribe(workspaceID schema.WorkspaceID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	workspaceSubs := b.subs[workspaceID]
	if workspaceSubs == nil {
		workspaceSubs = make(map[chan Event]struct{})
		b.subs[workspaceID] = workspaceSubs
	}
	workspaceSubs[ch] = struct{}{}
	count := len(workspaceSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("workspace", workspaceID).Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		if subs := b.subs[workspaceID]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, workspaceID)
			}
		}
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.With("workspace", workspaceID).Debug("eventbus unsubscribe")
		}
	}
}

// OnMessage publishes a message event.
func (b *Bus) OnMessage(event schema.MessageEvent) {
	b.publish(event.WorkspaceID, Event{Type: EventMessage, Message: event})
}

// OnMessageDelta publishes a streamed token event.
func (b *Bus) OnMessageDelta(event schema.MessageDeltaEvent) {
	b.publish(event.WorkspaceID, Event{Type: EventMessageDelta, Delta: event})
}

// OnTabEvent publishes a tab event.
func (b *Bus) OnTabEvent(event schema.TabEvent) {
	b.publish(event.WorkspaceID, Event{Type: EventTab, Tab: event})
}

// OnDiagram publishes a diagram event.
func (b *Bus) OnDiagram(event schema.DiagramEvent) {
	b.publish(event.WorkspaceID, Event{Type: EventDiagram, Diagram: event})
}

// OnDocument publishes an autosave status event.
func (b *Bus) OnDocument(event schema.DocumentEvent) {
	b.publish(event.WorkspaceID, Event{Type: EventDocument, Document: event})
}

func (b *Bus) publish(workspaceID schema.WorkspaceID, event Event) {
	if b == nil {
		return
	}
	// Sends stay under the lock so an unsubscribe cannot close a channel
	// mid-send. The channels are buffered and the sends never block.
	b.mu.Lock()
	dropped := 0
	for sub := range b.subs[workspaceID] {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	b.mu.Unlock()
	if dropped > 0 && b.log != nil {
		b.log.With("workspace", workspaceID).Trace("eventbus dropped", "count", dropped)
	}
}
