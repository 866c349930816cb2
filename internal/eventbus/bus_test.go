package eventbus

import (
	"testing"
	"time"

	"github.com/medhika/skripsihub/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("thesis-1")
	defer cancel()

	event := schema.MessageEvent{
		WorkspaceID: "thesis-1",
		TabID:       "tab-r1",
		Message:     schema.Message{ID: "m1", TabID: "tab-r1", Sender: schema.SenderUser, Content: "hi"},
	}
	bus.OnMessage(event)

	select {
	case got := <-ch:
		if got.Type != EventMessage {
			t.Fatalf("expected message event, got %v", got.Type)
		}
		if got.Message.WorkspaceID != event.WorkspaceID || got.Message.Message.ID != "m1" {
			t.Fatalf("unexpected payload: %+v", got.Message)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishScopedToWorkspace(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("thesis-1")
	defer cancel()

	bus.OnDocument(schema.DocumentEvent{WorkspaceID: "thesis-2"})
	select {
	case got := <-ch:
		t.Fatalf("unexpected event for another workspace: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("thesis-1")
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
}

func TestPublishRacesUnsubscribe(t *testing.T) {
	bus := New(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			bus.OnDocument(schema.DocumentEvent{WorkspaceID: "thesis-1"})
		}
	}()
	// Closing channels while events are in flight must never panic.
	for i := 0; i < 200; i++ {
		_, cancel := bus.Subscribe("thesis-1")
		cancel()
	}
	<-done
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe("thesis-1")
	defer cancel()

	var sendCh chan Event
	bus.mu.Lock()
	for ch := range bus.subs["thesis-1"] {
		sendCh = ch
		break
	}
	bus.mu.Unlock()
	if sendCh == nil {
		t.Fatalf("expected subscriber channel")
	}
	sendCh <- Event{Type: EventTab}
	done := make(chan struct{})
	go func() {
		bus.OnTabEvent(schema.TabEvent{WorkspaceID: "thesis-1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}
