package core

import "github.com/medhika/skripsihub/schema"

// EventSink receives state change events from the core service.
type EventSink interface {
	OnMessage(event schema.MessageEvent)
	OnMessageDelta(event schema.MessageDeltaEvent)
	OnTabEvent(event schema.TabEvent)
	OnDiagram(event schema.DiagramEvent)
	OnDocument(event schema.DocumentEvent)
}
