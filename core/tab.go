package core

import (
	"context"

	"github.com/medhika/skripsihub/schema"
)

// tabSession tracks the state of one provisioned tab.
type tabSession struct {
	ID     schema.TabID
	Kind   schema.TabKind
	Status schema.TabStatus
	window *messageWindow

	// placeholderID is the synthetic assistant message collecting streamed
	// tokens while a stream is in flight.
	placeholderID schema.MessageID
	stream        StreamHandle
	streamCancel  context.CancelFunc

	LoadedDiagram schema.DiagramID
}

// Snapshot returns a transport-friendly view of the tab.
func (t *tabSession) Snapshot(active bool) schema.TabSnapshot {
	return schema.TabSnapshot{
		ID:            t.ID,
		Kind:          t.Kind,
		Status:        t.Status,
		Active:        active,
		LoadedDiagram: t.LoadedDiagram,
	}
}
