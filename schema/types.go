package schema

import "strings"

// WorkspaceID identifies a thesis workspace.
type WorkspaceID string

// TabID identifies a tab session inside a workspace.
type TabID string

// MessageID identifies a chat message.
type MessageID string

// DiagramID identifies a stored diagram artifact.
type DiagramID string

// TabKind is the fixed role of a tab inside a workspace.
type TabKind string

const (
	// TabResearcher1 is the first general research chat tab.
	TabResearcher1 TabKind = "researcher-1"
	// TabResearcher2 is the second general research chat tab.
	TabResearcher2 TabKind = "researcher-2"
	// TabResearcher3 is the third general research chat tab.
	TabResearcher3 TabKind = "researcher-3"
	// TabParaphraser is the text rewriting tab.
	TabParaphraser TabKind = "paraphraser"
	// TabDiagramBuilder is the diagram generation tab.
	TabDiagramBuilder TabKind = "diagram-builder"
)

// TabKinds returns the fixed tab set in display order.
func TabKinds() []TabKind {
	return []TabKind{TabResearcher1, TabResearcher2, TabResearcher3, TabParaphraser, TabDiagramBuilder}
}

// ValidTabKind reports whether kind is one of the provisioned kinds.
func ValidTabKind(kind TabKind) bool {
	switch kind {
	case TabResearcher1, TabResearcher2, TabResearcher3, TabParaphraser, TabDiagramBuilder:
		return true
	}
	return false
}

// Sender identifies the author of a chat message.
type Sender string

const (
	// SenderUser marks a message written by the student.
	SenderUser Sender = "user"
	// SenderAssistant marks a message produced by the AI backend.
	SenderAssistant Sender = "assistant"
)

// TabStatus is the streaming lifecycle state of a tab.
type TabStatus string

const (
	// TabStatusIdle means no message is in flight.
	TabStatusIdle TabStatus = "idle"
	// TabStatusSending means a message was submitted and no tokens arrived yet.
	TabStatusSending TabStatus = "sending"
	// TabStatusTyping means assistant tokens are streaming in.
	TabStatusTyping TabStatus = "typing"
	// TabStatusStopping means a stop was requested and the stream is winding down.
	TabStatusStopping TabStatus = "stopping"
)

// Streaming reports whether the status allows no new sends.
func (s TabStatus) Streaming() bool {
	return s == TabStatusSending || s == TabStatusTyping || s == TabStatusStopping
}

// StreamingIDPrefix marks synthetic placeholder message ids minted client-side.
const StreamingIDPrefix = "streaming-"

// StreamingID reports whether id is a synthetic placeholder id.
func StreamingID(id MessageID) bool {
	return strings.HasPrefix(string(id), StreamingIDPrefix)
}
