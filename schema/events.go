package schema

// TabEventType identifies a tab lifecycle event.
type TabEventType string

const (
	// TabEventStatus signals a streaming status change.
	TabEventStatus TabEventType = "status"
	// TabEventActivated signals the foreground tab changed.
	TabEventActivated TabEventType = "activated"
)

// TabEvent reports a tab state change.
type TabEvent struct {
	WorkspaceID WorkspaceID  `json:"workspace_id"`
	Type        TabEventType `json:"type"`
	Tab         TabSnapshot  `json:"tab"`
	ActiveTab   TabID        `json:"active_tab"`
}

// MessageEvent reports a message committed to a tab window. This covers user
// messages, placeholder installs, and final assistant messages.
type MessageEvent struct {
	WorkspaceID WorkspaceID `json:"workspace_id"`
	TabID       TabID       `json:"tab_id"`
	Message     Message     `json:"message"`
	// Replaced is the placeholder id when this message swapped one out.
	Replaced MessageID `json:"replaced,omitempty"`
}

// MessageDeltaEvent reports one streamed token chunk appended to the
// placeholder message of a tab.
type MessageDeltaEvent struct {
	WorkspaceID WorkspaceID `json:"workspace_id"`
	TabID       TabID       `json:"tab_id"`
	MessageID   MessageID   `json:"message_id"`
	Delta       string      `json:"delta"`
	// Content is the accumulated text after applying the delta.
	Content string `json:"content"`
}

// DiagramEventType identifies a diagram store event.
type DiagramEventType string

const (
	// DiagramEventCreated signals a new history entry.
	DiagramEventCreated DiagramEventType = "created"
	// DiagramEventUpdated signals an in-place revision.
	DiagramEventUpdated DiagramEventType = "updated"
	// DiagramEventLoaded signals the canvas switched to another entry.
	DiagramEventLoaded DiagramEventType = "loaded"
)

// DiagramEvent reports a diagram store change.
type DiagramEvent struct {
	WorkspaceID WorkspaceID      `json:"workspace_id"`
	TabID       TabID            `json:"tab_id"`
	Type        DiagramEventType `json:"type"`
	Diagram     DiagramSummary   `json:"diagram"`
}

// DocumentEvent reports an autosave state change.
type DocumentEvent struct {
	WorkspaceID WorkspaceID    `json:"workspace_id"`
	Status      DocumentStatus `json:"status"`
}
