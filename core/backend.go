package core

import (
	"context"

	"github.com/medhika/skripsihub/schema"
)

// StreamChunk is one unit delivered by a chat stream. Delta carries streamed
// token text; Final carries the persisted assistant message once the backend
// commits it.
type StreamChunk struct {
	Delta string
	Final *schema.Message
}

// ChatStream yields streamed chunks until io.EOF.
type ChatStream interface {
	Next(ctx context.Context) (StreamChunk, error)
	Close() error
}

// StreamHandle represents one in-flight chat exchange.
type StreamHandle interface {
	// ID is the backend stream identifier used for stop requests.
	ID() string
	Events() ChatStream
	Close() error
}

// StreamMessageRequest starts a chat exchange on the backend.
type StreamMessageRequest struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	Kind        schema.TabKind
	Content     string
}

// StopStreamRequest asks the backend to finalize an in-flight stream.
type StopStreamRequest struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	StreamID    string
}

// ChatBackend is the streaming chat transport.
type ChatBackend interface {
	StreamMessage(ctx context.Context, req StreamMessageRequest) (StreamHandle, error)
	StopStream(ctx context.Context, req StopStreamRequest) error
}

// RecentMessagesRequest fetches the newest history page for a tab.
type RecentMessagesRequest struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	Limit       int
}

// MessagesBeforeRequest fetches the page older than the anchor message.
type MessagesBeforeRequest struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	Before      schema.MessageID
	Limit       int
}

// HistoryBackend serves persisted conversation history. MessagesBefore
// returns schema.ErrMessageNotFound when the anchor no longer exists.
type HistoryBackend interface {
	RecentMessages(ctx context.Context, req RecentMessagesRequest) (schema.MessagePage, error)
	MessagesBefore(ctx context.Context, req MessagesBeforeRequest) (schema.MessagePage, error)
}

// WorkspaceTab pairs a provisioned tab id with its kind.
type WorkspaceTab struct {
	ID   schema.TabID
	Kind schema.TabKind
}

// WorkspaceInfo is the backend's view of a workspace at open time.
type WorkspaceInfo struct {
	Title        string
	Tabs         []WorkspaceTab
	DocumentHTML string
}

// WorkspaceBackend serves workspace metadata and the persisted document.
type WorkspaceBackend interface {
	FetchWorkspace(ctx context.Context, workspaceID schema.WorkspaceID) (WorkspaceInfo, error)
	RenameWorkspace(ctx context.Context, workspaceID schema.WorkspaceID, title string) error
	SaveDocument(ctx context.Context, workspaceID schema.WorkspaceID, html string) error
}

// DiagramRecord is the payload for creating a diagram entry.
type DiagramRecord struct {
	WorkspaceID    schema.WorkspaceID
	TabID          schema.TabID
	Type           schema.DiagramType
	Config         schema.DiagramConfig
	Scene          schema.Scene
	CreationMethod schema.CreationMethod
}

// DiagramRevision is the payload for revising an entry in place.
type DiagramRevision struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	DiagramID   schema.DiagramID
	Scene       schema.Scene
}

// DescribeDiagramRequest asks the AI for a structured diagram description.
type DescribeDiagramRequest struct {
	WorkspaceID schema.WorkspaceID
	TabID       schema.TabID
	Type        schema.DiagramType
	Config      schema.DiagramConfig
}

// DiagramBackend persists diagram entries and produces AI descriptions.
type DiagramBackend interface {
	CreateDiagram(ctx context.Context, rec DiagramRecord) (schema.Diagram, error)
	UpdateDiagram(ctx context.Context, rev DiagramRevision) (schema.Diagram, error)
	ListDiagrams(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID) ([]schema.DiagramSummary, error)
	GetDiagram(ctx context.Context, workspaceID schema.WorkspaceID, tabID schema.TabID, diagramID schema.DiagramID) (schema.Diagram, error)
	DescribeDiagram(ctx context.Context, req DescribeDiagramRequest) (schema.DiagramDescription, error)
}

// UploadRequest proxies a binary upload to the platform.
type UploadRequest struct {
	WorkspaceID schema.WorkspaceID
	Filename    string
	Purpose     schema.AssetPurpose
	Data        []byte
}

// Uploader stores binary assets.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (schema.Asset, error)
}

// SceneConverter turns an AI description into a canvas scene.
type SceneConverter interface {
	Convert(desc schema.DiagramDescription, cfg schema.DiagramConfig) (schema.Scene, error)
}
