package schema

// Workspace lifecycle.

// OpenWorkspaceRequest describes a request to open a workspace.
type OpenWorkspaceRequest struct {
	WorkspaceID WorkspaceID
}

// OpenWorkspaceResponse reports the opened workspace snapshot.
type OpenWorkspaceResponse struct {
	Workspace WorkspaceSnapshot
}

// CloseWorkspaceRequest describes a request to close a workspace.
type CloseWorkspaceRequest struct {
	WorkspaceID WorkspaceID
}

// CloseWorkspaceResponse reports completion of the close.
type CloseWorkspaceResponse struct{}

// RenameWorkspaceRequest describes a title edit.
type RenameWorkspaceRequest struct {
	WorkspaceID WorkspaceID
	Title       string
}

// RenameWorkspaceResponse reports the updated workspace snapshot.
type RenameWorkspaceResponse struct {
	Workspace WorkspaceSnapshot
}

// Tabs.

// ListTabsRequest describes a request to list tabs.
type ListTabsRequest struct {
	WorkspaceID WorkspaceID
}

// ListTabsResponse reports tabs and the foregrounded tab.
type ListTabsResponse struct {
	Tabs      []TabSnapshot
	ActiveTab TabID
}

// SwitchTabRequest describes a request to foreground a tab.
type SwitchTabRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
}

// SwitchTabResponse reports the foregrounded tab snapshot.
type SwitchTabResponse struct {
	Tab TabSnapshot
}

// GetActiveTabRequest describes a request for the foregrounded tab.
type GetActiveTabRequest struct {
	WorkspaceID WorkspaceID
}

// GetActiveTabResponse reports the foregrounded tab snapshot.
type GetActiveTabResponse struct {
	Tab TabSnapshot
}

// Messages.

// GetMessagesRequest describes a request for a tab's cached window.
type GetMessagesRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
}

// GetMessagesResponse reports the cached window snapshot.
type GetMessagesResponse struct {
	Window MessageWindowSnapshot
}

// LoadOlderRequest describes a request to page older history into the window.
type LoadOlderRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	// Before anchors the page at the oldest cached message id.
	Before MessageID
	Limit  int
}

// LoadOlderResponse reports the window after the prepend.
type LoadOlderResponse struct {
	Window MessageWindowSnapshot
	Added  int
}

// ResetMessagesRequest describes a request to drop the window and refetch.
type ResetMessagesRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
}

// ResetMessagesResponse reports the reloaded window snapshot.
type ResetMessagesResponse struct {
	Window MessageWindowSnapshot
}

// Chat.

// SendMessageRequest describes a chat message submission.
type SendMessageRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	Content     string
}

// SendMessageResponse reports acceptance and the installed messages.
type SendMessageResponse struct {
	Tab         TabSnapshot
	UserMessage Message
	// PlaceholderID is the synthetic assistant message id that will collect
	// streamed tokens.
	PlaceholderID MessageID
	Accepted      bool
}

// StopStreamingRequest describes a request to stop an in-flight stream.
type StopStreamingRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
}

// StopStreamingResponse reports the tab snapshot after the stop request.
type StopStreamingResponse struct {
	Tab TabSnapshot
}

// Diagrams.

// CreateDiagramRequest describes an append to a tab's diagram history.
type CreateDiagramRequest struct {
	WorkspaceID    WorkspaceID
	TabID          TabID
	Type           DiagramType
	Config         DiagramConfig
	Scene          Scene
	CreationMethod CreationMethod
}

// CreateDiagramResponse reports the stored entry.
type CreateDiagramResponse struct {
	Diagram Diagram
}

// UpdateDiagramRequest describes an in-place scene revision.
type UpdateDiagramRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	DiagramID   DiagramID
	Scene       Scene
}

// UpdateDiagramResponse reports the revised entry.
type UpdateDiagramResponse struct {
	Diagram Diagram
}

// DiagramHistoryRequest describes a request for a tab's history listing.
type DiagramHistoryRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
}

// DiagramHistoryResponse reports history entries, newest first.
type DiagramHistoryResponse struct {
	Entries []DiagramSummary
}

// DiagramDetailRequest describes a request for one entry with its scene.
type DiagramDetailRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	DiagramID   DiagramID
}

// DiagramDetailResponse reports the full entry.
type DiagramDetailResponse struct {
	Diagram Diagram
}

// LoadDiagramRequest describes a request to show an entry on the canvas.
type LoadDiagramRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	DiagramID   DiagramID
}

// LoadDiagramResponse reports the loaded entry.
type LoadDiagramResponse struct {
	Diagram Diagram
}

// GenerateDiagramRequest describes an AI diagram generation.
type GenerateDiagramRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	Type        DiagramType
	Config      DiagramConfig
}

// GenerateDiagramResponse reports the committed entry.
type GenerateDiagramResponse struct {
	Diagram Diagram
}

// SaveCanvasRequest describes a manual canvas save.
type SaveCanvasRequest struct {
	WorkspaceID WorkspaceID
	TabID       TabID
	Scene       Scene
}

// SaveCanvasResponse reports the entry written and whether it was created.
type SaveCanvasResponse struct {
	Diagram Diagram
	Created bool
}

// Document.

// SetDocumentRequest replaces the in-memory document body.
type SetDocumentRequest struct {
	WorkspaceID WorkspaceID
	HTML        string
}

// SetDocumentResponse reports the autosave status after the edit.
type SetDocumentResponse struct {
	Status DocumentStatus
}

// MarkDirtyRequest flags the document as having unsaved edits.
type MarkDirtyRequest struct {
	WorkspaceID WorkspaceID
}

// MarkDirtyResponse reports the autosave status.
type MarkDirtyResponse struct {
	Status DocumentStatus
}

// SaveDocumentRequest describes a manual save.
type SaveDocumentRequest struct {
	WorkspaceID WorkspaceID
}

// SaveDocumentResponse reports the autosave status after the attempt.
type SaveDocumentResponse struct {
	Status DocumentStatus
}

// GetDocumentStatusRequest describes a request for autosave state.
type GetDocumentStatusRequest struct {
	WorkspaceID WorkspaceID
}

// GetDocumentStatusResponse reports the autosave status.
type GetDocumentStatusResponse struct {
	Status DocumentStatus
}

// ExportDocumentRequest describes an export of the live document tree.
type ExportDocumentRequest struct {
	WorkspaceID WorkspaceID
	Format      ExportFormat
}

// ExportDocumentResponse carries the rendered export.
type ExportDocumentResponse struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Uploads.

// UploadAssetRequest proxies a binary upload to the platform.
type UploadAssetRequest struct {
	WorkspaceID WorkspaceID
	Filename    string
	Purpose     AssetPurpose
	Data        []byte
}

// UploadAssetResponse reports the stored asset.
type UploadAssetResponse struct {
	Asset Asset
}
