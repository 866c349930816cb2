package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidWorkspace indicates an invalid workspace identifier.
	ErrInvalidWorkspace = errors.New("invalid workspace")
	// ErrWorkspaceNotFound indicates the workspace is not open in this service.
	ErrWorkspaceNotFound = errors.New("workspace not found")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrAlreadyStreaming indicates the tab already has a message in flight.
	ErrAlreadyStreaming = errors.New("tab is already streaming")
	// ErrEmptyMessage indicates the submitted message was empty.
	ErrEmptyMessage = errors.New("empty message")
	// ErrMessageNotFound indicates a pagination anchor no longer exists upstream.
	ErrMessageNotFound = errors.New("message not found")
	// ErrDiagramNotFound indicates a diagram id is unknown for the tab.
	ErrDiagramNotFound = errors.New("diagram not found")
	// ErrMissingDescription indicates diagram generation lacked a description.
	ErrMissingDescription = errors.New("diagram description is required")
	// ErrTransport indicates the chat backend could not be reached or dropped mid-stream.
	ErrTransport = errors.New("transport failure")
	// ErrSaveFailed indicates the document could not be persisted.
	ErrSaveFailed = errors.New("document save failed")
	// ErrNoDocument indicates the workspace has no document body loaded.
	ErrNoDocument = errors.New("no document loaded")
)
