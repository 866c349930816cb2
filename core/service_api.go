package core

import (
	"context"

	"github.com/medhika/skripsihub/schema"
)

// Service is the transport-agnostic API for thesis workspace sessions.
type Service interface {
	OpenWorkspace(ctx context.Context, req schema.OpenWorkspaceRequest) (schema.OpenWorkspaceResponse, error)
	CloseWorkspace(ctx context.Context, req schema.CloseWorkspaceRequest) (schema.CloseWorkspaceResponse, error)
	RenameWorkspace(ctx context.Context, req schema.RenameWorkspaceRequest) (schema.RenameWorkspaceResponse, error)

	ListTabs(ctx context.Context, req schema.ListTabsRequest) (schema.ListTabsResponse, error)
	SwitchTab(ctx context.Context, req schema.SwitchTabRequest) (schema.SwitchTabResponse, error)
	GetActiveTab(ctx context.Context, req schema.GetActiveTabRequest) (schema.GetActiveTabResponse, error)

	GetMessages(ctx context.Context, req schema.GetMessagesRequest) (schema.GetMessagesResponse, error)
	LoadOlder(ctx context.Context, req schema.LoadOlderRequest) (schema.LoadOlderResponse, error)
	ResetMessages(ctx context.Context, req schema.ResetMessagesRequest) (schema.ResetMessagesResponse, error)

	SendMessage(ctx context.Context, req schema.SendMessageRequest) (schema.SendMessageResponse, error)
	StopStreaming(ctx context.Context, req schema.StopStreamingRequest) (schema.StopStreamingResponse, error)

	CreateDiagram(ctx context.Context, req schema.CreateDiagramRequest) (schema.CreateDiagramResponse, error)
	UpdateDiagram(ctx context.Context, req schema.UpdateDiagramRequest) (schema.UpdateDiagramResponse, error)
	DiagramHistory(ctx context.Context, req schema.DiagramHistoryRequest) (schema.DiagramHistoryResponse, error)
	DiagramDetail(ctx context.Context, req schema.DiagramDetailRequest) (schema.DiagramDetailResponse, error)
	LoadDiagram(ctx context.Context, req schema.LoadDiagramRequest) (schema.LoadDiagramResponse, error)
	GenerateDiagram(ctx context.Context, req schema.GenerateDiagramRequest) (schema.GenerateDiagramResponse, error)
	SaveCanvas(ctx context.Context, req schema.SaveCanvasRequest) (schema.SaveCanvasResponse, error)

	SetDocument(ctx context.Context, req schema.SetDocumentRequest) (schema.SetDocumentResponse, error)
	MarkDirty(ctx context.Context, req schema.MarkDirtyRequest) (schema.MarkDirtyResponse, error)
	SaveDocument(ctx context.Context, req schema.SaveDocumentRequest) (schema.SaveDocumentResponse, error)
	GetDocumentStatus(ctx context.Context, req schema.GetDocumentStatusRequest) (schema.GetDocumentStatusResponse, error)
	ExportDocument(ctx context.Context, req schema.ExportDocumentRequest) (schema.ExportDocumentResponse, error)

	UploadAsset(ctx context.Context, req schema.UploadAssetRequest) (schema.UploadAssetResponse, error)
}
