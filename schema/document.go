package schema

import "time"

// ExportFormat selects the document export encoding.
type ExportFormat string

const (
	// ExportHTML exports the document body as an HTML fragment.
	ExportHTML ExportFormat = "html"
	// ExportDOCX exports the document body as a Word archive.
	ExportDOCX ExportFormat = "docx"
)

// DocumentStatus reports the autosave state of a workspace document.
type DocumentStatus struct {
	Dirty       bool      `json:"dirty"`
	Saving      bool      `json:"saving"`
	LastSavedAt time.Time `json:"last_saved_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// AssetPurpose tags an upload with its intended use.
type AssetPurpose string

const (
	// AssetDocumentImage is an image embedded in the document body.
	AssetDocumentImage AssetPurpose = "document-image"
	// AssetDiagramFile is a file attached to a diagram scene.
	AssetDiagramFile AssetPurpose = "diagram-file"
)

// Asset describes an uploaded binary stored by the platform.
type Asset struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	Purpose   AssetPurpose `json:"purpose"`
	Size      int64        `json:"size"`
	MimeType  string       `json:"mime_type,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
