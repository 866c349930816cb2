package schema

// TabSnapshot is a read-only view of tab state for transports.
type TabSnapshot struct {
	ID     TabID     `json:"id"`
	Kind   TabKind   `json:"kind"`
	Status TabStatus `json:"status"`
	Active bool      `json:"active"`
	// LoadedDiagram is the diagram currently shown on the tab canvas, if any.
	LoadedDiagram DiagramID `json:"loaded_diagram,omitempty"`
}

// WorkspaceSnapshot is a read-only view of an open workspace.
type WorkspaceSnapshot struct {
	ID        WorkspaceID    `json:"id"`
	Title     string         `json:"title"`
	Tabs      []TabSnapshot  `json:"tabs"`
	ActiveTab TabID          `json:"active_tab"`
	Document  DocumentStatus `json:"document"`
}
