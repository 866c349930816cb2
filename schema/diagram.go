package schema

import "time"

// DiagramType identifies the kind of diagram stored for a tab.
type DiagramType string

const (
	// DiagramFlowchart is a standard flowchart.
	DiagramFlowchart DiagramType = "flowchart"
	// DiagramConceptMap is a concept map.
	DiagramConceptMap DiagramType = "concept-map"
	// DiagramMindMap is a mind map.
	DiagramMindMap DiagramType = "mind-map"
)

// CreationMethod records how a diagram entry came to exist.
type CreationMethod string

const (
	// CreatedByAI marks an entry committed from a successful generation.
	CreatedByAI CreationMethod = "ai_generated"
	// CreatedManually marks an entry saved directly from the canvas.
	CreatedManually CreationMethod = "manual"
)

// DiagramConfig captures the generation parameters for a diagram.
type DiagramConfig struct {
	DetailLevel string `json:"detail_level,omitempty"`
	Orientation string `json:"orientation,omitempty"`
	LayoutStyle string `json:"layout_style,omitempty"`
	Description string `json:"description,omitempty"`
}

// SceneElement is a node or connector in the canvas scene graph.
type SceneElement struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Label    string  `json:"label,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	SourceID string  `json:"source_id,omitempty"`
	TargetID string  `json:"target_id,omitempty"`
}

// Viewport positions the canvas camera.
type Viewport struct {
	ScrollX float64 `json:"scroll_x"`
	ScrollY float64 `json:"scroll_y"`
	Zoom    float64 `json:"zoom"`
}

// Scene is the full serialized canvas state.
type Scene struct {
	Elements []SceneElement    `json:"elements"`
	Files    map[string]string `json:"files,omitempty"`
	Viewport Viewport          `json:"viewport"`
}

// Diagram is one immutable-by-append entry in a tab's diagram history.
type Diagram struct {
	ID             DiagramID      `json:"id"`
	TabID          TabID          `json:"tab_id"`
	Type           DiagramType    `json:"type"`
	Config         DiagramConfig  `json:"config"`
	Scene          Scene          `json:"scene"`
	CreationMethod CreationMethod `json:"creation_method"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// DiagramSummary is a history listing entry without the heavy scene payload.
type DiagramSummary struct {
	ID             DiagramID      `json:"id"`
	TabID          TabID          `json:"tab_id"`
	Type           DiagramType    `json:"type"`
	Config         DiagramConfig  `json:"config"`
	CreationMethod CreationMethod `json:"creation_method"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Summary strips the scene from a diagram.
func (d Diagram) Summary() DiagramSummary {
	return DiagramSummary{
		ID:             d.ID,
		TabID:          d.TabID,
		Type:           d.Type,
		Config:         d.Config,
		CreationMethod: d.CreationMethod,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DescriptionNode is one typed node in the intermediate AI description.
type DescriptionNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind,omitempty"`
}

// DescriptionEdge links two description nodes.
type DescriptionEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// DiagramDescription is the structured intermediate output of diagram
// generation. It is converted into a Scene before anything is stored.
type DiagramDescription struct {
	Type  DiagramType       `json:"type"`
	Nodes []DescriptionNode `json:"nodes"`
	Edges []DescriptionEdge `json:"edges"`
}
