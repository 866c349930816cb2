package scene

import (
	"fmt"
	"math"

	"github.com/medhika/skripsihub/schema"
)

const (
	nodeWidth  = 160.0
	nodeHeight = 64.0
	gapX       = 80.0
	gapY       = 72.0
	radius     = 260.0
)

// Converter lays out a structured diagram description into canvas elements.
type Converter struct{}

// NewConverter constructs the default layout converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert validates a description and produces a renderable scene. Nothing is
// returned on error, so a failed conversion never reaches storage.
func (c *Converter) Convert(description schema.DiagramDescription, cfg schema.DiagramConfig) (schema.Scene, error) {
	if len(description.Nodes) == 0 {
		return schema.Scene{}, fmt.Errorf("description has no nodes")
	}
	index := make(map[string]int, len(description.Nodes))
	for i, node := range description.Nodes {
		if node.ID == "" {
			return schema.Scene{}, fmt.Errorf("node %d has no id", i)
		}
		if _, dup := index[node.ID]; dup {
			return schema.Scene{}, fmt.Errorf("duplicate node id %q", node.ID)
		}
		index[node.ID] = i
	}
	for _, edge := range description.Edges {
		if _, ok := index[edge.From]; !ok {
			return schema.Scene{}, fmt.Errorf("edge references unknown node %q", edge.From)
		}
		if _, ok := index[edge.To]; !ok {
			return schema.Scene{}, fmt.Errorf("edge references unknown node %q", edge.To)
		}
	}

	var positions []position
	if description.Type == schema.DiagramMindMap {
		positions = radialLayout(description)
	} else {
		positions = layeredLayout(description, index)
	}
	if cfg.Orientation == "horizontal" {
		for i := range positions {
			positions[i].x, positions[i].y = positions[i].y, positions[i].x
		}
	}

	elements := make([]schema.SceneElement, 0, len(description.Nodes)+len(description.Edges))
	byID := make(map[string]position, len(positions))
	for i, node := range description.Nodes {
		pos := positions[i]
		byID[node.ID] = pos
		elements = append(elements, schema.SceneElement{
			ID:     node.ID,
			Type:   nodeShape(description.Type, node.Kind),
			Label:  node.Label,
			X:      pos.x,
			Y:      pos.y,
			Width:  nodeWidth,
			Height: nodeHeight,
		})
	}
	for i, edge := range description.Edges {
		from := byID[edge.From]
		to := byID[edge.To]
		elements = append(elements, schema.SceneElement{
			ID:       fmt.Sprintf("edge-%d", i),
			Type:     "arrow",
			Label:    edge.Label,
			X:        (from.x + to.x) / 2,
			Y:        (from.y + to.y) / 2,
			SourceID: edge.From,
			TargetID: edge.To,
		})
	}
	return schema.Scene{
		Elements: elements,
		Viewport: schema.Viewport{Zoom: 1},
	}, nil
}

type position struct {
	x float64
	y float64
}

// layeredLayout ranks nodes by longest path from a root and spreads each rank
// on its own row.
func layeredLayout(description schema.DiagramDescription, index map[string]int) []position {
	n := len(description.Nodes)
	rank := make([]int, n)
	incoming := make([]int, n)
	children := make([][]int, n)
	for _, edge := range description.Edges {
		from := index[edge.From]
		to := index[edge.To]
		if from == to {
			continue
		}
		children[from] = append(children[from], to)
		incoming[to]++
	}
	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if incoming[i] == 0 {
			queue = append(queue, i)
		}
	}
	// Cycles leave every node with an incoming edge; rank them all at zero.
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, child := range children[node] {
			if rank[node]+1 > rank[child] {
				rank[child] = rank[node] + 1
			}
			incoming[child]--
			if incoming[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	rows := make(map[int]int)
	positions := make([]position, n)
	for i := 0; i < n; i++ {
		col := rows[rank[i]]
		rows[rank[i]] = col + 1
		positions[i] = position{
			x: float64(col) * (nodeWidth + gapX),
			y: float64(rank[i]) * (nodeHeight + gapY),
		}
	}
	return positions
}

// radialLayout places the first node at the center and the rest on a circle.
func radialLayout(description schema.DiagramDescription) []position {
	n := len(description.Nodes)
	positions := make([]position, n)
	if n == 1 {
		return positions
	}
	step := 2 * math.Pi / float64(n-1)
	for i := 1; i < n; i++ {
		angle := step * float64(i-1)
		positions[i] = position{
			x: math.Round(radius * math.Cos(angle)),
			y: math.Round(radius * math.Sin(angle)),
		}
	}
	return positions
}

func nodeShape(diagramType schema.DiagramType, kind string) string {
	switch kind {
	case "decision":
		return "diamond"
	case "terminator":
		return "ellipse"
	}
	if diagramType == schema.DiagramMindMap || diagramType == schema.DiagramConceptMap {
		return "ellipse"
	}
	return "rectangle"
}
