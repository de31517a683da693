package engine

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
)

// SceneGraph is the evaluated, render-ready state of the scene at one point
// in time. Nodes are in painter's order (back to front).
type SceneGraph struct {
	Width  float64
	Height float64
	// Background fills the frame before any node is drawn. Empty means
	// transparent.
	Background string

	Nodes     []*SceneNode
	NodesByID map[string]*SceneNode
}

// NodeType says what a node depicts.
type NodeType string

const (
	NodeSplinePath   NodeType = "splinePath"
	NodeArrow        NodeType = "arrow"
	NodeAnchor       NodeType = "anchor"
	NodeHighlight    NodeType = "highlight"
	NodeSelectionBox NodeType = "selectionBox"
	NodeMovingShape  NodeType = "movingShape"
)

// SceneNode is one filled and/or stroked path.
type SceneNode struct {
	// ID is the spline, point or anchor the node belongs to.
	ID   string
	Type NodeType

	// Transform maps Path coordinates to frame coordinates.
	Transform matrix.Matrix
	Path      *path.Data

	// Empty colours are not painted.
	Fill          string
	Stroke        string
	FillOpacity   float64
	StrokeOpacity float64
	StrokeWidth   float64
	Dash          []float64

	// Bounds is the node's box in frame coordinates, stroke included.
	Bounds rect.Rect
}

// NewSceneGraph creates an empty scene graph for a frame of the given size.
func NewSceneGraph(width, height float64) *SceneGraph {
	return &SceneGraph{
		Width:     width,
		Height:    height,
		NodesByID: make(map[string]*SceneNode),
	}
}

// add appends n and computes its bounds. A primary node is the one that
// represents its ID for bounds queries.
func (sg *SceneGraph) add(n *SceneNode, primary bool) {
	if n.Path == nil || len(n.Path.Cmds) == 0 {
		return
	}
	n.Bounds = inflate(pathBounds(n.Path, n.Transform), n.StrokeWidth/2)
	sg.Nodes = append(sg.Nodes, n)
	if primary && n.ID != "" {
		sg.NodesByID[n.ID] = n
	}
}

// NodesOfType returns the nodes of type t in painter's order.
func (sg *SceneGraph) NodesOfType(t NodeType) []*SceneNode {
	var out []*SceneNode
	for _, n := range sg.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}
