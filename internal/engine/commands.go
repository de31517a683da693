package engine

import (
	"encoding/json"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"

	"github.com/splinetool/splinetool/internal/selection"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op            string        `json:"op"`                    // "clear" or "path"
	ObjectID      string        `json:"objectId,omitempty"`    // For hit correlation
	Kind          NodeType      `json:"kind,omitempty"`        // What the path depicts
	Transform     []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path          []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill          string        `json:"fill,omitempty"`        // Fill color; "clear" uses it as background
	Stroke        string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth   float64       `json:"strokeWidth,omitempty"` // Stroke width
	FillOpacity   float64       `json:"fillOpacity"`
	StrokeOpacity float64       `json:"strokeOpacity"`
	Dash          []float64     `json:"dash,omitempty"`
	Width         float64       `json:"width,omitempty"`  // Frame size for "clear"
	Height        float64       `json:"height,omitempty"` // Frame size for "clear"
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// CompileDrawCommands generates a draw command buffer from a scene graph.
// Commands are in painter's order (back to front).
func CompileDrawCommands(sg *SceneGraph) []DrawCommand {
	if sg == nil {
		return nil
	}
	commands := []DrawCommand{{
		Op:          "clear",
		Fill:        sg.Background,
		FillOpacity: 1,
		Width:       sg.Width,
		Height:      sg.Height,
	}}
	for _, n := range sg.Nodes {
		commands = append(commands, DrawCommand{
			Op:            "path",
			ObjectID:      n.ID,
			Kind:          n.Type,
			Transform:     toSlice(n.Transform),
			Path:          pathCommands(n.Path),
			Fill:          n.Fill,
			Stroke:        n.Stroke,
			StrokeWidth:   n.StrokeWidth,
			FillOpacity:   n.FillOpacity,
			StrokeOpacity: n.StrokeOpacity,
			Dash:          n.Dash,
		})
	}
	return commands
}

func pathCommands(p *path.Data) []PathCommand {
	var out []PathCommand
	i := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			c := p.Coords[i]
			out = append(out, PathCommand{"M", c.X, c.Y})
			i++
		case path.CmdLineTo:
			c := p.Coords[i]
			out = append(out, PathCommand{"L", c.X, c.Y})
			i++
		case path.CmdQuadTo:
			c1, c := p.Coords[i], p.Coords[i+1]
			out = append(out, PathCommand{"Q", c1.X, c1.Y, c.X, c.Y})
			i += 2
		case path.CmdCubeTo:
			c1, c2, c := p.Coords[i], p.Coords[i+1], p.Coords[i+2]
			out = append(out, PathCommand{"C", c1.X, c1.Y, c2.X, c2.Y, c.X, c.Y})
			i += 3
		case path.CmdClose:
			out = append(out, PathCommand{"Z"})
		}
	}
	return out
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// GetSelectionBounds returns the combined bounding box of the given object IDs.
func GetSelectionBounds(sg *SceneGraph, objectIDs []string) rect.Rect {
	var result rect.Rect
	if sg == nil {
		return result
	}
	for _, id := range objectIDs {
		if node, ok := sg.NodesByID[id]; ok {
			result = union(result, node.Bounds)
		}
	}
	return result
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r rect.Rect) string {
	data, _ := json.Marshal(map[string]float64{
		"x":      r.LLx,
		"y":      r.LLy,
		"width":  r.URx - r.LLx,
		"height": r.URy - r.LLy,
	})
	return string(data)
}

// --- Frames ---

// SceneGraph builds the editor frame at the clock's current time.
func (e *Engine) SceneGraph() *SceneGraph {
	v := EditorView{
		Scene:     e.scene,
		Canvas:    e.canvas,
		Selection: e.sel,
		State:     e.clock.StateFor,
	}
	if box, ok := e.SelectionBox(); ok {
		v.Box = &box
	}
	return BuildSceneGraph(v)
}

// PreviewGraph builds the still image stored in scene files: the editor
// frame on white, without selection.
func (e *Engine) PreviewGraph() *SceneGraph {
	return BuildSceneGraph(EditorView{
		Scene:      e.scene,
		Canvas:     e.canvas,
		State:      e.clock.StateFor,
		Background: "#ffffff",
	})
}

// ExportFrames is the number of frames an export renders.
func (e *Engine) ExportFrames() int {
	return e.clock.Timeline().TotalFrames
}

// ExportGraph builds exported frame i at the output resolution.
func (e *Engine) ExportGraph(i int) *SceneGraph {
	return BuildExportGraph(e.scene, e.canvas, e.output, float64(i))
}

// Render evaluates the editor frame and returns draw commands as JSON.
func (e *Engine) Render() string {
	result, _ := DrawCommandsToJSON(CompileDrawCommands(e.SceneGraph()))
	return result
}

// GetSelectionBounds returns the bounding box of the current selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	var ids []string
	for _, it := range e.sel.Items() {
		ids = append(ids, it.ID)
	}
	if len(ids) == 0 {
		return RectToJSON(rect.Rect{})
	}
	return RectToJSON(GetSelectionBounds(e.SceneGraph(), ids))
}

var _ selection.Committer = (*Engine)(nil)
