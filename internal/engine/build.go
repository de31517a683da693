package engine

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/playback"
	"github.com/splinetool/splinetool/internal/selection"
)

const (
	colorSelected     = "#0095E8"
	colorMultiSelect  = "#FF8C00"
	colorSelectedLine = "#ff0000"

	arrowSize = 12
	// highlightPadding is added to an anchor's size for its selection box.
	highlightPadding = 15

	// kappa places cubic control points to approximate a quarter ellipse.
	kappa = 0.5522847498
)

// EditorView is everything the editor frame depends on.
type EditorView struct {
	Scene     *document.Scene
	Canvas    document.Canvas
	Selection selection.Selection
	// State evaluates an entity at the time being shown.
	State func(document.Entity) playback.State
	// Box is the rubber band selection, if one is being dragged.
	Box        *rect.Rect
	Background string
}

// BuildSceneGraph builds the editor frame: spline paths with direction
// arrows, anchors (ghosted while outside their time window) with selection
// highlights, the rubber band, and the moving shapes on top.
func BuildSceneGraph(v EditorView) *SceneGraph {
	sg := NewSceneGraph(v.Canvas.Width, v.Canvas.Height)
	sg.Background = v.Background
	sel := v.Selection

	for _, sp := range v.Scene.Splines {
		if len(sp.Points) < 2 {
			continue
		}
		highlighted := sel.Spline == sp.ID || fullySelected(sel, sp)
		line := &SceneNode{
			ID:            sp.ID,
			Type:          NodeSplinePath,
			Transform:     matrix.Identity,
			Path:          SplinePath(sp).Outline(),
			Stroke:        sp.LineColor,
			StrokeOpacity: 1,
			StrokeWidth:   2,
		}
		if highlighted {
			line.Stroke = colorSelectedLine
			line.StrokeWidth = 3
		}
		sg.add(line, true)
		for i := range sp.Points {
			sg.add(arrowNode(sp, i, sel), true)
		}
	}

	for _, a := range v.Scene.Anchors {
		st := v.State(a)
		shape := evaluateEntity(a, st)
		body := styledNode(a.ID, NodeAnchor, a.Style,
			translate(a.Pos.X, a.Pos.Y),
			a.Style.SizeX*shape.Multiplier, a.Style.SizeY*shape.Multiplier)
		if !st.Visible {
			body.FillOpacity = 60.0 / 255
			body.StrokeOpacity = 100.0 / 255
		}
		sg.add(body, true)

		multi := sel.Contains(selection.Anchor(a.ID))
		if sel.Anchor != a.ID && !multi {
			continue
		}
		hl := &SceneNode{
			ID:            a.ID,
			Type:          NodeHighlight,
			Transform:     translate(a.Pos.X, a.Pos.Y),
			Path:          rectOutline(a.Style.SizeX+highlightPadding, a.Style.SizeY+highlightPadding),
			Stroke:        colorSelected,
			StrokeOpacity: 1,
			StrokeWidth:   3,
		}
		if multi {
			hl.Stroke = colorMultiSelect
			hl.StrokeWidth = 2
		}
		if !st.Visible {
			hl.StrokeOpacity = 150.0 / 255
		}
		sg.add(hl, false)
	}

	if v.Box != nil {
		b := normalizeRect(*v.Box)
		sg.add(&SceneNode{
			Type:          NodeSelectionBox,
			Transform:     translate((b.LLx+b.URx)/2, (b.LLy+b.URy)/2),
			Path:          rectOutline(b.URx-b.LLx, b.URy-b.LLy),
			Fill:          "#0064ff",
			FillOpacity:   50.0 / 255,
			Stroke:        "#0064ff",
			StrokeOpacity: 200.0 / 255,
			StrokeWidth:   1.5,
			Dash:          []float64{6, 3},
		}, false)
	}

	for _, sp := range v.Scene.Splines {
		if len(sp.Points) < 2 {
			continue
		}
		st := v.State(sp)
		if !st.Visible {
			continue
		}
		shape := evaluateEntity(sp, st)
		sg.add(styledNode(sp.ID, NodeMovingShape, sp.Style,
			translate(shape.Pos.X, shape.Pos.Y),
			sp.Style.SizeX*shape.Multiplier, sp.Style.SizeY*shape.Multiplier), false)
	}
	return sg
}

// BuildExportGraph builds exported frame number frame of a scene drawn on
// canvas, scaled to the output size. Only shapes are drawn, on black.
func BuildExportGraph(s *document.Scene, canvas, out document.Canvas, frame float64) *SceneGraph {
	sg := NewSceneGraph(out.Width, out.Height)
	sg.Background = "#000000"
	sx, sy := out.Width/canvas.Width, out.Height/canvas.Height
	weight := (sx + sy) / 2

	place := func(obj document.Entity, nodeType NodeType) {
		st := playback.StateAtFrame(obj, frame)
		if !st.Visible {
			return
		}
		shape := evaluateEntity(obj, st)
		style := obj.EntityStyle()
		m := multiply(translate(shape.Pos.X*sx, shape.Pos.Y*sy), scaleMatrix(sx, sy))
		n := styledNode(obj.EntityID(), nodeType, *style, m,
			style.SizeX*shape.Multiplier, style.SizeY*shape.Multiplier)
		n.StrokeWidth = style.StrokeWeight * weight
		sg.add(n, false)
	}

	for _, a := range s.Anchors {
		place(a, NodeAnchor)
	}
	for _, sp := range s.Splines {
		if len(sp.Points) < 2 {
			continue
		}
		place(sp, NodeMovingShape)
	}
	return sg
}

func fullySelected(sel selection.Selection, sp *document.Spline) bool {
	if len(sp.Points) == 0 || len(sel.Multi) == 0 {
		return false
	}
	for _, p := range sp.Points {
		if !sel.Contains(selection.Point(p.ID)) {
			return false
		}
	}
	return true
}

func styledNode(id string, t NodeType, st document.Style, m matrix.Matrix, sx, sy float64) *SceneNode {
	return &SceneNode{
		ID:            id,
		Type:          t,
		Transform:     m,
		Path:          shapeOutline(st.ShapeType, sx, sy),
		Fill:          st.FillColor,
		Stroke:        st.StrokeColor,
		FillOpacity:   1,
		StrokeOpacity: 1,
		StrokeWidth:   st.StrokeWeight,
	}
}

// arrowNode draws the direction of travel at point i.
func arrowNode(sp *document.Spline, i int, sel selection.Selection) *SceneNode {
	p := sp.Points[i].Vec()
	geo := SplinePath(sp)
	var dir vec.Vec2
	switch last := len(sp.Points) - 1; i {
	case 0:
		dir = geo.PositionOnSegment(0, 0.01).Sub(p)
	case last:
		dir = p.Sub(geo.PositionOnSegment(last-1, 0.99))
	default:
		dir = sp.Points[i+1].Vec().Sub(sp.Points[i-1].Vec())
	}
	if dir.Length() == 0 {
		dir = vec.Vec2{X: 1}
	}

	id := sp.Points[i].ID
	n := &SceneNode{
		ID:            id,
		Type:          NodeArrow,
		Transform:     rotateTranslate(math.Atan2(dir.Y, dir.X), p.X, p.Y),
		Path:          arrowOutline(arrowSize),
		Fill:          "#0096ff",
		FillOpacity:   0.6,
		Stroke:        "#0064ff",
		StrokeOpacity: 1,
		StrokeWidth:   1.5,
	}
	switch {
	case sel.Contains(selection.Point(id)):
		n.Fill, n.Stroke, n.FillOpacity = colorMultiSelect, "#cc7000", 1
	case sel.Point == id:
		n.Fill, n.Stroke, n.FillOpacity = "#FF0000", "#cc0000", 1
	}
	return n
}

// shapeOutline returns a shape of size sx by sy centred on the origin. An
// unknown shape type has an empty outline.
func shapeOutline(t document.ShapeType, sx, sy float64) *path.Data {
	switch t {
	case document.ShapeSquare:
		return rectOutline(sx, sy)
	case document.ShapeCircle:
		return ellipseOutline(sx/2, sy/2)
	case document.ShapeTriangle:
		return (&path.Data{}).
			MoveTo(vec.Vec2{X: -sx / 2, Y: sy / 2}).
			LineTo(vec.Vec2{X: sx / 2, Y: sy / 2}).
			LineTo(vec.Vec2{X: 0, Y: -sy / 2}).
			Close()
	}
	return &path.Data{}
}

func rectOutline(w, h float64) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: -w / 2, Y: -h / 2}).
		LineTo(vec.Vec2{X: w / 2, Y: -h / 2}).
		LineTo(vec.Vec2{X: w / 2, Y: h / 2}).
		LineTo(vec.Vec2{X: -w / 2, Y: h / 2}).
		Close()
}

func ellipseOutline(rx, ry float64) *path.Data {
	kx, ky := rx*kappa, ry*kappa
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: 0, Y: -ry}).
		CubeTo(vec.Vec2{X: kx, Y: -ry}, vec.Vec2{X: rx, Y: -ky}, vec.Vec2{X: rx, Y: 0}).
		CubeTo(vec.Vec2{X: rx, Y: ky}, vec.Vec2{X: kx, Y: ry}, vec.Vec2{X: 0, Y: ry}).
		CubeTo(vec.Vec2{X: -kx, Y: ry}, vec.Vec2{X: -rx, Y: ky}, vec.Vec2{X: -rx, Y: 0}).
		CubeTo(vec.Vec2{X: -rx, Y: -ky}, vec.Vec2{X: -kx, Y: -ry}, vec.Vec2{X: 0, Y: -ry}).
		Close()
}

// arrowOutline is an arrow head pointing along +x.
func arrowOutline(size float64) *path.Data {
	return (&path.Data{}).
		MoveTo(vec.Vec2{X: size, Y: 0}).
		LineTo(vec.Vec2{X: -size * 0.6, Y: size * 0.5}).
		LineTo(vec.Vec2{X: -size * 0.3, Y: 0}).
		LineTo(vec.Vec2{X: -size * 0.6, Y: -size * 0.5}).
		Close()
}
