package engine

import (
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/geometry"
	"github.com/splinetool/splinetool/internal/selection"
	"github.com/splinetool/splinetool/internal/typeid"
)

const (
	// cloneOffset is how far a clone is moved from its original.
	cloneOffset = 20
	// insertTolerance is how close to a path a double click must land to
	// insert a point.
	insertTolerance = 20
	// lengthSteps is the per segment sampling used to find the longest
	// segment when adding a point.
	lengthSteps = 20
)

// SplinePath returns the geometry of sp.
func SplinePath(sp *document.Spline) geometry.Path {
	return geometry.Path{Points: sp.Vecs(), Tension: sp.Tension}
}

// --- Selection ---

// SelectSpline makes the spline the single selection. A selected point is
// kept only if it belongs to the spline.
func (e *Engine) SelectSpline(id string) bool {
	if _, ok := e.scene.Spline(id); !ok {
		return false
	}
	e.selectSpline(id)
	return true
}

// SelectPoint selects a spline point together with its spline.
func (e *Engine) SelectPoint(pointID string) bool {
	sp, _, ok := e.scene.SplineOfPoint(pointID)
	if !ok {
		return false
	}
	e.sel.Point = pointID
	e.selectSpline(sp.ID)
	return true
}

// SelectAnchor makes the anchor the single selection.
func (e *Engine) SelectAnchor(id string) bool {
	if _, ok := e.scene.Anchor(id); !ok {
		return false
	}
	e.selectAnchor(id)
	return true
}

func (e *Engine) ClearSelection() {
	e.sel.Clear()
}

func (e *Engine) selectSpline(id string) {
	if e.sel.Point != "" {
		if sp, _, ok := e.scene.SplineOfPoint(e.sel.Point); !ok || sp.ID != id {
			e.sel.Point = ""
		}
	}
	e.sel.Spline = id
	e.sel.Anchor = ""
	e.sel.Multi = nil
}

func (e *Engine) selectAnchor(id string) {
	e.sel = selection.Selection{Anchor: id}
}

// ToggleItem adds an item to the multi-selection or removes it. The single
// selection is folded into the multi-selection first. Toggling a spline
// toggles all of its points.
func (e *Engine) ToggleItem(it selection.Item) {
	e.foldSingleIntoMulti()
	if it.Kind == selection.KindSpline {
		if sp, ok := e.scene.Spline(it.ID); ok {
			e.sel.ToggleSpline(sp)
		}
		return
	}
	e.sel.Toggle(it)
}

func (e *Engine) foldSingleIntoMulti() {
	add := func(it selection.Item) {
		if !e.sel.Contains(it) {
			e.sel.Multi = append(e.sel.Multi, it)
		}
	}
	if e.sel.Anchor != "" {
		add(selection.Anchor(e.sel.Anchor))
	}
	if sp, ok := e.scene.Spline(e.sel.Spline); ok && e.sel.Spline != "" {
		if e.sel.Point != "" {
			add(selection.Point(e.sel.Point))
		} else {
			for _, p := range sp.Points {
				add(selection.Point(p.ID))
			}
		}
	}
	e.sel.ClearSingle()
}

// SelectBox replaces the multi-selection with every anchor and spline point
// strictly inside r.
func (e *Engine) SelectBox(r rect.Rect) {
	r = normalizeRect(r)
	inside := func(v vec.Vec2) bool {
		return v.X > r.LLx && v.X < r.URx && v.Y > r.LLy && v.Y < r.URy
	}
	e.sel.Multi = nil
	for _, a := range e.scene.Anchors {
		if inside(a.Pos) {
			e.sel.Multi = append(e.sel.Multi, selection.Anchor(a.ID))
		}
	}
	for _, sp := range e.scene.Splines {
		for _, p := range sp.Points {
			if inside(p.Vec()) {
				e.sel.Multi = append(e.sel.Multi, selection.Point(p.ID))
			}
		}
	}
}

// --- Editing ---

// AddSpline adds a two point spline across the middle of the canvas and
// selects it. Successive splines are staggered vertically.
func (e *Engine) AddSpline() string {
	w, h := e.canvas.Width, e.canvas.Height
	y := h/2 - 50 + float64(len(e.scene.Splines)%10)*20
	sp := document.NewSpline(typeid.NewSplineID(),
		document.Point{ID: typeid.NewPointID(), X: w * 0.25, Y: y},
		document.Point{ID: typeid.NewPointID(), X: w * 0.75, Y: y},
		e.scene.Timeline.TotalFrames, e.scene.NextColor())
	e.scene.Splines = append(e.scene.Splines, sp)
	e.selectSpline(sp.ID)
	e.Commit()
	return sp.ID
}

// AddAnchor adds an anchor near the canvas centre and selects it.
func (e *Engine) AddAnchor() string {
	off := float64(len(e.scene.Anchors)%5) * 20
	pos := vec.Vec2{X: e.canvas.Width/2 + off, Y: e.canvas.Height/2 + off}
	a := document.NewAnchor(typeid.NewAnchorID(), pos, e.scene.Timeline.TotalFrames)
	e.scene.Anchors = append(e.scene.Anchors, a)
	e.selectAnchor(a.ID)
	e.Commit()
	return a.ID
}

// CloneSelection duplicates the selected entities, offset by (20,20). A
// multi-selected point clones its whole spline. The clones become the new
// selection.
func (e *Engine) CloneSelection() bool {
	switch {
	case len(e.sel.Multi) > 0:
		var (
			splines []*document.Spline
			anchors []*document.Anchor
			seen    = make(map[string]bool)
		)
		for _, it := range e.sel.Multi {
			switch o := selection.OwnerOf(e.scene, it).(type) {
			case *document.Anchor:
				anchors = append(anchors, o)
			case *document.Spline:
				if !seen[o.ID] {
					seen[o.ID] = true
					splines = append(splines, o)
				}
			}
		}
		if len(splines) == 0 && len(anchors) == 0 {
			return false
		}
		var multi []selection.Item
		for _, sp := range splines {
			c := e.cloneSpline(sp)
			e.scene.Splines = append(e.scene.Splines, c)
			for _, p := range c.Points {
				multi = append(multi, selection.Point(p.ID))
			}
		}
		for _, a := range anchors {
			c := cloneAnchor(a)
			e.scene.Anchors = append(e.scene.Anchors, c)
			multi = append(multi, selection.Anchor(c.ID))
		}
		e.sel.Multi = multi
	case e.sel.Spline != "":
		sp, ok := e.scene.Spline(e.sel.Spline)
		if !ok {
			return false
		}
		c := e.cloneSpline(sp)
		e.scene.Splines = append(e.scene.Splines, c)
		e.selectSpline(c.ID)
	case e.sel.Anchor != "":
		a, ok := e.scene.Anchor(e.sel.Anchor)
		if !ok {
			return false
		}
		c := cloneAnchor(a)
		e.scene.Anchors = append(e.scene.Anchors, c)
		e.selectAnchor(c.ID)
	default:
		return false
	}
	e.Commit()
	return true
}

func (e *Engine) cloneSpline(sp *document.Spline) *document.Spline {
	c := sp.Clone()
	c.ID = typeid.NewSplineID()
	for i := range c.Points {
		c.Points[i].ID = typeid.NewPointID()
		c.Points[i].X += cloneOffset
		c.Points[i].Y += cloneOffset
	}
	c.LineColor = e.scene.NextColor()
	return c
}

func cloneAnchor(a *document.Anchor) *document.Anchor {
	c := a.Clone()
	c.ID = typeid.NewAnchorID()
	c.Pos = c.Pos.Add(vec.Vec2{X: cloneOffset, Y: cloneOffset})
	return c
}

// RemoveSelection deletes what is selected. Removing points that would
// leave a spline with fewer than two removes the whole spline.
func (e *Engine) RemoveSelection() bool {
	changed := false
	switch {
	case len(e.sel.Multi) > 0:
		points := make(map[string]bool)
		for _, it := range e.sel.Multi {
			switch it.Kind {
			case selection.KindAnchor:
				if e.scene.RemoveAnchor(it.ID) {
					changed = true
				}
			case selection.KindPoint:
				points[it.ID] = true
			}
		}
		if e.removePoints(points) {
			changed = true
		}
		e.sel.Multi = nil
	case e.sel.Anchor != "":
		changed = e.scene.RemoveAnchor(e.sel.Anchor)
	case e.sel.Point != "" && e.sel.Spline != "":
		sp, ok := e.scene.Spline(e.sel.Spline)
		if !ok {
			break
		}
		switch i := sp.PointIndex(e.sel.Point); {
		case i < 0:
		case len(sp.Points) > 2:
			sp.Points = append(sp.Points[:i], sp.Points[i+1:]...)
			changed = true
		default:
			changed = e.scene.RemoveSpline(sp.ID)
		}
	case e.sel.Spline != "":
		changed = e.scene.RemoveSpline(e.sel.Spline)
	}
	if !changed {
		return false
	}
	e.sel.Clear()
	e.Commit()
	return true
}

// removePoints deletes the given points, dropping any spline that would be
// left with fewer than two.
func (e *Engine) removePoints(ids map[string]bool) bool {
	if len(ids) == 0 {
		return false
	}
	changed := false
	kept := e.scene.Splines[:0]
	for _, sp := range e.scene.Splines {
		n := 0
		for _, p := range sp.Points {
			if ids[p.ID] {
				n++
			}
		}
		switch {
		case n == 0:
			kept = append(kept, sp)
		case len(sp.Points)-n < 2:
			changed = true
		default:
			pts := sp.Points[:0]
			for _, p := range sp.Points {
				if !ids[p.ID] {
					pts = append(pts, p)
				}
			}
			sp.Points = pts
			kept = append(kept, sp)
			changed = true
		}
	}
	clear(e.scene.Splines[len(kept):])
	e.scene.Splines = kept
	return changed
}

// DeleteSelectedSpline removes the selected spline and selects the last
// remaining spline or anchor. With a multi-selection it behaves like
// RemoveSelection.
func (e *Engine) DeleteSelectedSpline() bool {
	if len(e.sel.Multi) > 0 {
		return e.RemoveSelection()
	}
	if e.sel.Spline == "" || !e.scene.RemoveSpline(e.sel.Spline) {
		return false
	}
	e.sel.Clear()
	if n := len(e.scene.Splines); n > 0 {
		e.selectSpline(e.scene.Splines[n-1].ID)
	} else if n := len(e.scene.Anchors); n > 0 {
		e.selectAnchor(e.scene.Anchors[n-1].ID)
	}
	e.Commit()
	return true
}

// AddPointToSelection inserts a point at the middle of the longest segment
// of every selected spline. New points join the multi-selection if there is
// one. Returns the number of points added.
func (e *Engine) AddPointToSelection() int {
	var targets []*document.Spline
	if len(e.sel.Multi) > 0 {
		for _, o := range selection.Owners(e.scene, e.sel.Multi) {
			if sp, ok := o.(*document.Spline); ok {
				targets = append(targets, sp)
			}
		}
	} else if sp, ok := e.scene.Spline(e.sel.Spline); ok && e.sel.Spline != "" {
		targets = append(targets, sp)
	}

	added := 0
	for _, sp := range targets {
		path := SplinePath(sp)
		i := path.LongestSegment(lengthSteps)
		if i < 0 {
			continue
		}
		mid := path.PositionOnSegment(i, 0.5)
		p := document.Point{ID: typeid.NewPointID(), X: mid.X, Y: mid.Y}
		sp.Points = insertPoint(sp.Points, i+1, p)
		if len(e.sel.Multi) > 0 {
			e.sel.Multi = append(e.sel.Multi, selection.Point(p.ID))
		}
		added++
	}
	if added > 0 {
		e.Commit()
	}
	return added
}

// InsertPointAt inserts a point on the spline nearest to pos, if pos is
// within reach of one, and selects it.
func (e *Engine) InsertPointAt(pos vec.Vec2) (string, bool) {
	var (
		target *document.Spline
		best   = geometry.Nearest{SegmentIndex: -1}
	)
	for _, sp := range e.scene.Splines {
		if len(sp.Points) < 2 {
			continue
		}
		n := SplinePath(sp).ClosestPoint(pos)
		if target == nil || n.Distance < best.Distance {
			target, best = sp, n
		}
	}
	if target == nil || best.SegmentIndex < 0 || best.Distance >= insertTolerance {
		return "", false
	}
	p := document.Point{ID: typeid.NewPointID(), X: best.Point.X, Y: best.Point.Y}
	target.Points = insertPoint(target.Points, best.SegmentIndex+1, p)
	e.sel.Point = p.ID
	e.selectSpline(target.ID)
	e.Commit()
	return p.ID, true
}

func insertPoint(pts []document.Point, i int, p document.Point) []document.Point {
	pts = append(pts, document.Point{})
	copy(pts[i+1:], pts[i:])
	pts[i] = p
	return pts
}

// ClearAll empties the scene and starts over with one new spline.
func (e *Engine) ClearAll() {
	e.scene.Splines = nil
	e.scene.Anchors = nil
	e.scene.ColorIndex = 0
	e.sel.Clear()
	e.Commit()
	e.AddSpline()
}

// SetField sets a property on every selected entity that has it. A final
// change is recorded in history.
func (e *Engine) SetField(field selection.Field, value any, final bool) (int, error) {
	n, err := e.edits.ApplyField(field, value)
	if err != nil {
		return n, err
	}
	if final {
		e.Commit()
	}
	return n, nil
}
