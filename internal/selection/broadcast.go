package selection

import (
	"errors"
	"fmt"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
)

// Field names an editable entity property. The names match the scene file.
type Field string

const (
	FieldStartFrame     Field = "startFrame"
	FieldTotalFrames    Field = "totalFrames"
	FieldHideOnComplete Field = "hideOnComplete"
	FieldTension        Field = "tension"
	FieldEasingTension  Field = "easingTension"
	FieldScaleTension   Field = "scaleTension"
	FieldShapeType      Field = "shapeType"
	FieldFillColor      Field = "fillColor"
	FieldStrokeColor    Field = "strokeColor"
	FieldStrokeWeight   Field = "strokeWeight"
	FieldSizeX          Field = "shapeSizeX"
	FieldSizeY          Field = "shapeSizeY"
	FieldLineColor      Field = "lineColor"
)

// CurveField names one of an entity's control curves.
type CurveField string

const (
	CurveScale  CurveField = "scaleCurve"
	CurveEasing CurveField = "easingCurve"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrFieldValue   = errors.New("invalid field value")
)

// Committer records the current state in history.
type Committer interface {
	Commit()
}

// CurveObserver is told when a curve editor changed the master curve of the
// current selection. Live updates during a drag arrive with isFinal false,
// the release with isFinal true.
type CurveObserver interface {
	OnCurveChanged(field CurveField, isFinal bool)
}

// Broadcaster applies edits to every owner of a selection.
type Broadcaster struct {
	scene     func() *document.Scene
	selection func() Selection
	committer Committer
}

// NewBroadcaster returns a broadcaster reading the live scene and selection
// through the given accessors.
func NewBroadcaster(scene func() *document.Scene, sel func() Selection, c Committer) *Broadcaster {
	return &Broadcaster{scene: scene, selection: sel, committer: c}
}

// OwnerOf resolves an item to the entity whose properties it edits. A point
// resolves to the spline holding it. Returns nil for unknown items.
func OwnerOf(scene *document.Scene, it Item) document.Entity {
	switch it.Kind {
	case KindAnchor:
		if a, ok := scene.Anchor(it.ID); ok {
			return a
		}
	case KindSpline:
		if sp, ok := scene.Spline(it.ID); ok {
			return sp
		}
	case KindPoint:
		if sp, _, ok := scene.SplineOfPoint(it.ID); ok {
			return sp
		}
	}
	return nil
}

// Owners returns the de-duplicated owners of items in selection order.
func Owners(scene *document.Scene, items []Item) []document.Entity {
	var owners []document.Entity
	seen := make(map[document.Entity]bool)
	for _, it := range items {
		o := OwnerOf(scene, it)
		if o == nil || seen[o] {
			continue
		}
		seen[o] = true
		owners = append(owners, o)
	}
	return owners
}

// ApplyField sets field to value on every owner that has the field and
// returns how many owners changed. Numbers may arrive as int or float64.
func (b *Broadcaster) ApplyField(field Field, value any) (int, error) {
	owners := Owners(b.scene(), b.selection().Items())
	n := 0
	for _, o := range owners {
		ok, err := setField(o, field, value)
		if err != nil {
			return n, fmt.Errorf("set %s: %w", field, err)
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// OnCurveChanged copies the master curve to the other owners and commits on
// the final change.
func (b *Broadcaster) OnCurveChanged(field CurveField, isFinal bool) {
	b.ApplyCurve(field, isFinal)
}

// ApplyCurve copies the first owner's curve to every other owner holding the
// same curve field. Only a final change commits. Returns the number of
// owners that received a copy.
func (b *Broadcaster) ApplyCurve(field CurveField, isFinal bool) int {
	owners := b.curveOwners(field)
	n := 0
	if len(owners) > 1 {
		master := curveOf(owners[0], field)
		for _, o := range owners[1:] {
			if c := curveOf(o, field); c != nil {
				*c = master.Clone()
				n++
			}
		}
	}
	if isFinal {
		b.committer.Commit()
	}
	return n
}

// ResetCurve restores field and its tension to the defaults on every owner
// and commits once if anything was reset.
func (b *Broadcaster) ResetCurve(field CurveField) int {
	n := 0
	for _, o := range b.curveOwners(field) {
		c := curveOf(o, field)
		if c == nil {
			continue
		}
		switch field {
		case CurveEasing:
			*c = curve.DefaultEasing()
		default:
			*c = curve.DefaultScale()
		}
		n++
	}
	if n > 0 {
		b.committer.Commit()
	}
	return n
}

// Master returns the curve a curve editor should edit for the selection: the
// first owner's.
func (b *Broadcaster) Master(field CurveField) *curve.Curve {
	owners := b.curveOwners(field)
	if len(owners) == 0 {
		return nil
	}
	return curveOf(owners[0], field)
}

// curveOwners returns the owners that hold field. The easing curve belongs
// to splines only, so with a single selection it follows the spline.
func (b *Broadcaster) curveOwners(field CurveField) []document.Entity {
	sel := b.selection()
	items := sel.Items()
	if field == CurveEasing && len(sel.Multi) == 0 {
		items = nil
		if sel.Spline != "" {
			items = []Item{Spline(sel.Spline)}
		}
	}
	var out []document.Entity
	for _, o := range Owners(b.scene(), items) {
		if curveOf(o, field) != nil {
			out = append(out, o)
		}
	}
	return out
}

func curveOf(e document.Entity, field CurveField) *curve.Curve {
	switch o := e.(type) {
	case *document.Spline:
		switch field {
		case CurveScale:
			return &o.ScaleCurve
		case CurveEasing:
			return &o.EasingCurve
		}
	case *document.Anchor:
		if field == CurveScale {
			return &o.ScaleCurve
		}
	}
	return nil
}

// setField reports false when the owner has no such field.
func setField(e document.Entity, field Field, value any) (bool, error) {
	style := e.EntityStyle()
	sched := e.EntitySchedule()

	switch field {
	case FieldStartFrame:
		v, err := asInt(value)
		if err != nil {
			return false, err
		}
		sched.StartFrame = max(v, 0)
	case FieldTotalFrames:
		v, err := asInt(value)
		if err != nil {
			return false, err
		}
		sched.TotalFrames = max(v, 1)
	case FieldHideOnComplete:
		v, ok := value.(bool)
		if !ok {
			return false, ErrFieldValue
		}
		sched.HideOnComplete = v
	case FieldScaleTension:
		v, err := asFloat(value)
		if err != nil {
			return false, err
		}
		e.EntityScaleCurve().Tension = clampUnit(v)
	case FieldShapeType:
		v, ok := value.(string)
		if !ok {
			return false, ErrFieldValue
		}
		switch st := document.ShapeType(v); st {
		case document.ShapeSquare, document.ShapeCircle, document.ShapeTriangle:
			style.ShapeType = st
		default:
			return false, ErrFieldValue
		}
	case FieldFillColor, FieldStrokeColor:
		v, ok := value.(string)
		if !ok {
			return false, ErrFieldValue
		}
		if field == FieldFillColor {
			style.FillColor = v
		} else {
			style.StrokeColor = v
		}
	case FieldStrokeWeight, FieldSizeX, FieldSizeY:
		v, err := asFloat(value)
		if err != nil {
			return false, err
		}
		switch field {
		case FieldStrokeWeight:
			style.StrokeWeight = v
		case FieldSizeX:
			style.SizeX = v
		default:
			style.SizeY = v
		}
	case FieldTension, FieldEasingTension, FieldLineColor:
		sp, ok := e.(*document.Spline)
		if !ok {
			return false, nil
		}
		return setSplineField(sp, field, value)
	default:
		return false, ErrUnknownField
	}
	return true, nil
}

func setSplineField(sp *document.Spline, field Field, value any) (bool, error) {
	switch field {
	case FieldLineColor:
		v, ok := value.(string)
		if !ok {
			return false, ErrFieldValue
		}
		sp.LineColor = v
	case FieldTension:
		v, err := asFloat(value)
		if err != nil {
			return false, err
		}
		sp.Tension = v
	case FieldEasingTension:
		v, err := asFloat(value)
		if err != nil {
			return false, err
		}
		sp.EasingCurve.Tension = clampUnit(v)
	}
	return true, nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, ErrFieldValue
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, ErrFieldValue
	}
}

func clampUnit(v float64) float64 {
	return curve.Range{Min: 0, Max: 1}.Clamp(v)
}
