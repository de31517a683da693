package document

import (
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
)

const (
	DefaultFPS         = 16
	DefaultTotalFrames = 80
	DefaultSize        = 15
)

// Palette is the sequence of line colours handed out to new splines.
var Palette = []string{
	"#4CAF50", "#F44336", "#FF9800", "#2196F3", "#9C27B0", "#FFEB3B", "#009688",
	"#E91E63", "#3F51B5", "#B71C1C", "#E65100", "#0D47A1", "#4A148C", "#F57F17",
}

type ShapeType string

const (
	ShapeSquare   ShapeType = "square"
	ShapeCircle   ShapeType = "circle"
	ShapeTriangle ShapeType = "triangle"
)

// Style is the visual appearance of the shape an entity draws.
type Style struct {
	ShapeType    ShapeType
	FillColor    string
	StrokeColor  string
	StrokeWeight float64
	SizeX        float64
	SizeY        float64
}

// Schedule is an entity's local time window on the global timeline.
type Schedule struct {
	StartFrame     int
	TotalFrames    int
	HideOnComplete bool
}

// Timeline is the global playback configuration.
type Timeline struct {
	FPS         int
	TotalFrames int
}

// Canvas is the editing surface size.
type Canvas struct {
	Width  float64
	Height float64
}

// Point is a spline control point. ID is session-local and only used to
// address the point in a selection.
type Point struct {
	ID string
	X  float64
	Y  float64
}

func (p Point) Vec() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// Entity is either a *Spline or an *Anchor.
type Entity interface {
	EntityID() string
	EntityStyle() *Style
	EntitySchedule() *Schedule
	EntityScaleCurve() *curve.Curve
}

// Spline is a shape that travels along the path through its points.
type Spline struct {
	ID          string
	Points      []Point
	Tension     float64
	LineColor   string
	Style       Style
	Schedule    Schedule
	ScaleCurve  curve.Curve
	EasingCurve curve.Curve
}

func (s *Spline) EntityID() string               { return s.ID }
func (s *Spline) EntityStyle() *Style            { return &s.Style }
func (s *Spline) EntitySchedule() *Schedule      { return &s.Schedule }
func (s *Spline) EntityScaleCurve() *curve.Curve { return &s.ScaleCurve }

// Anchor is a shape fixed at Pos whose only animated property is scale.
type Anchor struct {
	ID         string
	Pos        vec.Vec2
	Style      Style
	Schedule   Schedule
	ScaleCurve curve.Curve
}

func (a *Anchor) EntityID() string               { return a.ID }
func (a *Anchor) EntityStyle() *Style            { return &a.Style }
func (a *Anchor) EntitySchedule() *Schedule      { return &a.Schedule }
func (a *Anchor) EntityScaleCurve() *curve.Curve { return &a.ScaleCurve }

// Scene is the complete editable state: everything undo and redo restore.
type Scene struct {
	Splines    []*Spline
	Anchors    []*Anchor
	Timeline   Timeline
	ColorIndex int
}

// NewScene returns an empty scene with the given timeline.
func NewScene(tl Timeline) *Scene {
	if tl.FPS <= 0 {
		tl.FPS = DefaultFPS
	}
	if tl.TotalFrames <= 0 {
		tl.TotalFrames = DefaultTotalFrames
	}
	return &Scene{Timeline: tl}
}

// DefaultStyle returns the style of a freshly created entity.
func DefaultStyle() Style {
	return Style{
		ShapeType:    ShapeSquare,
		FillColor:    "#000000",
		StrokeColor:  "#ffffff",
		StrokeWeight: 0.5,
		SizeX:        DefaultSize,
		SizeY:        DefaultSize,
	}
}

// NewSpline creates a two point spline running through a and b.
func NewSpline(id string, a, b Point, totalFrames int, lineColor string) *Spline {
	return &Spline{
		ID:          id,
		Points:      []Point{a, b},
		LineColor:   lineColor,
		Style:       DefaultStyle(),
		Schedule:    Schedule{StartFrame: 0, TotalFrames: totalFrames, HideOnComplete: true},
		ScaleCurve:  curve.DefaultScale(),
		EasingCurve: curve.DefaultEasing(),
	}
}

// NewAnchor creates an anchor at pos.
func NewAnchor(id string, pos vec.Vec2, totalFrames int) *Anchor {
	return &Anchor{
		ID:         id,
		Pos:        pos,
		Style:      DefaultStyle(),
		Schedule:   Schedule{StartFrame: 0, TotalFrames: totalFrames, HideOnComplete: true},
		ScaleCurve: curve.DefaultScale(),
	}
}

// NextColor returns the palette colour at the scene's colour index and
// advances the index.
func (s *Scene) NextColor() string {
	c := Palette[s.ColorIndex%len(Palette)]
	s.ColorIndex = (s.ColorIndex + 1) % len(Palette)
	return c
}

// Vecs returns the spline's points as vectors.
func (s *Spline) Vecs() []vec.Vec2 {
	out := make([]vec.Vec2, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Vec()
	}
	return out
}

// PointIndex returns the index of the point with the given ID, or -1.
func (s *Spline) PointIndex(id string) int {
	for i, p := range s.Points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Spline returns the spline with the given ID.
func (s *Scene) Spline(id string) (*Spline, bool) {
	for _, sp := range s.Splines {
		if sp.ID == id {
			return sp, true
		}
	}
	return nil, false
}

// Anchor returns the anchor with the given ID.
func (s *Scene) Anchor(id string) (*Anchor, bool) {
	for _, a := range s.Anchors {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// SplineOfPoint returns the spline whose point list holds the point with the
// given ID, and the point's index. Points carry no back reference, so this
// scans every spline.
func (s *Scene) SplineOfPoint(pointID string) (*Spline, int, bool) {
	for _, sp := range s.Splines {
		if i := sp.PointIndex(pointID); i >= 0 {
			return sp, i, true
		}
	}
	return nil, -1, false
}

// RemoveSpline deletes the spline with the given ID.
func (s *Scene) RemoveSpline(id string) bool {
	for i, sp := range s.Splines {
		if sp.ID == id {
			s.Splines = append(s.Splines[:i], s.Splines[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAnchor deletes the anchor with the given ID.
func (s *Scene) RemoveAnchor(id string) bool {
	for i, a := range s.Anchors {
		if a.ID == id {
			s.Anchors = append(s.Anchors[:i], s.Anchors[i+1:]...)
			return true
		}
	}
	return false
}
