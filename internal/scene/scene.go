// Package scene reads and writes scene files: a PNG preview followed by a
// marker and the scene as JSON. Any PNG viewer shows the preview; the editor
// finds the marker from the end of the file and restores the scene.
package scene

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"

	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/typeid"
)

// Marker separates the image bytes from the scene JSON.
const Marker = "SPLINEDATA::"

// LegacySize is the shape size assumed when a file has none.
const LegacySize = 10

// SavedCanvas is assumed for files that do not record their canvas size.
var SavedCanvas = Dimensions{Width: 1000, Height: 562}

var ErrNoSceneData = errors.New("no scene data")

// File is the JSON part of a scene file. Optional fields are pointers so
// that missing values can be told apart from zero.
type File struct {
	Splines                 []SplineData `json:"splines"`
	StaticShapes            []AnchorData `json:"staticShapes"`
	OriginalImageDimensions *Dimensions  `json:"originalImageDimensions,omitempty"`
	SplineColorIndex        int          `json:"splineColorIndex"`
	FPS                     int          `json:"fps,omitempty"`
	TotalFrames             int          `json:"totalFrames,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type XY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity holds the fields splines and anchors share.
type Entity struct {
	ScaleCurve     []XY     `json:"scaleCurve,omitempty"`
	ScaleTension   float64  `json:"scaleTension"`
	StartFrame     *int     `json:"startFrame,omitempty"`
	TotalFrames    *int     `json:"totalFrames,omitempty"`
	HideOnComplete *bool    `json:"hideOnComplete,omitempty"`
	ShapeType      string   `json:"shapeType,omitempty"`
	FillColor      string   `json:"fillColor,omitempty"`
	StrokeColor    string   `json:"strokeColor,omitempty"`
	StrokeWeight   *float64 `json:"strokeWeight,omitempty"`
	ShapeSizeX     float64  `json:"shapeSizeX,omitempty"`
	ShapeSizeY     float64  `json:"shapeSizeY,omitempty"`
}

type SplineData struct {
	Points        []XY    `json:"points"`
	Tension       float64 `json:"tension"`
	EasingCurve   []XY    `json:"easingCurve,omitempty"`
	EasingTension float64 `json:"easingTension"`
	LineColor     string  `json:"lineColor,omitempty"`
	Entity
}

type AnchorData struct {
	Pos XY `json:"pos"`
	Entity
}

// Write writes a scene file: preview as PNG, then the marker and data.
func Write(w io.Writer, preview image.Image, data []byte) error {
	if err := png.Encode(w, preview); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if _, err := io.WriteString(w, Marker); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write scene data: %w", err)
	}
	return nil
}

// Split returns the JSON following the last marker in a scene file.
func Split(file []byte) ([]byte, error) {
	i := bytes.LastIndex(file, []byte(Marker))
	if i < 0 {
		return nil, ErrNoSceneData
	}
	return file[i+len(Marker):], nil
}

// Read decodes the scene stored in a scene file, rescaled to canvas. A file
// without usable scene data reports ErrNoSceneData; callers then treat it as
// a plain image.
func Read(file []byte, canvas document.Canvas) (*document.Scene, error) {
	data, err := Split(file)
	if err != nil {
		return nil, err
	}
	s, err := DecodeJSON(data, canvas)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSceneData, err)
	}
	return s, nil
}

// DecodeImage decodes the image part of a file, for files loaded as a plain
// background image.
func DecodeImage(file []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeJSON parses scene JSON and rescales its geometry from the canvas it
// was saved on to canvas. Missing fields get their defaults.
func DecodeJSON(data []byte, canvas document.Canvas) (*document.Scene, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return f.Scene(canvas), nil
}

// Canvas returns the canvas the file was saved on.
func (f *File) Canvas() document.Canvas {
	saved := SavedCanvas
	if d := f.OriginalImageDimensions; d != nil && d.Width > 0 && d.Height > 0 {
		saved = *d
	}
	return document.Canvas{Width: saved.Width, Height: saved.Height}
}

// Scene converts the file to a document scene rescaled to canvas. Entities
// get fresh IDs. Splines with fewer than two points are dropped. An invalid
// canvas keeps the saved geometry.
func (f *File) Scene(canvas document.Canvas) *document.Scene {
	saved := f.Canvas()
	if canvas.Width <= 0 || canvas.Height <= 0 {
		canvas = saved
	}
	sx, sy := canvas.Width/saved.Width, canvas.Height/saved.Height
	avg := (sx + sy) / 2

	s := document.NewScene(document.Timeline{FPS: f.FPS, TotalFrames: f.TotalFrames})
	s.ColorIndex = f.SplineColorIndex
	if s.ColorIndex < 0 || s.ColorIndex >= len(document.Palette) {
		s.ColorIndex = 0
	}

	for _, d := range f.Splines {
		// a path needs two points
		if len(d.Points) < 2 {
			continue
		}
		sp := &document.Spline{
			ID:          typeid.NewSplineID(),
			Tension:     d.Tension,
			LineColor:   d.LineColor,
			EasingCurve: curveOrDefault(d.EasingCurve, d.EasingTension, curve.DefaultEasing),
		}
		for _, p := range d.Points {
			sp.Points = append(sp.Points, document.Point{ID: typeid.NewPointID(), X: p.X * sx, Y: p.Y * sy})
		}
		d.Entity.apply(&sp.Style, &sp.Schedule, &sp.ScaleCurve, avg)
		s.Splines = append(s.Splines, sp)
	}
	for _, d := range f.StaticShapes {
		a := &document.Anchor{
			ID:  typeid.NewAnchorID(),
			Pos: vec.Vec2{X: d.Pos.X * sx, Y: d.Pos.Y * sy},
		}
		d.Entity.apply(&a.Style, &a.Schedule, &a.ScaleCurve, avg)
		s.Anchors = append(s.Anchors, a)
	}
	return s
}

func (d Entity) apply(style *document.Style, sched *document.Schedule, scale *curve.Curve, avg float64) {
	*style = document.DefaultStyle()
	if d.ShapeType != "" {
		style.ShapeType = document.ShapeType(d.ShapeType)
	}
	if d.FillColor != "" {
		style.FillColor = d.FillColor
	}
	if d.StrokeColor != "" {
		style.StrokeColor = d.StrokeColor
	}
	if d.StrokeWeight != nil {
		style.StrokeWeight = *d.StrokeWeight
	}
	style.SizeX = orDefault(d.ShapeSizeX, LegacySize) * avg
	style.SizeY = orDefault(d.ShapeSizeY, LegacySize) * avg

	*sched = document.Schedule{StartFrame: 0, TotalFrames: document.DefaultTotalFrames, HideOnComplete: true}
	if d.StartFrame != nil {
		sched.StartFrame = max(*d.StartFrame, 0)
	}
	if d.TotalFrames != nil {
		sched.TotalFrames = max(*d.TotalFrames, 1)
	}
	if d.HideOnComplete != nil {
		sched.HideOnComplete = *d.HideOnComplete
	}
	*scale = curveOrDefault(d.ScaleCurve, d.ScaleTension, curve.DefaultScale)
}

func curveOrDefault(pts []XY, tension float64, def func() curve.Curve) curve.Curve {
	if len(pts) == 0 {
		c := def()
		c.Tension = tension
		return c
	}
	c := curve.Curve{Tension: tension, Points: make([]curve.Point, len(pts))}
	for i, p := range pts {
		c.Points[i] = curve.Point{X: p.X, Y: p.Y}
	}
	return c
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// EncodeJSON returns the scene JSON for s drawn on canvas.
func EncodeJSON(s *document.Scene, canvas document.Canvas) ([]byte, error) {
	data, err := json.Marshal(NewFile(s, canvas))
	if err != nil {
		return nil, fmt.Errorf("encode scene: %w", err)
	}
	return data, nil
}

// NewFile converts a scene to its file form.
func NewFile(s *document.Scene, canvas document.Canvas) *File {
	f := &File{
		Splines:                 []SplineData{},
		StaticShapes:            []AnchorData{},
		OriginalImageDimensions: &Dimensions{Width: canvas.Width, Height: canvas.Height},
		SplineColorIndex:        s.ColorIndex,
		FPS:                     s.Timeline.FPS,
		TotalFrames:             s.Timeline.TotalFrames,
	}
	for _, sp := range s.Splines {
		d := SplineData{
			Tension:       sp.Tension,
			EasingCurve:   xys(sp.EasingCurve),
			EasingTension: sp.EasingCurve.Tension,
			LineColor:     sp.LineColor,
			Entity:        entityData(sp.Style, sp.Schedule, sp.ScaleCurve),
		}
		for _, p := range sp.Points {
			d.Points = append(d.Points, XY{X: p.X, Y: p.Y})
		}
		f.Splines = append(f.Splines, d)
	}
	for _, a := range s.Anchors {
		f.StaticShapes = append(f.StaticShapes, AnchorData{
			Pos:    XY{X: a.Pos.X, Y: a.Pos.Y},
			Entity: entityData(a.Style, a.Schedule, a.ScaleCurve),
		})
	}
	return f
}

func entityData(st document.Style, sched document.Schedule, scale curve.Curve) Entity {
	return Entity{
		ScaleCurve:     xys(scale),
		ScaleTension:   scale.Tension,
		StartFrame:     ptr(sched.StartFrame),
		TotalFrames:    ptr(sched.TotalFrames),
		HideOnComplete: ptr(sched.HideOnComplete),
		ShapeType:      string(st.ShapeType),
		FillColor:      st.FillColor,
		StrokeColor:    st.StrokeColor,
		StrokeWeight:   ptr(st.StrokeWeight),
		ShapeSizeX:     st.SizeX,
		ShapeSizeY:     st.SizeY,
	}
}

func xys(c curve.Curve) []XY {
	out := make([]XY, len(c.Points))
	for i, p := range c.Points {
		out[i] = XY{X: p.X, Y: p.Y}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
