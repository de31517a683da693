package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/splinetool/splinetool/internal/curve"
	"github.com/splinetool/splinetool/internal/document"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLegacyDefaults(t *testing.T) {
	data := []byte(`{
		"splines": [{"points": [{"x": 0, "y": 0}, {"x": 100, "y": 50}], "tension": 0.5}],
		"staticShapes": [{"pos": {"x": 500, "y": 281}}],
		"splineColorIndex": 3
	}`)
	// saved canvas defaults to 1000x562, so this is a 1:1 load
	s, err := DecodeJSON(data, document.Canvas{Width: 1000, Height: 562})
	if err != nil {
		t.Fatal(err)
	}

	sp := s.Splines[0]
	diff(t, 0.5, sp.Tension)
	diff(t, curve.DefaultScale(), sp.ScaleCurve)
	diff(t, curve.DefaultEasing(), sp.EasingCurve)
	diff(t, document.Schedule{StartFrame: 0, TotalFrames: 80, HideOnComplete: true}, sp.Schedule)
	diff(t, float64(LegacySize), sp.Style.SizeX)
	diff(t, float64(LegacySize), sp.Style.SizeY)

	a := s.Anchors[0]
	diff(t, document.Schedule{StartFrame: 0, TotalFrames: 80, HideOnComplete: true}, a.Schedule)
	diff(t, curve.DefaultScale(), a.ScaleCurve)
	diff(t, 500.0, a.Pos.X)

	diff(t, 3, s.ColorIndex)
	diff(t, document.Timeline{FPS: document.DefaultFPS, TotalFrames: document.DefaultTotalFrames}, s.Timeline)
}

func TestRescale(t *testing.T) {
	data := []byte(`{
		"originalImageDimensions": {"width": 500, "height": 400},
		"splines": [{"points": [{"x": 100, "y": 100}, {"x": 200, "y": 300}], "shapeSizeX": 20, "shapeSizeY": 10}],
		"staticShapes": [{"pos": {"x": 50, "y": 40}, "shapeSizeX": 8, "hideOnComplete": false, "startFrame": 5}]
	}`)
	s, err := DecodeJSON(data, document.Canvas{Width: 1000, Height: 1200})
	if err != nil {
		t.Fatal(err)
	}
	approx := cmpopts.EquateApprox(0, 1e-9)

	// x doubles, y triples, sizes scale by the average (2.5)
	sp := s.Splines[0]
	diff(t, []float64{200, 300, 400, 900}, []float64{sp.Points[0].X, sp.Points[0].Y, sp.Points[1].X, sp.Points[1].Y}, approx)
	diff(t, 50.0, sp.Style.SizeX, approx)
	diff(t, 25.0, sp.Style.SizeY, approx)

	a := s.Anchors[0]
	diff(t, []float64{100, 120}, []float64{a.Pos.X, a.Pos.Y}, approx)
	diff(t, 20.0, a.Style.SizeX, approx)
	diff(t, 25.0, a.Style.SizeY, approx)
	diff(t, false, a.Schedule.HideOnComplete)
	diff(t, 5, a.Schedule.StartFrame)
}

func TestFileRoundTrip(t *testing.T) {
	canvas := document.Canvas{Width: 800, Height: 600}
	src := document.NewSampleScene(canvas)

	data, err := EncodeJSON(src, canvas)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), data); err != nil {
		t.Fatal(err)
	}

	got, err := Read(buf.Bytes(), canvas)
	if err != nil {
		t.Fatal(err)
	}
	ignoreIDs := cmp.Options{
		cmpopts.IgnoreFields(document.Spline{}, "ID"),
		cmpopts.IgnoreFields(document.Anchor{}, "ID"),
		cmpopts.IgnoreFields(document.Point{}, "ID"),
		cmpopts.EquateApprox(0, 1e-9),
	}
	diff(t, src, got, ignoreIDs)

	// the preview is still a valid PNG
	if _, err := DecodeImage(buf.Bytes()); err != nil {
		t.Errorf("preview: %v", err)
	}
}

func TestReadUsesLastMarker(t *testing.T) {
	file := append(tinyPNG(t), []byte(Marker+`{"splines":[]}`+Marker+`{"splineColorIndex": 7}`)...)
	s, err := Read(file, document.Canvas{Width: 100, Height: 100})
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 7, s.ColorIndex)
}

func TestReadPlainImage(t *testing.T) {
	img := tinyPNG(t)
	if _, err := Read(img, document.Canvas{Width: 100, Height: 100}); !errors.Is(err, ErrNoSceneData) {
		t.Errorf("got %v, want ErrNoSceneData", err)
	}
	if _, err := DecodeImage(img); err != nil {
		t.Errorf("plain image should decode: %v", err)
	}
}

func TestReadMalformedJSON(t *testing.T) {
	file := append(tinyPNG(t), []byte(Marker+`{"splines": [`)...)
	if _, err := Read(file, document.Canvas{Width: 100, Height: 100}); !errors.Is(err, ErrNoSceneData) {
		t.Errorf("got %v, want ErrNoSceneData", err)
	}
}

func TestDegenerateSplineDropped(t *testing.T) {
	s, err := DecodeJSON([]byte(`{"splines": [{"points": [{"x": 1, "y": 1}]}]}`), document.Canvas{Width: 1000, Height: 562})
	if err != nil {
		t.Fatal(err)
	}
	diff(t, 0, len(s.Splines))
}
