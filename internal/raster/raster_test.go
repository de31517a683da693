package raster

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/selection"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

// pixel compares colours allowing for coverage rounding.
func pixel(t *testing.T, want, got color.RGBA) {
	t.Helper()
	d := func(a, b uint8) int { return max(int(a)-int(b), int(b)-int(a)) }
	if d(want.R, got.R) > 2 || d(want.G, got.G) > 2 || d(want.B, got.B) > 2 || d(want.A, got.A) > 2 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func graph(nodes ...*engine.SceneNode) *engine.SceneGraph {
	sg := engine.NewSceneGraph(100, 100)
	sg.Background = "#000000"
	sg.Nodes = nodes
	return sg
}

func line(x0, y0, x1, y1 float64) *path.Data {
	return (&path.Data{}).MoveTo(vec.Vec2{X: x0, Y: y0}).LineTo(vec.Vec2{X: x1, Y: y1})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		opacity float64
		want    color.NRGBA
		ok      bool
	}{
		{"#ff0000", 1, color.NRGBA{R: 255, A: 255}, true},
		{"#0096ff", 0.6, color.NRGBA{G: 150, B: 255, A: 153}, true},
		{"#FFFFFF", 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, true},
		{"", 1, color.NRGBA{}, false},
		{"teal", 1, color.NRGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseColor(tt.in, tt.opacity)
			diff(t, tt.ok, ok)
			diff(t, tt.want, got)
		})
	}
}

func TestBackground(t *testing.T) {
	img := Render(graph())
	diff(t, 100, img.Bounds().Dx())
	pixel(t, black, img.RGBAAt(0, 0))
	pixel(t, black, img.RGBAAt(99, 99))

	sg := graph()
	sg.Background = ""
	pixel(t, color.RGBA{}, Render(sg).RGBAAt(50, 50))
}

func TestFillSquare(t *testing.T) {
	sq := (&path.Data{}).
		MoveTo(vec.Vec2{X: -10, Y: -10}).
		LineTo(vec.Vec2{X: 10, Y: -10}).
		LineTo(vec.Vec2{X: 10, Y: 10}).
		LineTo(vec.Vec2{X: -10, Y: 10}).
		Close()
	img := Render(graph(&engine.SceneNode{
		Transform:   matrix.Matrix{1, 0, 0, 1, 50, 50},
		Path:        sq,
		Fill:        "#ff0000",
		FillOpacity: 1,
	}))
	pixel(t, red, img.RGBAAt(50, 50))
	pixel(t, red, img.RGBAAt(41, 59))
	pixel(t, black, img.RGBAAt(39, 50))
	pixel(t, black, img.RGBAAt(50, 61))
}

func TestStrokeLine(t *testing.T) {
	img := Render(graph(&engine.SceneNode{
		Transform:     matrix.Identity,
		Path:          line(10, 50, 90, 50),
		Stroke:        "#ffffff",
		StrokeOpacity: 1,
		StrokeWidth:   4,
	}))
	pixel(t, white, img.RGBAAt(50, 50))
	pixel(t, white, img.RGBAAt(50, 48))
	pixel(t, black, img.RGBAAt(50, 40))
	// butt ends
	pixel(t, black, img.RGBAAt(5, 50))
}

func TestStrokeJoinHasNoGap(t *testing.T) {
	p := (&path.Data{}).
		MoveTo(vec.Vec2{X: 10, Y: 50}).
		LineTo(vec.Vec2{X: 50, Y: 50}).
		LineTo(vec.Vec2{X: 50, Y: 90})
	img := Render(graph(&engine.SceneNode{
		Transform:     matrix.Identity,
		Path:          p,
		Stroke:        "#ffffff",
		StrokeOpacity: 1,
		StrokeWidth:   6,
	}))
	// the outer corner is covered by the join disc
	pixel(t, white, img.RGBAAt(51, 48))
}

func TestDashedStroke(t *testing.T) {
	img := Render(graph(&engine.SceneNode{
		Transform:     matrix.Identity,
		Path:          line(0, 50.5, 100, 50.5),
		Stroke:        "#ffffff",
		StrokeOpacity: 1,
		StrokeWidth:   2,
		Dash:          []float64{10, 10},
	}))
	pixel(t, white, img.RGBAAt(5, 50))
	pixel(t, black, img.RGBAAt(15, 50))
	pixel(t, white, img.RGBAAt(25, 50))
}

func TestApplyDash(t *testing.T) {
	lines := [][]vec.Vec2{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}
	got := applyDash(lines, []float64{4, 2})
	want := [][]vec.Vec2{
		{{X: 0, Y: 0}, {X: 4, Y: 0}},
		{{X: 6, Y: 0}, {X: 10, Y: 0}},
		{{X: 10, Y: 2}, {X: 10, Y: 6}},
		{{X: 10, Y: 8}, {X: 10, Y: 10}},
	}
	diff(t, want, got, cmpopts.EquateApprox(0, 1e-9))
}

func TestTransparentFillSkipped(t *testing.T) {
	img := Render(graph(&engine.SceneNode{
		Transform:   matrix.Identity,
		Path:        line(0, 0, 100, 100),
		Fill:        "#ff0000",
		FillOpacity: 0,
	}))
	pixel(t, black, img.RGBAAt(50, 50))
}

func TestRenderExportFrame(t *testing.T) {
	e := engine.NewEngine(engine.Options{
		Canvas:   document.Canvas{Width: 100, Height: 100},
		Timeline: document.Timeline{FPS: 10, TotalFrames: 10},
	})
	e.AddAnchor()
	if _, err := e.SetField(selection.FieldFillColor, "#00ff00", true); err != nil {
		t.Fatal(err)
	}
	e.SetOutputSize(document.Canvas{Width: 200, Height: 200})

	img := Render(e.ExportGraph(0))
	diff(t, 200, img.Bounds().Dx())
	pixel(t, color.RGBA{G: 255, A: 255}, img.RGBAAt(100, 100))
	pixel(t, black, img.RGBAAt(10, 10))

	// past the end the anchor is hidden
	pixel(t, black, Render(e.ExportGraph(10)).RGBAAt(100, 100))
}
