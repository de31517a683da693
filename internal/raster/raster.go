// Package raster draws scene graphs into RGBA images for scene file previews
// and video export.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/engine"
)

// flatness is the maximum distance in pixels between a curve and the
// polyline that replaces it when stroking.
const flatness = 0.25

// Renderer draws scene graphs. Internal buffers are reused between frames,
// so a Renderer is not safe for concurrent use.
type Renderer struct {
	ras   *vector.Rasterizer
	lines [][]vec.Vec2
}

func NewRenderer() *Renderer {
	return &Renderer{ras: vector.NewRasterizer(1, 1)}
}

// Render is a convenience wrapper drawing sg with a fresh Renderer.
func Render(sg *engine.SceneGraph) *image.RGBA {
	return NewRenderer().Render(sg)
}

// Render draws sg into a new image of the graph's size.
func (r *Renderer) Render(sg *engine.SceneGraph) *image.RGBA {
	w := max(int(math.Ceil(sg.Width)), 1)
	h := max(int(math.Ceil(sg.Height)), 1)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Draw(dst, sg)
	return dst
}

// Draw paints sg onto dst, background first, then every node in order.
func (r *Renderer) Draw(dst *image.RGBA, sg *engine.SceneGraph) {
	b := dst.Bounds()
	if c, ok := ParseColor(sg.Background, 1); ok {
		draw.Draw(dst, b, image.NewUniform(c), image.Point{}, draw.Src)
	}
	for _, n := range sg.Nodes {
		if n.Path == nil || len(n.Path.Cmds) == 0 {
			continue
		}
		if c, ok := ParseColor(n.Fill, n.FillOpacity); ok && c.A > 0 {
			r.reset(b)
			r.fill(n.Path, n.Transform)
			r.paint(dst, c)
		}
		if c, ok := ParseColor(n.Stroke, n.StrokeOpacity); ok && c.A > 0 && n.StrokeWidth > 0 {
			r.reset(b)
			r.stroke(n.Path, n.Transform, n.StrokeWidth, n.Dash)
			r.paint(dst, c)
		}
	}
}

// ParseColor parses a #rrggbb colour and applies opacity. Empty or invalid
// colours report false.
func ParseColor(s string, opacity float64) (color.NRGBA, bool) {
	if s == "" {
		return color.NRGBA{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.NRGBA{}, false
	}
	cr, cg, cb := c.Clamped().RGB255()
	a := math.Round(math.Max(0, math.Min(opacity, 1)) * 255)
	return color.NRGBA{R: cr, G: cg, B: cb, A: uint8(a)}, true
}

func (r *Renderer) reset(b image.Rectangle) {
	r.ras.Reset(b.Dx(), b.Dy())
	r.ras.DrawOp = draw.Over
}

func (r *Renderer) paint(dst *image.RGBA, c color.NRGBA) {
	r.ras.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// fill adds the transformed path to the rasterizer. Affine maps keep
// Bezier segments Bezier, so curves are passed through unflattened.
func (r *Renderer) fill(p *path.Data, m matrix.Matrix) {
	pt := func(v vec.Vec2) (float32, float32) {
		d := transform(m, v)
		return float32(d.X), float32(d.Y)
	}
	i := 0
	open := false
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			if open {
				r.ras.ClosePath()
			}
			r.ras.MoveTo(pt(p.Coords[i]))
			open = true
			i++
		case path.CmdLineTo:
			r.ras.LineTo(pt(p.Coords[i]))
			i++
		case path.CmdQuadTo:
			bx, by := pt(p.Coords[i])
			cx, cy := pt(p.Coords[i+1])
			r.ras.QuadTo(bx, by, cx, cy)
			i += 2
		case path.CmdCubeTo:
			bx, by := pt(p.Coords[i])
			cx, cy := pt(p.Coords[i+1])
			dx, dy := pt(p.Coords[i+2])
			r.ras.CubeTo(bx, by, cx, cy, dx, dy)
			i += 3
		case path.CmdClose:
			r.ras.ClosePath()
			open = false
		}
	}
	if open {
		r.ras.ClosePath()
	}
}

// stroke outlines the transformed path with width in pixels: one quad per
// flattened segment and a disc at each interior vertex. All pieces share
// one winding so overlaps add up instead of cancelling.
func (r *Renderer) stroke(p *path.Data, m matrix.Matrix, width float64, dash []float64) {
	r.flatten(p, m)
	lines := r.lines
	if len(dash) > 0 {
		lines = applyDash(lines, dash)
	}
	hw := width / 2
	for _, line := range lines {
		for j := 1; j < len(line); j++ {
			r.quad(line[j-1], line[j], hw)
			if j < len(line)-1 {
				r.disc(line[j], hw)
			}
		}
	}
}

func (r *Renderer) quad(a, b vec.Vec2, hw float64) {
	d := b.Sub(a)
	l := d.Length()
	if l == 0 {
		return
	}
	n := vec.Vec2{X: -d.Y / l * hw, Y: d.X / l * hw}
	r.polygon(a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
}

// disc adds a polygonal disc wound the same way as quad.
func (r *Renderer) disc(c vec.Vec2, radius float64) {
	const steps = 12
	pts := make([]vec.Vec2, steps)
	for k := range pts {
		a := -2 * math.Pi * float64(k) / steps
		pts[k] = vec.Vec2{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)}
	}
	r.polygon(pts...)
}

func (r *Renderer) polygon(pts ...vec.Vec2) {
	r.ras.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.ras.LineTo(float32(p.X), float32(p.Y))
	}
	r.ras.ClosePath()
}

// flatten converts the path to device space polylines, one per subpath.
func (r *Renderer) flatten(p *path.Data, m matrix.Matrix) {
	r.lines = r.lines[:0]
	var cur []vec.Vec2
	var start vec.Vec2
	flush := func() {
		if len(cur) > 1 {
			r.lines = append(r.lines, cur)
		}
		cur = nil
	}
	i := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			flush()
			start = transform(m, p.Coords[i])
			cur = []vec.Vec2{start}
			i++
		case path.CmdLineTo:
			cur = append(cur, transform(m, p.Coords[i]))
			i++
		case path.CmdQuadTo:
			p0 := cur[len(cur)-1]
			p1, p2 := transform(m, p.Coords[i]), transform(m, p.Coords[i+1])
			// degree elevation
			c1 := p0.Add(p1.Sub(p0).Mul(2.0 / 3))
			c2 := p2.Add(p1.Sub(p2).Mul(2.0 / 3))
			cur = appendCubic(cur, p0, c1, c2, p2)
			i += 2
		case path.CmdCubeTo:
			p0 := cur[len(cur)-1]
			cur = appendCubic(cur, p0,
				transform(m, p.Coords[i]), transform(m, p.Coords[i+1]), transform(m, p.Coords[i+2]))
			i += 3
		case path.CmdClose:
			if len(cur) > 0 {
				cur = append(cur, start)
			}
			flush()
		}
	}
	flush()
}

// appendCubic appends a flattened cubic, excluding its start point. The
// step count comes from the control polygon's second differences.
func appendCubic(out []vec.Vec2, p0, p1, p2, p3 vec.Vec2) []vec.Vec2 {
	dd := math.Max(
		p0.Sub(p1.Mul(2)).Add(p2).Length(),
		p1.Sub(p2.Mul(2)).Add(p3).Length(),
	)
	n := int(math.Ceil(math.Sqrt(0.75 * dd / flatness)))
	n = max(1, min(n, 256))
	for k := 1; k <= n; k++ {
		t := float64(k) / float64(n)
		mt := 1 - t
		out = append(out, vec.Vec2{
			X: mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X,
			Y: mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y,
		})
	}
	return out
}

// applyDash cuts polylines into the "on" runs of an alternating on/off
// pattern measured along each line.
func applyDash(lines [][]vec.Vec2, dash []float64) [][]vec.Vec2 {
	total := 0.0
	for _, d := range dash {
		if d < 0 {
			return lines
		}
		total += d
	}
	if total == 0 {
		return lines
	}

	var out [][]vec.Vec2
	for _, line := range lines {
		idx, left, on := 0, dash[0], true
		var run []vec.Vec2
		if on {
			run = []vec.Vec2{line[0]}
		}
		for j := 1; j < len(line); j++ {
			a, b := line[j-1], line[j]
			seg := b.Sub(a).Length()
			pos := 0.0
			for seg-pos >= left {
				pos += left
				p := a.Add(b.Sub(a).Mul(pos / seg))
				if on {
					run = append(run, p)
					if len(run) > 1 {
						out = append(out, run)
					}
					run = nil
				} else {
					run = []vec.Vec2{p}
				}
				on = !on
				idx = (idx + 1) % len(dash)
				left = dash[idx]
			}
			left -= seg - pos
			if on {
				run = append(run, b)
			}
		}
		if on && len(run) > 1 {
			out = append(out, run)
		}
	}
	return out
}

func transform(m matrix.Matrix, v vec.Vec2) vec.Vec2 {
	return vec.Vec2{X: m[0]*v.X + m[2]*v.Y + m[4], Y: m[1]*v.X + m[3]*v.Y + m[5]}
}
