// Command preview plays a scene file in the terminal.
//
//	preview scene.png
//
// Keys: space play/stop, l loop, ←/→ step one frame, u undo, r redo,
// q or Esc quit.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/raster"
	"github.com/splinetool/splinetool/internal/scene"
)

type Player struct {
	screen   tcell.Screen
	engine   *engine.Engine
	renderer *raster.Renderer
	name     string
}

func NewPlayer(screen tcell.Screen, e *engine.Engine, name string) *Player {
	return &Player{screen: screen, engine: e, renderer: raster.NewRenderer(), name: name}
}

// openScene reads a scene file, or bare scene JSON, on the canvas it was
// saved on.
func openScene(path string) (*engine.Engine, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data, err := scene.Split(file)
	if errors.Is(err, scene.ErrNoSceneData) {
		data = file
	}
	var f scene.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, scene.ErrNoSceneData)
	}
	canvas := f.Canvas()
	e := engine.NewEngine(engine.Options{Canvas: canvas})
	e.LoadScene(f.Scene(canvas))
	return e, nil
}

// fit returns the largest size with the canvas aspect ratio inside w×h.
func fit(canvas document.Canvas, w, h int) document.Canvas {
	s := min(float64(w)/canvas.Width, float64(h)/canvas.Height)
	return document.Canvas{Width: max(canvas.Width*s, 1), Height: max(canvas.Height*s, 1)}
}

func cellColor(img *image.RGBA, x, y int) tcell.Color {
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return tcell.ColorBlack
	}
	c, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return tcell.ColorBlack
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// draw renders the current frame with half-block cells, two pixels per
// cell, above a status line.
func (p *Player) draw() {
	w, h := p.screen.Size()
	if w < 1 || h < 2 {
		return
	}
	p.screen.Clear()

	p.engine.SetOutputSize(fit(p.engine.Canvas(), w, (h-1)*2))
	img := p.renderer.Render(p.engine.ExportGraph(p.engine.Frame()))

	for y := 0; y < h-1; y++ {
		for x := 0; x < w; x++ {
			style := tcell.StyleDefault.
				Foreground(cellColor(img, x, 2*y)).
				Background(cellColor(img, x, 2*y+1))
			p.screen.SetContent(x, y, '▀', nil, style)
		}
	}
	p.drawStatus(h - 1)
	p.screen.Show()
}

func (p *Player) drawStatus(row int) {
	clock := p.engine.Clock()
	state := "stopped"
	if clock.Playing() {
		state = "playing"
	}
	if clock.Looping() {
		state += " loop"
	}
	status := fmt.Sprintf(" %s  frame %d/%d  %s  [space] play [l] loop [←→] step [u/r] undo/redo [q] quit",
		p.name, p.engine.Frame(), clock.Timeline().TotalFrames, state)

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
	x := 0
	for _, r := range status {
		p.screen.SetContent(x, row, r, nil, style)
		x++
	}
}

// step moves the playhead by delta frames and stops playback.
func (p *Player) step(delta int) {
	f := p.engine.Frame() + delta
	total := p.engine.Clock().Timeline().TotalFrames
	p.engine.SetPlayhead(max(0, min(f, total)))
}

// handleKey applies one key press. It reports false when the player should
// quit.
func (p *Player) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		p.step(-1)
	case tcell.KeyRight:
		p.step(1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			p.engine.TogglePlay()
		case 'l':
			p.engine.SetLooping(!p.engine.Clock().Looping())
		case 'u':
			p.engine.Undo()
		case 'r':
			p.engine.Redo()
		}
	}
	return true
}

func (p *Player) run() {
	fps := p.engine.Clock().Timeline().FPS
	ticker := time.NewTicker(time.Second / time.Duration(max(fps, 1)))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- p.screen.PollEvent()
		}
	}()

	p.draw()
	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !p.handleKey(ev) {
					return
				}
				p.draw()
			case *tcell.EventResize:
				p.screen.Sync()
				p.draw()
			}
		case <-ticker.C:
			if p.engine.Clock().Playing() {
				p.draw()
			}
		}
	}
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: preview <scene file>")
		os.Exit(2)
	}

	e, err := openScene(os.Args[1])
	if err != nil {
		slog.Error("load scene", "error", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("open terminal", "error", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		slog.Error("init terminal", "error", err)
		os.Exit(1)
	}
	defer screen.Fini()

	NewPlayer(screen, e, os.Args[1]).run()
}
