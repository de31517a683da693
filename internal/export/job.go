// Package export renders a scene's timeline to numbered PNG frames and
// encodes them into a video.
package export

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/raster"
	"github.com/splinetool/splinetool/internal/typeid"
)

// FrameSource yields the scene graphs of an export.
type FrameSource interface {
	ExportFrames() int
	ExportGraph(i int) *engine.SceneGraph
}

// SceneFrames exports a scene snapshot, independent of any live engine.
type SceneFrames struct {
	Scene  *document.Scene
	Canvas document.Canvas
	Output document.Canvas
}

func (s SceneFrames) ExportFrames() int { return s.Scene.Timeline.TotalFrames }

func (s SceneFrames) ExportGraph(i int) *engine.SceneGraph {
	return engine.BuildExportGraph(s.Scene, s.Canvas, s.Output, float64(i))
}

// Job renders the frames of one export into its own temporary directory.
// Close removes the directory.
type Job struct {
	ID string

	src      FrameSource
	dir      string
	next     int
	renderer *raster.Renderer

	closeOnce sync.Once
	closeErr  error
}

// NewJob creates a job and its working directory.
func NewJob(src FrameSource) (*Job, error) {
	if src.ExportFrames() <= 0 {
		return nil, ErrNoFrames
	}
	dir, err := os.MkdirTemp("", "spline-export-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	return &Job{
		ID:       typeid.NewExportID(),
		src:      src,
		dir:      dir,
		renderer: raster.NewRenderer(),
	}, nil
}

// Dir is where frames are written.
func (j *Job) Dir() string { return j.dir }

// Frames is the total number of frames.
func (j *Job) Frames() int { return j.src.ExportFrames() }

// Next renders the next frame and returns its index. It returns io.EOF
// once every frame is written.
func (j *Job) Next(ctx context.Context) (int, error) {
	if ctx.Err() != nil {
		return j.next, ErrCancelled
	}
	if j.next >= j.src.ExportFrames() {
		return j.next, io.EOF
	}
	i := j.next
	img := j.renderer.Render(j.src.ExportGraph(i))

	f, err := os.Create(filepath.Join(j.dir, fmt.Sprintf(framePattern, i)))
	if err != nil {
		return i, fmt.Errorf("create frame: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return i, fmt.Errorf("encode frame %d: %w", i, err)
	}
	if err := f.Close(); err != nil {
		return i, fmt.Errorf("write frame %d: %w", i, err)
	}
	j.next++
	return i, nil
}

// RenderAll renders the remaining frames.
func (j *Job) RenderAll(ctx context.Context) error {
	for {
		if _, err := j.Next(ctx); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// Close removes the job directory. It is safe to call more than once.
func (j *Job) Close() error {
	j.closeOnce.Do(func() {
		j.closeErr = os.RemoveAll(j.dir)
	})
	return j.closeErr
}
