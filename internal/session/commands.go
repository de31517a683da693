package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"seehuhn.de/go/geom/vec"

	"github.com/splinetool/splinetool/internal/document"
	"github.com/splinetool/splinetool/internal/engine"
	"github.com/splinetool/splinetool/internal/selection"
	"github.com/splinetool/splinetool/internal/typeid"
)

var (
	ErrMissingArgs = errors.New("missing arguments")
	ErrUnknownOp   = errors.New("unknown op")
)

// Exec runs one editor command against e outside a room. Callers own e and
// must not use it concurrently.
func Exec(e *engine.Engine, name string, args json.RawMessage) (any, error) {
	o, ok := ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOp, name)
	}
	return o.run(e, args)
}

type op struct {
	write   bool // needs the writer lease; state is broadcast afterwards
	persist bool // leaves unsaved changes
	run     func(e *engine.Engine, args json.RawMessage) (any, error)
}

func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, ErrMissingArgs
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("invalid arguments: %w", err)
	}
	return v, nil
}

// edit wraps an engine call that takes no arguments.
func edit(persist bool, f func(e *engine.Engine) any) op {
	return op{write: true, persist: persist, run: func(e *engine.Engine, _ json.RawMessage) (any, error) {
		return f(e), nil
	}}
}

func withArgs[T any](write, persist bool, f func(e *engine.Engine, a T) (any, error)) op {
	return op{write: write, persist: persist, run: func(e *engine.Engine, args json.RawMessage) (any, error) {
		a, err := decode[T](args)
		if err != nil {
			return nil, err
		}
		return f(e, a)
	}}
}

func curveField(name string) (selection.CurveField, error) {
	switch f := selection.CurveField(name); f {
	case selection.CurveScale, selection.CurveEasing:
		return f, nil
	}
	return "", fmt.Errorf("unknown curve %q", name)
}

var ops = map[string]op{
	// scene edits
	"addSpline":    edit(true, func(e *engine.Engine) any { return e.AddSpline() }),
	"addAnchor":    edit(true, func(e *engine.Engine) any { return e.AddAnchor() }),
	"clone":        edit(true, func(e *engine.Engine) any { return e.CloneSelection() }),
	"remove":       edit(true, func(e *engine.Engine) any { return e.RemoveSelection() }),
	"deleteSpline": edit(true, func(e *engine.Engine) any { return e.DeleteSelectedSpline() }),
	"addPoint":     edit(true, func(e *engine.Engine) any { return e.AddPointToSelection() }),
	"clearAll":     edit(true, func(e *engine.Engine) any { e.ClearAll(); return nil }),
	"undo":         edit(true, func(e *engine.Engine) any { return e.Undo() }),
	"redo":         edit(true, func(e *engine.Engine) any { return e.Redo() }),
	"sample":       edit(true, func(e *engine.Engine) any { e.LoadSample(); return nil }),
	"load": withArgs(true, true, func(e *engine.Engine, a LoadArgs) (any, error) {
		return nil, e.LoadSceneJSON(a.Scene)
	}),
	"setField": withArgs(true, true, func(e *engine.Engine, a SetFieldArgs) (any, error) {
		return e.SetField(selection.Field(a.Field), a.Value, a.Final)
	}),
	"setTimeline": withArgs(true, true, func(e *engine.Engine, a TimelineArgs) (any, error) {
		e.SetTimeline(a.FPS, a.TotalFrames, a.Final)
		return nil, nil
	}),
	"setCanvas": withArgs(true, true, func(e *engine.Engine, a SizeArgs) (any, error) {
		if a.Width <= 0 || a.Height <= 0 {
			return nil, errors.New("canvas size must be positive")
		}
		e.SetCanvas(document.Canvas{Width: a.Width, Height: a.Height})
		return nil, nil
	}),
	"setOutputSize": withArgs(true, false, func(e *engine.Engine, a SizeArgs) (any, error) {
		if a.Width <= 0 || a.Height <= 0 {
			return nil, errors.New("output size must be positive")
		}
		e.SetOutputSize(document.Canvas{Width: a.Width, Height: a.Height})
		return nil, nil
	}),

	// selection and pointer gestures
	"select": withArgs(true, false, func(e *engine.Engine, a SelectArgs) (any, error) {
		kind := a.Kind
		if kind == "" {
			kind = kindOf(a.ID)
		}
		switch kind {
		case "spline":
			return e.SelectSpline(a.ID), nil
		case "point":
			return e.SelectPoint(a.ID), nil
		case "anchor":
			return e.SelectAnchor(a.ID), nil
		}
		return nil, fmt.Errorf("unknown selection kind %q", kind)
	}),
	"clearSelection": edit(false, func(e *engine.Engine) any { e.ClearSelection(); return nil }),
	"pointerDown": withArgs(true, false, func(e *engine.Engine, a PointerDownArgs) (any, error) {
		button := engine.ButtonLeft
		if a.Button == "right" {
			button = engine.ButtonRight
		}
		e.PointerDown(vec.Vec2{X: a.X, Y: a.Y}, button, a.Ctrl)
		return nil, nil
	}),
	"pointerMove": withArgs(true, false, func(e *engine.Engine, a PointArgs) (any, error) {
		e.PointerMove(vec.Vec2{X: a.X, Y: a.Y})
		return nil, nil
	}),
	"pointerUp": edit(true, func(e *engine.Engine) any { e.PointerUp(); return nil }),
	"doubleClick": withArgs(true, true, func(e *engine.Engine, a PointArgs) (any, error) {
		return e.DoubleClick(vec.Vec2{X: a.X, Y: a.Y}), nil
	}),

	// curves
	"curveAdd": withArgs(true, true, func(e *engine.Engine, a CurveArgs) (any, error) {
		f, err := curveField(a.Curve)
		if err != nil {
			return nil, err
		}
		return nil, e.AddCurvePoint(f, a.X, a.Y)
	}),
	"curveMove": withArgs(true, true, func(e *engine.Engine, a CurveArgs) (any, error) {
		f, err := curveField(a.Curve)
		if err != nil {
			return nil, err
		}
		return e.MoveCurvePoint(f, a.Index, a.X, a.Y, a.Final)
	}),
	"curveRemove": withArgs(true, true, func(e *engine.Engine, a CurveArgs) (any, error) {
		f, err := curveField(a.Curve)
		if err != nil {
			return nil, err
		}
		return nil, e.RemoveCurvePoint(f, a.Index)
	}),
	"curveReset": withArgs(true, true, func(e *engine.Engine, a CurveArgs) (any, error) {
		f, err := curveField(a.Curve)
		if err != nil {
			return nil, err
		}
		return e.ResetCurve(f), nil
	}),

	// playback
	"play":       edit(false, func(e *engine.Engine) any { e.Play(); return nil }),
	"stop":       edit(false, func(e *engine.Engine) any { e.Stop(); return nil }),
	"togglePlay": edit(false, func(e *engine.Engine) any { e.TogglePlay(); return nil }),
	"endScrub":   edit(false, func(e *engine.Engine) any { e.EndScrub(); return nil }),
	"setLooping": withArgs(true, false, func(e *engine.Engine, a LoopArgs) (any, error) {
		e.SetLooping(a.Loop)
		return nil, nil
	}),
	"scrub": withArgs(true, false, func(e *engine.Engine, a ScrubArgs) (any, error) {
		e.Scrub(a.Position)
		return nil, nil
	}),
	"seek": withArgs(true, false, func(e *engine.Engine, a SeekArgs) (any, error) {
		e.SetPlayhead(a.Frame)
		return nil, nil
	}),

	// queries
	"hitTest": withArgs(false, false, func(e *engine.Engine, a PointArgs) (any, error) {
		return e.HitTest(a.X, a.Y), nil
	}),
	"curve": withArgs(false, false, func(e *engine.Engine, a CurveArgs) (any, error) {
		f, err := curveField(a.Curve)
		if err != nil {
			return nil, err
		}
		c, ok := e.Curve(f)
		if !ok {
			return nil, engine.ErrNoCurve
		}
		out := CurvePayload{Points: make([]PointArgs, len(c.Points)), Tension: c.Tension}
		for i, p := range c.Points {
			out.Points[i] = PointArgs{X: p.X, Y: p.Y}
		}
		return out, nil
	}),
}

// kindOf names the entity an ID belongs to by its prefix.
func kindOf(id string) string {
	switch typeid.PrefixOf(id) {
	case typeid.PrefixSpline:
		return "spline"
	case typeid.PrefixPoint:
		return "point"
	case typeid.PrefixAnchor:
		return "anchor"
	}
	return ""
}
