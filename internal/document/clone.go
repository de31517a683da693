package document

// Clone returns a deep copy of the spline. Points and curves are copied
// element by element so the result shares nothing with s.
func (s *Spline) Clone() *Spline {
	out := *s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	out.ScaleCurve = s.ScaleCurve.Clone()
	out.EasingCurve = s.EasingCurve.Clone()
	return &out
}

// Clone returns a deep copy of the anchor.
func (a *Anchor) Clone() *Anchor {
	out := *a
	out.ScaleCurve = a.ScaleCurve.Clone()
	return &out
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	out := &Scene{
		Timeline:   s.Timeline,
		ColorIndex: s.ColorIndex,
	}
	if s.Splines != nil {
		out.Splines = make([]*Spline, len(s.Splines))
		for i, sp := range s.Splines {
			out.Splines[i] = sp.Clone()
		}
	}
	if s.Anchors != nil {
		out.Anchors = make([]*Anchor, len(s.Anchors))
		for i, a := range s.Anchors {
			out.Anchors[i] = a.Clone()
		}
	}
	return out
}
