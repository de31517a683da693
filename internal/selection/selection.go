// Package selection resolves what the user has selected to the entities that
// own it, and fans field and curve edits out to all of them.
package selection

import (
	"slices"

	"github.com/splinetool/splinetool/internal/document"
)

type Kind int

const (
	KindPoint Kind = iota
	KindSpline
	KindAnchor
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindSpline:
		return "spline"
	case KindAnchor:
		return "anchor"
	default:
		return "unknown"
	}
}

// Item is one selected thing, addressed by ID.
type Item struct {
	Kind Kind
	ID   string
}

func Point(id string) Item  { return Item{Kind: KindPoint, ID: id} }
func Spline(id string) Item { return Item{Kind: KindSpline, ID: id} }
func Anchor(id string) Item { return Item{Kind: KindAnchor, ID: id} }

// Selection is the editor's selection. The single selection names at most one
// spline (optionally one of its points) or one anchor; Multi is used instead
// when non-empty.
type Selection struct {
	Spline string
	Point  string
	Anchor string
	Multi  []Item
}

// Items returns the items edits apply to.
func (s Selection) Items() []Item {
	if len(s.Multi) > 0 {
		return s.Multi
	}
	var items []Item
	if s.Spline != "" {
		items = append(items, Spline(s.Spline))
	}
	if s.Anchor != "" {
		items = append(items, Anchor(s.Anchor))
	}
	return items
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.Spline == "" && s.Point == "" && s.Anchor == "" && len(s.Multi) == 0
}

// Contains reports whether it is part of the multi-selection.
func (s Selection) Contains(it Item) bool {
	return slices.Contains(s.Multi, it)
}

// Toggle adds it to the multi-selection, or removes it if present.
func (s *Selection) Toggle(it Item) {
	if i := slices.Index(s.Multi, it); i >= 0 {
		s.Multi = slices.Delete(s.Multi, i, i+1)
		return
	}
	s.Multi = append(s.Multi, it)
}

// ToggleSpline selects every point of sp, or deselects them all when they
// are already all selected.
func (s *Selection) ToggleSpline(sp *document.Spline) {
	all := len(sp.Points) > 0
	for _, p := range sp.Points {
		if !s.Contains(Point(p.ID)) {
			all = false
			break
		}
	}
	for _, p := range sp.Points {
		it := Point(p.ID)
		if all {
			s.Multi = slices.DeleteFunc(s.Multi, func(m Item) bool { return m == it })
		} else if !s.Contains(it) {
			s.Multi = append(s.Multi, it)
		}
	}
}

// Clear drops everything.
func (s *Selection) Clear() {
	*s = Selection{}
}

// ClearSingle drops the single selection and keeps the multi-selection.
func (s *Selection) ClearSingle() {
	s.Spline, s.Point, s.Anchor = "", "", ""
}

// Prune removes references to entities that no longer exist in scene.
func (s *Selection) Prune(scene *document.Scene) {
	if _, ok := scene.Spline(s.Spline); s.Spline != "" && !ok {
		s.Spline, s.Point = "", ""
	}
	if _, _, ok := scene.SplineOfPoint(s.Point); s.Point != "" && !ok {
		s.Point = ""
	}
	if _, ok := scene.Anchor(s.Anchor); s.Anchor != "" && !ok {
		s.Anchor = ""
	}
	s.Multi = slices.DeleteFunc(s.Multi, func(it Item) bool {
		return OwnerOf(scene, it) == nil
	})
}
