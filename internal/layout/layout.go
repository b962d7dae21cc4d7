// Package layout stores the canvas rectangle of every table, keyed by table
// name and kept in insertion order.
package layout

import (
	"encoding/json"
	"fmt"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// Grid placement used for new tables
const (
	GridColumns = 3
	GridOriginX = 50
	GridOriginY = 50
	PitchX      = 300
	PitchY      = 250

	DefaultWidth = 250
	MinHeight    = 120
	RowHeight    = 25
	HeaderHeight = 60
)

// Rect is a table's position and size in canvas pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point lies inside r, edges included
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Center returns the geometric center of r
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// HeightFor returns the table height needed to show n columns
func HeightFor(columns int) float64 {
	h := float64(columns*RowHeight + HeaderHeight)
	if h < MinHeight {
		return MinHeight
	}
	return h
}

// GridRect returns the default rectangle for the table at position index
func GridRect(index, columns int) Rect {
	return Rect{
		X:      float64(GridOriginX + (index%GridColumns)*PitchX),
		Y:      float64(GridOriginY + (index/GridColumns)*PitchY),
		Width:  DefaultWidth,
		Height: HeightFor(columns),
	}
}

// Layout maps table names to rectangles
type Layout struct {
	order []string
	rects map[string]Rect
}

// New creates an empty layout
func New() *Layout {
	return &Layout{rects: make(map[string]Rect)}
}

// FromSchema places every table of s on the default grid
func FromSchema(s *schema.Schema) *Layout {
	l := New()
	for i, t := range s.Tables {
		l.Set(t.Name, GridRect(i, len(t.Columns)))
	}
	return l
}

// Len returns the number of entries
func (l *Layout) Len() int {
	return len(l.order)
}

// Names returns table names in iteration order
func (l *Layout) Names() []string {
	return append([]string(nil), l.order...)
}

// Get returns the rectangle for a table
func (l *Layout) Get(name string) (Rect, bool) {
	r, ok := l.rects[name]
	return r, ok
}

// Set stores a rectangle. New names are appended to the iteration order.
func (l *Layout) Set(name string, r Rect) {
	if _, ok := l.rects[name]; !ok {
		l.order = append(l.order, name)
	}
	l.rects[name] = r
}

// Place puts a table at the grid slot for index
func (l *Layout) Place(name string, index, columns int) Rect {
	r := GridRect(index, columns)
	l.Set(name, r)
	return r
}

// Move sets the origin of a table's rectangle
func (l *Layout) Move(name string, x, y float64) bool {
	r, ok := l.rects[name]
	if !ok {
		return false
	}
	r.X, r.Y = x, y
	l.rects[name] = r
	return true
}

// Resize recomputes a table's height for its column count
func (l *Layout) Resize(name string, columns int) bool {
	r, ok := l.rects[name]
	if !ok {
		return false
	}
	r.Height = HeightFor(columns)
	l.rects[name] = r
	return true
}

// Rename moves a rectangle to a new key without touching its geometry. The
// entry moves to the end of the iteration order.
func (l *Layout) Rename(oldName, newName string) bool {
	r, ok := l.rects[oldName]
	if !ok || oldName == newName {
		return ok
	}
	l.Delete(oldName)
	l.Set(newName, r)
	return true
}

// Delete removes a table's rectangle
func (l *Layout) Delete(name string) {
	if _, ok := l.rects[name]; !ok {
		return
	}
	delete(l.rects, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// Clear removes every entry
func (l *Layout) Clear() {
	l.order = nil
	l.rects = make(map[string]Rect)
}

// HitTest returns the first table, in iteration order, whose rectangle
// contains the point.
func (l *Layout) HitTest(x, y float64) (string, Rect, bool) {
	for _, name := range l.order {
		r := l.rects[name]
		if r.Contains(x, y) {
			return name, r, true
		}
	}
	return "", Rect{}, false
}

// Sync makes the layout keys equal the schema's table names: missing tables
// are placed on the grid, entries for unknown tables are dropped.
func (l *Layout) Sync(s *schema.Schema) {
	known := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		known[t.Name] = true
		if _, ok := l.rects[t.Name]; !ok {
			l.Place(t.Name, i, len(t.Columns))
		}
	}
	for _, name := range l.Names() {
		if !known[name] {
			l.Delete(name)
		}
	}
}

// Clone returns an independent copy
func (l *Layout) Clone() *Layout {
	out := &Layout{
		order: append([]string(nil), l.order...),
		rects: make(map[string]Rect, len(l.rects)),
	}
	for k, v := range l.rects {
		out.rects[k] = v
	}
	return out
}

// Equal reports whether both layouts hold the same entries in the same order
func (l *Layout) Equal(other *Layout) bool {
	if len(l.order) != len(other.order) {
		return false
	}
	for i, name := range l.order {
		if other.order[i] != name || l.rects[name] != other.rects[name] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the layout as an ordered list of [name, rect] pairs
func (l *Layout) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, 0, len(l.order))
	for _, name := range l.order {
		pairs = append(pairs, [2]any{name, l.rects[name]})
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON decodes an ordered list of [name, rect] pairs
func (l *Layout) UnmarshalJSON(data []byte) error {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("failed to decode layout: %w", err)
	}

	l.Clear()
	for i, pair := range pairs {
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return fmt.Errorf("failed to decode layout entry %d name: %w", i, err)
		}
		var r Rect
		if err := json.Unmarshal(pair[1], &r); err != nil {
			return fmt.Errorf("failed to decode layout entry %s: %w", name, err)
		}
		l.Set(name, r)
	}
	return nil
}
