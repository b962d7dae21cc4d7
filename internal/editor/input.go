package editor

import (
	"context"
	"strings"

	"github.com/tordrt/erdcanvas/internal/history"
	"github.com/tordrt/erdcanvas/internal/render"
)

// Viewport is the canvas position within the client area
type Viewport struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// ToCanvas converts client coordinates to canvas coordinates
func (v Viewport) ToCanvas(clientX, clientY float64) (float64, float64) {
	return clientX - v.Left, clientY - v.Top
}

// Pointer event kinds
const (
	PointerDown = "down"
	PointerMove = "move"
	PointerUp   = "up"
)

// PointerEvent is a pointer event in client coordinates
type PointerEvent struct {
	Kind    string  `json:"kind"`
	ClientX float64 `json:"clientX"`
	ClientY float64 `json:"clientY"`
}

// HandlePointer dispatches ev after mapping it through the viewport. It
// reports false for an unknown kind.
func (e *Editor) HandlePointer(ev PointerEvent) bool {
	x, y := e.Viewport.ToCanvas(ev.ClientX, ev.ClientY)
	switch ev.Kind {
	case PointerDown:
		e.PointerDown(x, y)
	case PointerMove:
		e.PointerMove(x, y)
	case PointerUp:
		e.PointerUp()
	default:
		return false
	}
	return true
}

// PointerDown selects the table under the point and starts dragging it. A
// press on empty canvas clears the selection.
func (e *Editor) PointerDown(x, y float64) {
	e.cancelDrag()

	name, r, ok := e.layout.HitTest(x, y)
	if !ok {
		e.selected = ""
		e.redraw()
		return
	}

	start := history.Capture(e.schema, e.layout)
	e.selected = name
	e.drag = render.DragState{
		Active:  true,
		Table:   name,
		OffsetX: x - r.X,
		OffsetY: y - r.Y,
	}
	e.dragStart = &start
	e.dragFrom = r
	e.redraw()
}

// PointerMove drags the table so the grab offset stays under the pointer
func (e *Editor) PointerMove(x, y float64) {
	if !e.drag.Active {
		return
	}
	e.layout.Move(e.drag.Table, x-e.drag.OffsetX, y-e.drag.OffsetY)
	e.redraw()
}

// PointerUp ends a drag. A drag that moved the table becomes one undo step.
func (e *Editor) PointerUp() {
	if !e.drag.Active {
		return
	}
	r, ok := e.layout.Get(e.drag.Table)
	moved := ok && (r.X != e.dragFrom.X || r.Y != e.dragFrom.Y)
	start := e.dragStart
	e.cancelDrag()

	if moved && start != nil {
		e.history.Push(*start)
		e.committed()
		return
	}
	e.redraw()
}

func (e *Editor) cancelDrag() {
	e.drag = render.DragState{}
	e.dragStart = nil
}

// Key is a key press with its modifier state
type Key struct {
	Name string `json:"key"`
	Ctrl bool   `json:"ctrlKey,omitempty"`
	Meta bool   `json:"metaKey,omitempty"`
}

// Mod reports whether the platform command modifier is held
func (k Key) Mod() bool {
	return k.Ctrl || k.Meta
}

// KeyDown handles the keyboard shortcuts: mod+Z undo, mod+Y redo, mod+S save
// and Delete for the selected table. It reports whether the key was bound.
func (e *Editor) KeyDown(ctx context.Context, k Key) bool {
	if k.Mod() {
		switch strings.ToLower(k.Name) {
		case "z":
			e.Undo()
		case "y":
			e.Redo()
		case "s":
			if err := e.Save(ctx); err != nil {
				e.logger.Printf("warning: save failed: %v", err)
				e.tell("Failed to save schema")
				return true
			}
			e.tell("Schema saved!")
		default:
			return false
		}
		return true
	}

	if k.Name == "Delete" && e.selected != "" {
		e.DeleteSelectedTable()
		return true
	}
	return false
}
