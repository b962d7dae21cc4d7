// Package editor is the interaction controller: it owns the schema, its
// layout, the undo history, the selection and the drag state, and turns
// pointer and keyboard events into edits.
package editor

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/tordrt/erdcanvas/internal/history"
	"github.com/tordrt/erdcanvas/internal/layout"
	"github.com/tordrt/erdcanvas/internal/render"
	"github.com/tordrt/erdcanvas/internal/schema"
	"github.com/tordrt/erdcanvas/internal/store"
)

// DefaultKey is the store key the editor state is saved under
const DefaultKey = "schema-editor-data"

const autosaveTimeout = 5 * time.Second

// Options configures an Editor. Every field is optional.
type Options struct {
	// Store persists the editor state. Save and Load are no-ops without one.
	Store store.Store
	// Key overrides DefaultKey.
	Key string
	// HistoryCapacity overrides history.DefaultCapacity.
	HistoryCapacity int
	// Autosave saves after every committed edit.
	Autosave bool

	// Confirm asks the user to approve a destructive action. A nil Confirm
	// declines everything.
	Confirm func(message string) bool
	// Notify shows a short message to the user.
	Notify func(message string)
	// OnRender receives the scene after every change that needs a redraw.
	OnRender func(render.Scene)

	Logger *log.Logger
}

// Editor holds the application state. It is not safe for concurrent use;
// callers serialize events.
type Editor struct {
	schema   *schema.Schema
	layout   *layout.Layout
	history  *history.Manager
	selected string
	drag     render.DragState

	// dragStart is the state before the current drag, committed to history
	// on release if the table moved.
	dragStart *history.Snapshot
	dragFrom  layout.Rect

	store    store.Store
	key      string
	autosave bool
	confirm  func(string) bool
	notify   func(string)
	onRender func(render.Scene)
	logger   *log.Logger

	// Viewport maps client coordinates onto the canvas.
	Viewport Viewport
}

// New creates an editor showing s. A nil s starts from an empty schema.
func New(s *schema.Schema, opts Options) *Editor {
	if s == nil {
		s = &schema.Schema{Tables: []schema.Table{}}
	}
	s.Normalize()

	e := &Editor{
		schema:   s,
		layout:   layout.FromSchema(s),
		history:  history.New(opts.HistoryCapacity),
		store:    opts.Store,
		key:      opts.Key,
		autosave: opts.Autosave,
		confirm:  opts.Confirm,
		notify:   opts.Notify,
		onRender: opts.OnRender,
		logger:   opts.Logger,
	}
	if e.key == "" {
		e.key = DefaultKey
	}
	if e.logger == nil {
		e.logger = log.New(os.Stderr, "[EDITOR] ", log.LstdFlags)
	}
	return e
}

// SetConfirm replaces the confirmation callback
func (e *Editor) SetConfirm(confirm func(message string) bool) {
	e.confirm = confirm
}

// SetNotify replaces the notification callback
func (e *Editor) SetNotify(notify func(message string)) {
	e.notify = notify
}

// Discard is a logger that drops everything, handy in tests
var Discard = log.New(io.Discard, "", 0)

// Schema returns the live schema. Callers must not modify it; use the
// editor's operations instead.
func (e *Editor) Schema() *schema.Schema {
	return e.schema
}

// Layout returns the live layout. Callers must not modify it.
func (e *Editor) Layout() *layout.Layout {
	return e.layout
}

// Selected returns the selected table name, or ""
func (e *Editor) Selected() string {
	return e.selected
}

// Dragging reports whether a table is being dragged
func (e *Editor) Dragging() bool {
	return e.drag.Active
}

// CanUndo reports whether Undo would change anything
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo reports whether Redo would change anything
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// Scene returns what the canvas should currently show
func (e *Editor) Scene() render.Scene {
	return render.Scene{
		Schema:   e.schema,
		Layout:   e.layout,
		Selected: e.selected,
		Drag:     e.drag,
	}
}

// Draw renders the current scene onto c
func (e *Editor) Draw(c render.Canvas) {
	render.Render(c, e.Scene())
}

func (e *Editor) redraw() {
	if e.onRender != nil {
		e.onRender(e.Scene())
	}
}

func (e *Editor) tell(message string) {
	if e.notify != nil {
		e.notify(message)
	}
}

func (e *Editor) ask(message string) bool {
	return e.confirm != nil && e.confirm(message)
}

// apply runs fn against the live state. On success the prior state is
// recorded for undo; on failure nothing is recorded and fn must have left
// the state untouched.
func (e *Editor) apply(op string, fn func() error) error {
	before := history.Capture(e.schema, e.layout)
	if err := fn(); err != nil {
		e.logger.Printf("%s rejected: %v", op, err)
		return err
	}
	e.history.Push(before)
	e.committed()
	return nil
}

// committed redraws and autosaves after a change that is now in history
func (e *Editor) committed() {
	e.redraw()
	if !e.autosave || e.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()
	if err := e.Save(ctx); err != nil {
		e.logger.Printf("warning: autosave failed: %v", err)
	}
}

// restore replaces the live state with a snapshot from history
func (e *Editor) restore(s history.Snapshot) {
	e.schema = s.Schema
	e.layout = s.Layout
	e.selected = ""
	e.cancelDrag()
	e.committed()
}

// Undo reverts the last edit. It reports false when there is nothing to undo.
func (e *Editor) Undo() bool {
	prev, ok := e.history.Undo(history.Capture(e.schema, e.layout))
	if !ok {
		return false
	}
	e.restore(prev)
	return true
}

// Redo reapplies the last undone edit
func (e *Editor) Redo() bool {
	next, ok := e.history.Redo(history.Capture(e.schema, e.layout))
	if !ok {
		return false
	}
	e.restore(next)
	return true
}
