package editor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tordrt/erdcanvas/internal/render"
	"github.com/tordrt/erdcanvas/internal/schema"
	"github.com/tordrt/erdcanvas/internal/store"
)

func newEditor(t *testing.T, opts Options) *Editor {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = Discard
	}
	return New(schema.Sample(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), opts)
}

func yes(string) bool { return true }

// state serializes everything undo must restore
func state(t *testing.T, e *Editor) string {
	t.Helper()
	data, err := json.Marshal(Record{Schema: e.Schema(), Positions: e.Layout()})
	if err != nil {
		t.Fatalf("failed to encode state: %v", err)
	}
	return string(data)
}

func TestUndoRestoresPriorState(t *testing.T) {
	tests := []struct {
		name string
		op   func(e *Editor) error
	}{
		{name: "add table", op: func(e *Editor) error { e.AddTable(); return nil }},
		{name: "delete table", op: func(e *Editor) error { return e.DeleteTable("users") }},
		{name: "rename table", op: func(e *Editor) error { return e.RenameTable("posts", "articles") }},
		{name: "add column", op: func(e *Editor) error { _, err := e.AddColumn("users"); return err }},
		{name: "delete column", op: func(e *Editor) error { return e.DeleteColumn("posts", 1) }},
		{name: "update column", op: func(e *Editor) error {
			return e.UpdateColumn("users", 1, schema.Column{Name: "login", Type: "TEXT"})
		}},
		{name: "toggle primary key", op: func(e *Editor) error { return e.TogglePrimaryKey("comments", "post_id") }},
		{name: "toggle constraint", op: func(e *Editor) error {
			return e.ToggleConstraint("posts", "content", schema.NotNull)
		}},
		{name: "add relationship", op: func(e *Editor) error { _, err := e.AddDefaultRelationship("users"); return err }},
		{name: "delete relationship", op: func(e *Editor) error { return e.DeleteRelationship("comments", 0) }},
		{name: "clear schema", op: func(e *Editor) error {
			if !e.ClearSchema() {
				return errors.New("not cleared")
			}
			return nil
		}},
		{name: "drag table", op: func(e *Editor) error {
			e.PointerDown(60, 70)
			e.PointerMove(160, 370)
			e.PointerUp()
			return nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t, Options{Confirm: yes})
			before := state(t, e)

			if err := tt.op(e); err != nil {
				t.Fatalf("op failed: %v", err)
			}
			after := state(t, e)
			if after == before {
				t.Fatal("op did not change the state")
			}

			if !e.Undo() {
				t.Fatal("Undo() = false")
			}
			if got := state(t, e); got != before {
				t.Errorf("state after undo differs\ngot:  %s\nwant: %s", got, before)
			}

			if !e.Redo() {
				t.Fatal("Redo() = false")
			}
			if got := state(t, e); got != after {
				t.Errorf("state after redo differs\ngot:  %s\nwant: %s", got, after)
			}
		})
	}
}

func TestUndoSequenceRestoresStart(t *testing.T) {
	e := newEditor(t, Options{Confirm: yes})
	start := state(t, e)

	ops := []func() error{
		func() error { e.AddTable(); return nil },
		func() error { return e.RenameTable("posts", "articles") },
		func() error {
			e.PointerDown(60, 70)
			e.PointerMove(460, 570)
			e.PointerUp()
			return nil
		},
		func() error { _, err := e.AddColumn("articles"); return err },
		func() error {
			return e.UpdateColumn("users", 1, schema.Column{Name: "login", Type: "TEXT", Constraints: []schema.Constraint{schema.Unique}})
		},
		func() error { return e.TogglePrimaryKey("comments", "post_id") },
		func() error { _, err := e.AddDefaultRelationship("new_table_4"); return err },
		func() error { return e.DeleteColumn("comments", 3) },
		func() error { return e.DeleteTable("users") },
		func() error {
			e.PointerDown(360, 70)
			e.PointerMove(700, 600)
			e.PointerUp()
			return nil
		},
	}

	states := []string{start}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		got := state(t, e)
		if got == states[len(states)-1] {
			t.Fatalf("op %d did not change the state", i)
		}
		states = append(states, got)
	}

	for i := len(ops); i > 0; i-- {
		if !e.Undo() {
			t.Fatalf("Undo() = false with %d steps left", i)
		}
		if got := state(t, e); got != states[i-1] {
			t.Fatalf("state after undoing op %d differs\ngot:  %s\nwant: %s", i-1, got, states[i-1])
		}
	}
	if e.CanUndo() {
		t.Error("Expected history to be exhausted")
	}
	if got := state(t, e); got != start {
		t.Errorf("state after undoing everything differs\ngot:  %s\nwant: %s", got, start)
	}
}

func TestClearConfirmationMessage(t *testing.T) {
	var asked string
	e := newEditor(t, Options{Confirm: func(msg string) bool { asked = msg; return true }})
	if !e.ClearSchema() {
		t.Fatal("ClearSchema() = false")
	}
	if asked != "Are you sure you want to clear all tables?" {
		t.Errorf("confirmation = %q", asked)
	}
	if !e.Undo() || len(e.Schema().Tables) != 3 {
		t.Error("Expected undo to restore the cleared tables")
	}
}

func TestRejectedEditsLeaveHistoryAlone(t *testing.T) {
	e := newEditor(t, Options{})
	name := e.AddTable()
	e.history.Reset()
	before := state(t, e)

	if err := e.DeleteColumn(name, 0); !errors.Is(err, schema.ErrLastColumn) {
		t.Errorf("DeleteColumn error = %v, want ErrLastColumn", err)
	}
	if err := e.RenameTable("posts", "users"); !errors.Is(err, schema.ErrDuplicateTable) {
		t.Errorf("RenameTable error = %v, want ErrDuplicateTable", err)
	}
	if err := e.ToggleConstraint("users", "id", "SPARSE"); !errors.Is(err, schema.ErrUnknownConstraint) {
		t.Errorf("ToggleConstraint error = %v, want ErrUnknownConstraint", err)
	}
	if err := e.AddRelationship("users", schema.Relationship{ForeignKey: "nope"}); !errors.Is(err, schema.ErrForeignKeyNotFound) {
		t.Errorf("AddRelationship error = %v, want ErrForeignKeyNotFound", err)
	}

	if e.CanUndo() {
		t.Error("Rejected edits must not be recorded")
	}
	if got := state(t, e); got != before {
		t.Error("Rejected edits changed the state")
	}
}

func TestEditClearsRedo(t *testing.T) {
	e := newEditor(t, Options{})
	e.AddTable()
	e.Undo()
	if !e.CanRedo() {
		t.Fatal("Expected redo after undo")
	}

	e.AddTable()
	if e.CanRedo() {
		t.Error("A new edit must clear redo")
	}
	if e.Redo() {
		t.Error("Redo() = true with empty redo stack")
	}
}

func TestUndoEmpty(t *testing.T) {
	e := newEditor(t, Options{})
	before := state(t, e)
	if e.Undo() {
		t.Error("Undo() = true with empty history")
	}
	if state(t, e) != before {
		t.Error("Undo on empty history changed state")
	}
}

func TestHistoryCapacity(t *testing.T) {
	e := newEditor(t, Options{})
	for i := 0; i < 60; i++ {
		e.AddTable()
	}

	undone := 0
	for e.Undo() {
		undone++
	}
	if undone != 50 {
		t.Errorf("undid %d edits, want 50", undone)
	}
	if got := len(e.Schema().Tables); got != 13 {
		t.Errorf("oldest reachable state has %d tables, want 13", got)
	}
}

func TestDeleteSelectedTableCascades(t *testing.T) {
	var asked, told string
	e := newEditor(t, Options{
		Confirm: func(msg string) bool { asked = msg; return true },
		Notify:  func(msg string) { told = msg },
	})

	if err := e.Select("users"); err != nil {
		t.Fatal(err)
	}
	if !e.DeleteSelectedTable() {
		t.Fatal("DeleteSelectedTable() = false")
	}

	if !strings.Contains(asked, "delete table 'users'") || !strings.Contains(asked, "related relationships") {
		t.Errorf("confirmation = %q", asked)
	}
	if told != "Table 'users' deleted" {
		t.Errorf("notification = %q", told)
	}
	if e.Schema().Table("users") != nil {
		t.Error("users still present")
	}
	if _, ok := e.Layout().Get("users"); ok {
		t.Error("users still in layout")
	}
	if e.Selected() != "" {
		t.Errorf("Selected() = %q, want none", e.Selected())
	}
	for _, tbl := range e.Schema().Tables {
		for _, rel := range tbl.Relationships {
			if rel.ReferencesTable == "users" {
				t.Errorf("%s still references users", tbl.Name)
			}
		}
	}
	if n := len(e.Schema().Table("comments").Relationships); n != 1 {
		t.Errorf("comments has %d relationships, want 1", n)
	}
}

func TestDestructiveActionsNeedConfirmation(t *testing.T) {
	e := newEditor(t, Options{Confirm: func(string) bool { return false }})
	before := state(t, e)

	_ = e.Select("posts")
	if e.DeleteSelectedTable() {
		t.Error("DeleteSelectedTable() = true when declined")
	}
	if e.ClearSchema() {
		t.Error("ClearSchema() = true when declined")
	}

	// nil Confirm declines too
	e.confirm = nil
	if e.ClearSchema() {
		t.Error("ClearSchema() = true without a Confirm callback")
	}

	if state(t, e) != before || e.CanUndo() {
		t.Error("Declined actions changed the editor")
	}
	if e.Selected() != "posts" {
		t.Errorf("Selected() = %q, want posts", e.Selected())
	}
}

func TestDeleteConfirmationWithoutRelationships(t *testing.T) {
	var asked string
	e := newEditor(t, Options{Confirm: func(msg string) bool { asked = msg; return true }})
	name := e.AddTable()
	_ = e.Select(name)
	e.DeleteSelectedTable()

	if asked != "Are you sure you want to delete table 'new_table_4'?" {
		t.Errorf("confirmation = %q", asked)
	}
}

func TestRenameMovesGeometry(t *testing.T) {
	e := newEditor(t, Options{})
	_ = e.Select("users")
	want, _ := e.Layout().Get("users")

	if err := e.RenameTable("users", "  members "); err != nil {
		t.Fatal(err)
	}

	got, ok := e.Layout().Get("members")
	if !ok || got != want {
		t.Errorf("members rect = %+v (%v), want %+v", got, ok, want)
	}
	if _, ok := e.Layout().Get("users"); ok {
		t.Error("old name still in layout")
	}
	if e.Selected() != "members" {
		t.Errorf("selection did not follow rename: %q", e.Selected())
	}
	if e.Schema().Table("posts").Relationships[0].ReferencesTable != "users" {
		t.Error("relationships must keep the old name")
	}
}

func TestColumnEditsResizeTable(t *testing.T) {
	e := newEditor(t, Options{})
	name := e.AddTable()
	r, _ := e.Layout().Get(name)
	if r.Height != 120 || r.X != 50 || r.Y != 300 {
		t.Errorf("new table rect = %+v", r)
	}

	for i := 0; i < 3; i++ {
		if _, err := e.AddColumn(name); err != nil {
			t.Fatal(err)
		}
	}
	r, _ = e.Layout().Get(name)
	if r.Height != 160 {
		t.Errorf("height after 4 columns = %v, want 160", r.Height)
	}

	_ = e.DeleteColumn(name, 3)
	r, _ = e.Layout().Get(name)
	if r.Height != 135 {
		t.Errorf("height after 3 columns = %v, want 135", r.Height)
	}
}

func TestPointerDownSelectsAndStartsDrag(t *testing.T) {
	e := newEditor(t, Options{})
	e.PointerDown(60, 70)

	if e.Selected() != "users" {
		t.Fatalf("Selected() = %q, want users", e.Selected())
	}
	sc := e.Scene()
	if !sc.Drag.Active || sc.Drag.Table != "users" || sc.Drag.OffsetX != 10 || sc.Drag.OffsetY != 20 {
		t.Errorf("drag = %+v", sc.Drag)
	}

	e.PointerUp()
	if e.Dragging() {
		t.Error("still dragging after PointerUp")
	}
	if e.Selected() != "users" {
		t.Error("selection must survive the release")
	}
	if e.CanUndo() {
		t.Error("a click without movement must not be recorded")
	}

	e.PointerDown(10, 10)
	if e.Selected() != "" || e.Dragging() {
		t.Error("press on empty canvas must clear selection")
	}
}

func TestPointerMoveKeepsGrabOffset(t *testing.T) {
	e := newEditor(t, Options{})
	e.PointerDown(360, 60)
	e.PointerMove(500, 400)
	e.PointerMove(510, 420)

	r, _ := e.Layout().Get("posts")
	if r.X != 500 || r.Y != 410 {
		t.Errorf("posts at (%v, %v), want (500, 410)", r.X, r.Y)
	}

	e.PointerUp()
	e.PointerMove(0, 0)
	if r2, _ := e.Layout().Get("posts"); r2 != r {
		t.Error("PointerMove after release moved the table")
	}

	if !e.Undo() {
		t.Fatal("drag was not recorded")
	}
	r, _ = e.Layout().Get("posts")
	if r.X != 350 || r.Y != 50 {
		t.Errorf("posts after undo at (%v, %v), want (350, 50)", r.X, r.Y)
	}
}

func TestHandlePointerUsesViewport(t *testing.T) {
	e := newEditor(t, Options{})
	e.Viewport = Viewport{Left: 100, Top: 40}

	if !e.HandlePointer(PointerEvent{Kind: PointerDown, ClientX: 160, ClientY: 110}) {
		t.Fatal("down not handled")
	}
	if e.Selected() != "users" {
		t.Fatalf("Selected() = %q, want users", e.Selected())
	}
	if e.HandlePointer(PointerEvent{Kind: "wheel"}) {
		t.Error("unknown kind reported as handled")
	}
}

func TestUndoClearsSelectionAndDrag(t *testing.T) {
	e := newEditor(t, Options{})
	e.AddTable()
	e.PointerDown(60, 70)
	e.Undo()

	if e.Selected() != "" || e.Dragging() {
		t.Error("undo must clear selection and drag")
	}
}

func TestKeyDown(t *testing.T) {
	ctx := context.Background()
	var told []string
	s := store.NewMemoryStore()
	e := newEditor(t, Options{
		Store:   s,
		Confirm: yes,
		Notify:  func(msg string) { told = append(told, msg) },
	})

	e.AddTable()
	if !e.KeyDown(ctx, Key{Name: "z", Ctrl: true}) || len(e.Schema().Tables) != 3 {
		t.Error("ctrl+z did not undo")
	}
	if !e.KeyDown(ctx, Key{Name: "y", Meta: true}) || len(e.Schema().Tables) != 4 {
		t.Error("meta+y did not redo")
	}
	if !e.KeyDown(ctx, Key{Name: "s", Ctrl: true}) {
		t.Error("ctrl+s not handled")
	}
	if _, err := s.Get(ctx, DefaultKey); err != nil {
		t.Errorf("ctrl+s did not save: %v", err)
	}
	if e.KeyDown(ctx, Key{Name: "q", Ctrl: true}) {
		t.Error("ctrl+q reported as handled")
	}

	if e.KeyDown(ctx, Key{Name: "Delete"}) {
		t.Error("Delete without selection reported as handled")
	}
	_ = e.Select("comments")
	if !e.KeyDown(ctx, Key{Name: "Delete"}) || e.Schema().Table("comments") != nil {
		t.Error("Delete did not remove the selected table")
	}

	if len(told) != 2 || told[0] != "Schema saved!" {
		t.Errorf("notifications = %v", told)
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	e := newEditor(t, Options{Store: s})
	_ = e.RenameTable("users", "members")
	e.PointerDown(60, 70)
	e.PointerMove(80, 90)
	e.PointerUp()
	if err := e.Save(ctx); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := state(t, e)

	loaded := New(nil, Options{Store: s, Logger: Discard})
	ok, err := loaded.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v", ok, err)
	}
	if got := state(t, loaded); got != want {
		t.Errorf("loaded state differs\ngot:  %s\nwant: %s", got, want)
	}
	if loaded.CanUndo() {
		t.Error("Load must start a fresh history")
	}
}

func TestLoadKeepsStateWhenNothingUsable(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		saved string
	}{
		{name: "absent"},
		{name: "not json", saved: "{schema"},
		{name: "no schema", saved: `{"positions":[]}`},
		{name: "bad positions", saved: `{"schema":{"schemaName":"x","tables":[]},"positions":{"a":1}}`},
		{name: "duplicate tables", saved: `{"schema":{"schemaName":"x","tables":[
			{"tableName":"a","columns":[{"name":"id","type":"INTEGER"}]},
			{"tableName":"a","columns":[{"name":"id","type":"INTEGER"}]}]},"positions":[]}`},
		{name: "table without columns", saved: `{"schema":{"schemaName":"x","tables":[
			{"tableName":"a","columns":[{"name":"id","type":"INTEGER"}]},
			{"tableName":"b","columns":[]}]},"positions":[]}`},
		{name: "unnamed table", saved: `{"schema":{"schemaName":"x","tables":[
			{"tableName":"","columns":[{"name":"id","type":"INTEGER"}]}]},"positions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemoryStore()
			if tt.saved != "" {
				_ = s.Set(ctx, DefaultKey, []byte(tt.saved))
			}
			e := newEditor(t, Options{Store: s})
			before := state(t, e)

			ok, err := e.Load(ctx)
			if err != nil || ok {
				t.Errorf("Load() = %v, %v; want false, nil", ok, err)
			}
			if state(t, e) != before {
				t.Error("Load changed the state")
			}
		})
	}
}

func TestDecodeRecordSyncsLayout(t *testing.T) {
	data := `{
		"schema": {"schemaName": "s", "tables": [
			{"tableName": "a", "columns": [{"name": "id", "type": "INTEGER", "constraints": ["PRIMARY KEY"]}]},
			{"tableName": "b", "columns": [{"name": "id", "type": "INTEGER"}]}
		]},
		"positions": [["a", {"x": 5, "y": 6, "width": 250, "height": 120}], ["gone", {"x": 0, "y": 0, "width": 1, "height": 1}]]
	}`
	rec, err := DecodeRecord([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	if names := strings.Join(rec.Positions.Names(), ","); names != "a,b" {
		t.Errorf("layout names = %s, want a,b", names)
	}
	if r, _ := rec.Positions.Get("a"); r.X != 5 || r.Y != 6 {
		t.Errorf("saved geometry lost: %+v", r)
	}
	a := rec.Schema.Table("a")
	if !a.IsPrimaryKey("id") || a.Columns[0].HasConstraint(schema.PrimaryKey) {
		t.Error("PRIMARY KEY tag was not moved into the primary key list")
	}
}

func TestAutosave(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	e := newEditor(t, Options{Store: s, Autosave: true})

	name := e.AddTable()
	data, err := s.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("no autosave: %v", err)
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Schema.Table(name) == nil {
		t.Errorf("autosaved schema lacks %s", name)
	}
}

func TestOnRender(t *testing.T) {
	var scenes []render.Scene
	e := newEditor(t, Options{OnRender: func(sc render.Scene) { scenes = append(scenes, sc) }})

	e.PointerDown(60, 70)
	e.PointerMove(70, 80)
	e.PointerMove(80, 90)
	e.PointerUp()
	_ = e.DeleteColumn("nope", 0)

	if len(scenes) != 4 {
		t.Fatalf("rendered %d times, want 4", len(scenes))
	}
	if !scenes[1].Drag.Active || scenes[1].Selected != "users" {
		t.Errorf("scene during drag = %+v", scenes[1].Drag)
	}
	if scenes[3].Drag.Active {
		t.Error("final scene still dragging")
	}
}

func TestDraw(t *testing.T) {
	e := newEditor(t, Options{})
	rec := render.NewRecorder(1200, 800)
	e.Draw(rec)

	texts := strings.Join(rec.Texts(), "|")
	for _, want := range []string{"users", "posts", "comments", "N:1"} {
		if !strings.Contains(texts, want) {
			t.Errorf("drawing lacks %q", want)
		}
	}
}
