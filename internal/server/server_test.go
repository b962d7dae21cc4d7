package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tordrt/erdcanvas/internal/config"
	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/schema"
	"github.com/tordrt/erdcanvas/internal/store"
)

type response struct {
	Status   string          `json:"status"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Error    string          `json:"error"`
	Messages []string        `json:"messages"`
}

func newServer(t *testing.T, opts editor.Options) (*Server, *editor.Editor) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if opts.Logger == nil {
		opts.Logger = editor.Discard
	}
	ed := editor.New(schema.Sample(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), opts)
	cfg := config.Default()
	cfg.Server.Mode = gin.TestMode
	return New(ed, cfg.Server, cfg.Canvas), ed
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var resp response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && !strings.HasPrefix(path, "/api/export") {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s %s: invalid response body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w, resp
}

func decodeState(t *testing.T, data json.RawMessage) State {
	t.Helper()
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return st
}

func TestGetSchema(t *testing.T) {
	s, _ := newServer(t, editor.Options{})
	w, resp := do(t, s, http.MethodGet, "/api/schema", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var got schema.Schema
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to decode schema: %v", err)
	}
	if got.Name != "BloggingPlatform" || len(got.Tables) != 3 {
		t.Errorf("Unexpected schema: %s with %d tables", got.Name, len(got.Tables))
	}
}

func TestTableLifecycle(t *testing.T) {
	s, ed := newServer(t, editor.Options{})

	w, _ := do(t, s, http.MethodPost, "/api/tables", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", w.Code)
	}
	if ed.Schema().Table("new_table_4") == nil {
		t.Fatal("Expected new_table_4 to be added")
	}

	w, _ = do(t, s, http.MethodPut, "/api/tables/new_table_4", `{"name":"tags"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Rename: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ed.Schema().Table("tags") == nil {
		t.Fatal("Expected table to be renamed")
	}

	w, resp := do(t, s, http.MethodPut, "/api/tables/tags", `{"name":"users"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Duplicate rename: expected 409, got %d", w.Code)
	}
	if resp.Status != "error" || resp.Error == "" {
		t.Errorf("Expected error envelope, got %+v", resp)
	}

	w, _ = do(t, s, http.MethodDelete, "/api/tables/tags", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Unconfirmed delete: expected 409, got %d", w.Code)
	}
	if ed.Schema().Table("tags") == nil {
		t.Fatal("Unconfirmed delete removed the table")
	}

	w, resp = do(t, s, http.MethodDelete, "/api/tables/tags?confirm=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Confirmed delete: expected 200, got %d", w.Code)
	}
	if ed.Schema().Table("tags") != nil {
		t.Error("Expected table to be deleted")
	}
	if len(resp.Messages) != 1 || resp.Messages[0] != "Table 'tags' deleted" {
		t.Errorf("Expected deletion notice, got %v", resp.Messages)
	}

	w, _ = do(t, s, http.MethodDelete, "/api/tables/missing?confirm=true", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Missing table: expected 404, got %d", w.Code)
	}
}

func TestDeclinedDeleteKeepsSelection(t *testing.T) {
	s, ed := newServer(t, editor.Options{})
	if err := ed.Select("posts"); err != nil {
		t.Fatal(err)
	}
	do(t, s, http.MethodDelete, "/api/tables/users", "")
	if ed.Selected() != "posts" {
		t.Errorf("Expected selection to be restored, got %q", ed.Selected())
	}
}

func TestColumnEdits(t *testing.T) {
	s, ed := newServer(t, editor.Options{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "add column", method: http.MethodPost, path: "/api/tables/posts/columns", want: http.StatusCreated},
		{name: "update column", method: http.MethodPut, path: "/api/tables/posts/columns/3", body: `{"name":"body","type":"TEXT","constraints":["NOT NULL"]}`, want: http.StatusOK},
		{name: "unknown type", method: http.MethodPut, path: "/api/tables/posts/columns/3", body: `{"name":"body","type":"BLOB"}`, want: http.StatusUnprocessableEntity},
		{name: "bad index", method: http.MethodPut, path: "/api/tables/posts/columns/x", body: `{"name":"a","type":"TEXT"}`, want: http.StatusBadRequest},
		{name: "missing column", method: http.MethodDelete, path: "/api/tables/posts/columns/99", want: http.StatusNotFound},
		{name: "delete column", method: http.MethodDelete, path: "/api/tables/posts/columns/6", want: http.StatusOK},
		{name: "toggle primary key", method: http.MethodPost, path: "/api/tables/posts/primary-key", body: `{"column":"user_id"}`, want: http.StatusOK},
		{name: "toggle constraint", method: http.MethodPost, path: "/api/tables/posts/constraints", body: `{"column":"title","constraint":"UNIQUE"}`, want: http.StatusOK},
		{name: "unknown constraint", method: http.MethodPost, path: "/api/tables/posts/constraints", body: `{"column":"title","constraint":"BOGUS"}`, want: http.StatusUnprocessableEntity},
		{name: "malformed body", method: http.MethodPost, path: "/api/tables/posts/primary-key", body: `{`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := do(t, s, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}

	posts := ed.Schema().Table("posts")
	if posts.Columns[3].Name != "body" {
		t.Errorf("Expected column 3 to be renamed, got %s", posts.Columns[3].Name)
	}
	if !posts.IsPrimaryKey("user_id") {
		t.Error("Expected user_id to join the primary key")
	}
	if !posts.Column("title").HasConstraint(schema.Unique) {
		t.Error("Expected title to be UNIQUE")
	}
}

func TestRelationshipEdits(t *testing.T) {
	s, ed := newServer(t, editor.Options{})

	w, _ := do(t, s, http.MethodPost, "/api/tables/users/relationships", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("Default relationship: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if n := len(ed.Schema().Table("users").Relationships); n != 1 {
		t.Fatalf("Expected 1 relationship, got %d", n)
	}

	rel := `{"type":"ONE-TO-ONE","foreignKey":"id","referencesTable":"posts","referencesColumn":"id","onDelete":"RESTRICT","onUpdate":"NO ACTION"}`
	w, _ = do(t, s, http.MethodPut, "/api/tables/users/relationships/0", rel)
	if w.Code != http.StatusOK {
		t.Fatalf("Update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := ed.Schema().Table("users").Relationships[0]; got.Type != schema.OneToOne || got.OnDelete != schema.Restrict {
		t.Errorf("Relationship not updated: %+v", got)
	}

	w, _ = do(t, s, http.MethodPost, "/api/tables/users/relationships", `{"type":"MANY-TO-ONE","foreignKey":"nope","referencesTable":"posts","referencesColumn":"id","onDelete":"CASCADE","onUpdate":"CASCADE"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Unknown foreign key: expected 422, got %d", w.Code)
	}

	w, _ = do(t, s, http.MethodDelete, "/api/tables/users/relationships/0", "")
	if w.Code != http.StatusOK {
		t.Errorf("Delete: expected 200, got %d", w.Code)
	}
	w, _ = do(t, s, http.MethodDelete, "/api/tables/users/relationships/0", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Delete missing: expected 404, got %d", w.Code)
	}
}

func TestUndoRedo(t *testing.T) {
	s, ed := newServer(t, editor.Options{})
	do(t, s, http.MethodPost, "/api/tables", "")

	_, resp := do(t, s, http.MethodPost, "/api/undo", "")
	st := decodeState(t, resp.Data)
	if len(st.Tables) != 3 || st.CanUndo || !st.CanRedo {
		t.Errorf("Unexpected state after undo: %+v", st)
	}

	_, resp = do(t, s, http.MethodPost, "/api/redo", "")
	st = decodeState(t, resp.Data)
	if len(st.Tables) != 4 || !st.CanUndo || st.CanRedo {
		t.Errorf("Unexpected state after redo: %+v", st)
	}
	if ed.Schema().Table("new_table_4") == nil {
		t.Error("Expected redo to restore new_table_4")
	}
}

func TestPointerDrag(t *testing.T) {
	s, ed := newServer(t, editor.Options{})

	do(t, s, http.MethodPut, "/api/viewport", `{"left":10,"top":20}`)
	for _, ev := range []string{
		`{"kind":"down","clientX":70,"clientY":80}`,
		`{"kind":"move","clientX":170,"clientY":180}`,
		`{"kind":"up"}`,
	} {
		if w, _ := do(t, s, http.MethodPost, "/api/pointer", ev); w.Code != http.StatusOK {
			t.Fatalf("Pointer %s: expected 200, got %d", ev, w.Code)
		}
	}

	r, _ := ed.Layout().Get("users")
	if r.X != 150 || r.Y != 150 {
		t.Errorf("Expected users at (150,150), got (%v,%v)", r.X, r.Y)
	}
	if ed.Selected() != "users" || !ed.CanUndo() {
		t.Errorf("Expected users selected with an undoable move")
	}

	if w, _ := do(t, s, http.MethodPost, "/api/pointer", `{"kind":"hover"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Unknown kind: expected 400, got %d", w.Code)
	}
}

func TestKeys(t *testing.T) {
	s, ed := newServer(t, editor.Options{Store: store.NewMemoryStore()})
	do(t, s, http.MethodPost, "/api/tables", "")

	_, resp := do(t, s, http.MethodPost, "/api/keys", `{"key":"s","ctrlKey":true}`)
	if len(resp.Messages) != 1 || resp.Messages[0] != "Schema saved!" {
		t.Errorf("Expected save notice, got %v", resp.Messages)
	}

	do(t, s, http.MethodPost, "/api/keys", `{"key":"Z","metaKey":true}`)
	if ed.Schema().Table("new_table_4") != nil {
		t.Error("Expected mod+Z to undo")
	}

	_, resp = do(t, s, http.MethodPost, "/api/keys", `{"key":"q"}`)
	var got struct {
		Handled bool `json:"handled"`
	}
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Handled {
		t.Error("Expected unbound key to be unhandled")
	}
}

func TestSaveLoad(t *testing.T) {
	s, ed := newServer(t, editor.Options{Store: store.NewMemoryStore()})

	w, resp := do(t, s, http.MethodPost, "/api/save", "")
	if w.Code != http.StatusOK || resp.Message != "Schema saved!" {
		t.Fatalf("Save failed: %d %+v", w.Code, resp)
	}

	do(t, s, http.MethodPost, "/api/clear?confirm=true", "")
	if len(ed.Schema().Tables) != 0 {
		t.Fatal("Expected schema to be cleared")
	}

	_, resp = do(t, s, http.MethodPost, "/api/load", "")
	var got struct {
		Loaded bool  `json:"loaded"`
		State  State `json:"state"`
	}
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Loaded || len(got.State.Tables) != 3 {
		t.Errorf("Expected saved schema to be loaded, got %+v", got)
	}
	if got.State.CanUndo {
		t.Error("Expected load to reset history")
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	s, ed := newServer(t, editor.Options{})
	w, _ := do(t, s, http.MethodPost, "/api/clear", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
	if len(ed.Schema().Tables) != 3 {
		t.Error("Unconfirmed clear modified the schema")
	}
}

func TestExports(t *testing.T) {
	s, _ := newServer(t, editor.Options{})

	tests := []struct {
		path        string
		contentType string
		filename    string
		contains    string
	}{
		{path: "/api/export.sql", contentType: "application/sql", filename: "BloggingPlatform.sql", contains: "CREATE TABLE users ("},
		{path: "/api/export.json", contentType: "application/json", filename: "BloggingPlatform.json", contains: `"schemaName": "BloggingPlatform"`},
		{path: "/api/export.md", contentType: "text/markdown", filename: "BloggingPlatform.md", contains: "# BloggingPlatform"},
		{path: "/api/export.txt", contentType: "text/plain", filename: "BloggingPlatform.txt", contains: "TABLE users (PK: id)"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, _ := do(t, s, http.MethodGet, tt.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Expected content type %s, got %s", tt.contentType, ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.filename) {
				t.Errorf("Expected filename %s in %q", tt.filename, cd)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("Expected %q in export", tt.contains)
			}
		})
	}
}

func TestScene(t *testing.T) {
	s, _ := newServer(t, editor.Options{})
	_, resp := do(t, s, http.MethodGet, "/api/scene", "")

	var scene struct {
		Width float64 `json:"width"`
		Ops   []struct {
			Op   string `json:"op"`
			Text string `json:"text"`
		} `json:"ops"`
	}
	if err := json.Unmarshal(resp.Data, &scene); err != nil {
		t.Fatal(err)
	}
	if scene.Width != 1200 {
		t.Errorf("Expected configured canvas width, got %v", scene.Width)
	}
	found := false
	for _, op := range scene.Ops {
		if op.Op == "text" && op.Text == "users" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the users header in the scene")
	}
}

func TestCanvasPNG(t *testing.T) {
	s, _ := newServer(t, editor.Options{})
	w, _ := do(t, s, http.MethodGet, "/api/canvas.png", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}

func TestCORSConfig(t *testing.T) {
	if cfg := corsConfig([]string{"*"}); !cfg.AllowAllOrigins {
		t.Error("Expected * to allow all origins")
	}
	cfg := corsConfig([]string{"http://localhost:3000"})
	if cfg.AllowAllOrigins || len(cfg.AllowOrigins) != 1 {
		t.Errorf("Unexpected CORS config: %+v", cfg)
	}
}
