package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/tordrt/erdcanvas/internal/editor"
	"github.com/tordrt/erdcanvas/internal/formatter"
	"github.com/tordrt/erdcanvas/internal/render"
	"github.com/tordrt/erdcanvas/internal/schema"
)

// errNotConfirmed is returned when a destructive request lacks confirm=true
var errNotConfirmed = errors.New("confirmation required: repeat the request with ?confirm=true")

// State summarizes the editor for clients
type State struct {
	Tables   []string `json:"tables"`
	Selected string   `json:"selected,omitempty"`
	Dragging bool     `json:"dragging"`
	CanUndo  bool     `json:"canUndo"`
	CanRedo  bool     `json:"canRedo"`
}

func stateOf(ed *editor.Editor) State {
	return State{
		Tables:   ed.Schema().TableNames(),
		Selected: ed.Selected(),
		Dragging: ed.Dragging(),
		CanUndo:  ed.CanUndo(),
		CanRedo:  ed.CanRedo(),
	}
}

// statusFor maps an edit error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, schema.ErrTableNotFound),
		errors.Is(err, schema.ErrColumnNotFound),
		errors.Is(err, schema.ErrRelationshipNotFound):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrDuplicateTable),
		errors.Is(err, schema.ErrDuplicateColumn),
		errors.Is(err, errNotConfirmed):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// edited replies with the editor state or maps err
func (s *Server) edited(c *gin.Context, ed *editor.Editor, err error, status int, message string) {
	if err != nil {
		Fail(c, statusFor(err), err, "edit rejected")
		return
	}
	s.reply(c, status, stateOf(ed), message)
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "index must be an integer")
		return 0, false
	}
	return index, true
}

func (s *Server) getSchema(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		s.reply(c, http.StatusOK, ed.Schema(), "")
	})
}

func (s *Server) getState(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) getScene(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		rec := render.NewRecorder(float64(s.width), float64(s.height))
		ed.Draw(rec)
		s.reply(c, http.StatusOK, rec, "")
	})
}

func (s *Server) getCanvas(c *gin.Context) {
	var buf bytes.Buffer
	var err error
	s.locked(c, func(ed *editor.Editor) {
		raster := render.NewRaster(s.width, s.height)
		ed.Draw(raster)
		err = raster.EncodePNG(&buf)
	})
	if err != nil {
		s.logger.Printf("failed to encode canvas: %v", err)
		Fail(c, http.StatusInternalServerError, err, "failed to render canvas")
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) export(format string) gin.HandlerFunc {
	contentTypes := map[string]string{
		formatter.FormatSQL:      "application/sql; charset=utf-8",
		formatter.FormatJSON:     "application/json; charset=utf-8",
		formatter.FormatMarkdown: "text/markdown; charset=utf-8",
		formatter.FormatText:     "text/plain; charset=utf-8",
	}
	return func(c *gin.Context) {
		var buf bytes.Buffer
		var name string
		var err error
		s.locked(c, func(ed *editor.Editor) {
			name = formatter.FileName(ed.Schema(), format)
			var f formatter.Formatter
			if f, err = formatter.New(format, &buf); err == nil {
				err = f.Format(ed.Schema())
			}
		})
		if err != nil {
			s.logger.Printf("failed to export %s: %v", format, err)
			Fail(c, http.StatusInternalServerError, err, "export failed")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
	}
}

func (s *Server) pointer(c *gin.Context) {
	var ev editor.PointerEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid pointer event")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		if !ed.HandlePointer(ev) {
			Fail(c, http.StatusBadRequest, fmt.Errorf("unknown pointer event kind: %s", ev.Kind), "invalid pointer event")
			return
		}
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) keys(c *gin.Context) {
	var key editor.Key
	if err := c.ShouldBindJSON(&key); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid key event")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		handled := ed.KeyDown(c.Request.Context(), key)
		s.reply(c, http.StatusOK, gin.H{"handled": handled, "state": stateOf(ed)}, "")
	})
}

func (s *Server) viewport(c *gin.Context) {
	var vp editor.Viewport
	if err := c.ShouldBindJSON(&vp); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid viewport")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		ed.Viewport = vp
		s.reply(c, http.StatusOK, vp, "")
	})
}

func (s *Server) selectTable(c *gin.Context) {
	var req struct {
		Table string `json:"table"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid request")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.Select(req.Table), http.StatusOK, "")
	})
}

func (s *Server) undo(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		ed.Undo()
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) redo(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		ed.Redo()
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) save(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		if err := ed.Save(c.Request.Context()); err != nil {
			s.logger.Printf("failed to save: %v", err)
			Fail(c, http.StatusInternalServerError, err, "save failed")
			return
		}
		s.reply(c, http.StatusOK, stateOf(ed), "Schema saved!")
	})
}

func (s *Server) load(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		loaded, err := ed.Load(c.Request.Context())
		if err != nil {
			s.logger.Printf("failed to load: %v", err)
			Fail(c, http.StatusInternalServerError, err, "load failed")
			return
		}
		s.reply(c, http.StatusOK, gin.H{"loaded": loaded, "state": stateOf(ed)}, "")
	})
}

func (s *Server) clear(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		if !ed.ClearSchema() {
			Fail(c, http.StatusConflict, errNotConfirmed, "schema not cleared")
			return
		}
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) addTable(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		name := ed.AddTable()
		s.reply(c, http.StatusCreated, gin.H{"name": name, "state": stateOf(ed)}, "")
	})
}

func (s *Server) renameTable(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid request")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.RenameTable(c.Param("name"), req.Name), http.StatusOK, "")
	})
}

func (s *Server) deleteTable(c *gin.Context) {
	name := c.Param("name")
	s.locked(c, func(ed *editor.Editor) {
		previous := ed.Selected()
		if err := ed.Select(name); err != nil {
			Fail(c, statusFor(err), err, "edit rejected")
			return
		}
		if !ed.DeleteSelectedTable() {
			_ = ed.Select(previous)
			Fail(c, http.StatusConflict, errNotConfirmed, "table not deleted")
			return
		}
		s.reply(c, http.StatusOK, stateOf(ed), "")
	})
}

func (s *Server) addColumn(c *gin.Context) {
	s.locked(c, func(ed *editor.Editor) {
		name, err := ed.AddColumn(c.Param("name"))
		if err != nil {
			Fail(c, statusFor(err), err, "edit rejected")
			return
		}
		s.reply(c, http.StatusCreated, gin.H{"name": name, "state": stateOf(ed)}, "")
	})
}

func (s *Server) updateColumn(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var col schema.Column
	if err := c.ShouldBindJSON(&col); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid column")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.UpdateColumn(c.Param("name"), index, col), http.StatusOK, "")
	})
}

func (s *Server) deleteColumn(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.DeleteColumn(c.Param("name"), index), http.StatusOK, "")
	})
}

type columnRequest struct {
	Column     string            `json:"column" binding:"required"`
	Constraint schema.Constraint `json:"constraint"`
}

func (s *Server) togglePrimaryKey(c *gin.Context) {
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid request")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.TogglePrimaryKey(c.Param("name"), req.Column), http.StatusOK, "")
	})
}

func (s *Server) toggleConstraint(c *gin.Context) {
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid request")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.ToggleConstraint(c.Param("name"), req.Column, req.Constraint), http.StatusOK, "")
	})
}

// addRelationship appends the relationship in the body, or the default
// relationship when the body is empty
func (s *Server) addRelationship(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid request")
		return
	}
	var rel *schema.Relationship
	if len(bytes.TrimSpace(body)) > 0 {
		rel = &schema.Relationship{}
		if err := binding.JSON.BindBody(body, rel); err != nil {
			Fail(c, http.StatusBadRequest, err, "invalid relationship")
			return
		}
	}

	table := c.Param("name")
	s.locked(c, func(ed *editor.Editor) {
		if rel == nil {
			_, err = ed.AddDefaultRelationship(table)
		} else {
			err = ed.AddRelationship(table, *rel)
		}
		s.edited(c, ed, err, http.StatusCreated, "")
	})
}

func (s *Server) updateRelationship(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	var rel schema.Relationship
	if err := c.ShouldBindJSON(&rel); err != nil {
		Fail(c, http.StatusBadRequest, err, "invalid relationship")
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.UpdateRelationship(c.Param("name"), index, rel), http.StatusOK, "")
	})
}

func (s *Server) deleteRelationship(c *gin.Context) {
	index, ok := indexParam(c)
	if !ok {
		return
	}
	s.locked(c, func(ed *editor.Editor) {
		s.edited(c, ed, ed.DeleteRelationship(c.Param("name"), index), http.StatusOK, "")
	})
}
