package render

import (
	"github.com/tordrt/erdcanvas/internal/layout"
	"github.com/tordrt/erdcanvas/internal/schema"
)

// Palette
const (
	Background      = "#fafafa"
	TableFill       = "#ffffff"
	SelectedFill    = "#e3f2fd"
	TableStroke     = "#cccccc"
	SelectedStroke  = "#1976d2"
	HeaderText      = "#333333"
	PrimaryKeyText  = "#1976d2"
	ColumnText      = "#666666"
	RelationStroke  = "#666666"
	BadgeFill       = "#ffffff"
	PrimaryKeyMark  = "[PK] "
	badgeWidth      = 30
	badgeHeight     = 16
	headerBaseline  = 20
	separatorOffset = 30
	firstRowOffset  = 50
	rowPitch        = 20
	textInset       = 10
)

// DragState is the pointer drag in progress, if any
type DragState struct {
	Active  bool    `json:"active"`
	Table   string  `json:"table,omitempty"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

// Scene is everything a frame depends on
type Scene struct {
	Schema   *schema.Schema
	Layout   *layout.Layout
	Selected string
	Drag     DragState
}

// Render paints the scene. It reads the scene only.
func Render(c Canvas, sc Scene) {
	w, h := c.Size()
	c.Clear()
	c.FillRect(0, 0, w, h, Background)

	if sc.Schema == nil || sc.Layout == nil {
		return
	}

	for _, t := range sc.Schema.Tables {
		for _, rel := range t.Relationships {
			drawRelationship(c, sc.Layout, t.Name, rel)
		}
	}

	// The table being dragged is painted last so it stays on top.
	var dragged *schema.Table
	for i := range sc.Schema.Tables {
		t := &sc.Schema.Tables[i]
		if sc.Drag.Active && t.Name == sc.Drag.Table {
			dragged = t
			continue
		}
		drawTable(c, sc.Layout, t, t.Name == sc.Selected)
	}
	if dragged != nil {
		drawTable(c, sc.Layout, dragged, dragged.Name == sc.Selected)
	}
}

func drawTable(c Canvas, l *layout.Layout, t *schema.Table, selected bool) {
	r, ok := l.Get(t.Name)
	if !ok {
		return
	}

	fill, stroke, width := TableFill, TableStroke, 1.0
	if selected {
		fill, stroke, width = SelectedFill, SelectedStroke, 2
	}
	c.FillRect(r.X, r.Y, r.Width, r.Height, fill)
	c.StrokeRect(r.X, r.Y, r.Width, r.Height, stroke, width)

	c.Text(r.X+textInset, r.Y+headerBaseline, t.Name, TextStyle{Color: HeaderText, Size: 14, Bold: true, Align: AlignLeft})
	c.Line(r.X, r.Y+separatorOffset, r.X+r.Width, r.Y+separatorOffset, TableStroke, 1)

	for i, col := range t.Columns {
		y := r.Y + firstRowOffset + float64(i*rowPitch)
		color, prefix := ColumnText, ""
		if t.IsPrimaryKey(col.Name) {
			color, prefix = PrimaryKeyText, PrimaryKeyMark
		}
		c.Text(r.X+textInset, y, prefix+col.Name+": "+col.Type, TextStyle{Color: color, Size: 12, Align: AlignLeft})
	}
}

func drawRelationship(c Canvas, l *layout.Layout, from string, rel schema.Relationship) {
	fromRect, ok := l.Get(from)
	if !ok {
		return
	}
	toRect, ok := l.Get(rel.ReferencesTable)
	if !ok {
		return
	}

	x1, y1 := fromRect.Center()
	x2, y2 := toRect.Center()
	c.Line(x1, y1, x2, y2, RelationStroke, 2)

	mx, my := (x1+x2)/2, (y1+y2)/2
	c.FillRect(mx-badgeWidth/2, my-badgeHeight/2, badgeWidth, badgeHeight, BadgeFill)
	c.StrokeRect(mx-badgeWidth/2, my-badgeHeight/2, badgeWidth, badgeHeight, RelationStroke, 2)
	c.Text(mx, my+3, rel.Type.Symbol(), TextStyle{Color: HeaderText, Size: 10, Align: AlignCenter})
}
