// Package render draws a schema diagram onto a Canvas.
//
// Render is a pure function of the scene: it clears the canvas, draws every
// relationship line and then every table on top. Two canvases are provided:
// Recorder keeps a display list (useful for tests and for clients that paint
// themselves) and Raster paints into an RGBA image that can be written as PNG.
package render

// Align is the horizontal anchor of a text run
type Align string

// Text anchors
const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
)

// TextStyle describes how a text run is painted
type TextStyle struct {
	Color string  `json:"color"`
	Size  float64 `json:"size"`
	Bold  bool    `json:"bold,omitempty"`
	Align Align   `json:"align,omitempty"`
}

// Canvas is the drawing surface used by Render. Colors are "#rrggbb".
type Canvas interface {
	Size() (width, height float64)
	Clear()
	FillRect(x, y, w, h float64, color string)
	StrokeRect(x, y, w, h float64, color string, lineWidth float64)
	Line(x1, y1, x2, y2 float64, color string, lineWidth float64)
	Text(x, y float64, text string, style TextStyle)
}
