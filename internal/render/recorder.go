package render

// OpKind names a recorded drawing call
type OpKind string

// Recorded drawing calls
const (
	OpClear      OpKind = "clear"
	OpFillRect   OpKind = "fillRect"
	OpStrokeRect OpKind = "strokeRect"
	OpLine       OpKind = "line"
	OpText       OpKind = "text"
)

// Op is one recorded drawing call
type Op struct {
	Kind      OpKind     `json:"op"`
	X         float64    `json:"x"`
	Y         float64    `json:"y"`
	W         float64    `json:"w,omitempty"`
	H         float64    `json:"h,omitempty"`
	X2        float64    `json:"x2,omitempty"`
	Y2        float64    `json:"y2,omitempty"`
	Color     string     `json:"color,omitempty"`
	LineWidth float64    `json:"lineWidth,omitempty"`
	Text      string     `json:"text,omitempty"`
	Style     *TextStyle `json:"style,omitempty"`
}

// Recorder is a Canvas that keeps the drawing calls it receives
type Recorder struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Ops    []Op    `json:"ops"`
}

// NewRecorder creates a recorder of the given size
func NewRecorder(width, height float64) *Recorder {
	return &Recorder{Width: width, Height: height}
}

// Size implements Canvas
func (r *Recorder) Size() (float64, float64) {
	return r.Width, r.Height
}

// Clear drops everything recorded so far
func (r *Recorder) Clear() {
	r.Ops = []Op{{Kind: OpClear}}
}

// FillRect implements Canvas
func (r *Recorder) FillRect(x, y, w, h float64, color string) {
	r.Ops = append(r.Ops, Op{Kind: OpFillRect, X: x, Y: y, W: w, H: h, Color: color})
}

// StrokeRect implements Canvas
func (r *Recorder) StrokeRect(x, y, w, h float64, color string, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeRect, X: x, Y: y, W: w, H: h, Color: color, LineWidth: lineWidth})
}

// Line implements Canvas
func (r *Recorder) Line(x1, y1, x2, y2 float64, color string, lineWidth float64) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, Color: color, LineWidth: lineWidth})
}

// Text implements Canvas
func (r *Recorder) Text(x, y float64, text string, style TextStyle) {
	s := style
	r.Ops = append(r.Ops, Op{Kind: OpText, X: x, Y: y, Text: text, Color: style.Color, Style: &s})
}

// Texts returns every recorded text run in order
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}
