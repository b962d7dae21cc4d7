package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster is a Canvas backed by an RGBA image
type Raster struct {
	img  *image.RGBA
	face font.Face
}

// NewRaster creates a raster canvas of the given pixel size
func NewRaster(width, height int) *Raster {
	return &Raster{
		img:  image.NewRGBA(image.Rect(0, 0, width, height)),
		face: basicfont.Face7x13,
	}
}

// Image returns the painted image
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// EncodePNG writes the image as PNG
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Size implements Canvas
func (r *Raster) Size() (float64, float64) {
	b := r.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

// Clear implements Canvas
func (r *Raster) Clear() {
	draw.Draw(r.img, r.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

// FillRect implements Canvas
func (r *Raster) FillRect(x, y, w, h float64, c string) {
	rect := image.Rect(round(x), round(y), round(x+w), round(y+h))
	draw.Draw(r.img, rect, image.NewUniform(ParseColor(c)), image.Point{}, draw.Src)
}

// StrokeRect implements Canvas
func (r *Raster) StrokeRect(x, y, w, h float64, c string, lineWidth float64) {
	r.Line(x, y, x+w, y, c, lineWidth)
	r.Line(x+w, y, x+w, y+h, c, lineWidth)
	r.Line(x+w, y+h, x, y+h, c, lineWidth)
	r.Line(x, y+h, x, y, c, lineWidth)
}

// Line implements Canvas with a square brush stepped along the segment
func (r *Raster) Line(x1, y1, x2, y2 float64, c string, lineWidth float64) {
	col := ParseColor(c)
	half := int(math.Max(lineWidth, 1)) / 2
	brush := int(math.Max(lineWidth, 1))

	dx, dy := x2-x1, y2-y1
	steps := int(math.Max(math.Abs(dx), math.Abs(dy)))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := round(x1+dx*t) - half
		py := round(y1+dy*t) - half
		for by := 0; by < brush; by++ {
			for bx := 0; bx < brush; bx++ {
				r.img.Set(px+bx, py+by, col)
			}
		}
	}
}

// Text implements Canvas. The bundled bitmap face has a single size, so the
// style size only matters for layout by clients with real fonts; bold runs
// are drawn twice one pixel apart.
func (r *Raster) Text(x, y float64, text string, style TextStyle) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(ParseColor(style.Color)),
		Face: r.face,
	}
	if style.Align == AlignCenter {
		x -= float64(d.MeasureString(text).Round()) / 2
	}

	d.Dot = fixed.P(round(x), round(y))
	d.DrawString(text)
	if style.Bold {
		d.Dot = fixed.P(round(x)+1, round(y))
		d.DrawString(text)
	}
}

// ParseColor parses "#rrggbb" or "#rgb". Anything else is black.
func ParseColor(s string) color.RGBA {
	black := color.RGBA{A: 0xff}
	if len(s) == 0 || s[0] != '#' {
		return black
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return black
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func round(f float64) int {
	return int(math.Round(f))
}
