package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

var (
	background = color.RGBA{0xff, 0xff, 0xff, 0xff}
	bondColor  = color.RGBA{0x00, 0x00, 0x00, 0xff}
	arrowColor = color.RGBA{0xc8, 0x1e, 0x1e, 0xff}
)

// elementColors follows the usual CPK-like scheme for labels.
var elementColors = map[string]color.RGBA{
	"N":  {0x30, 0x50, 0xf8, 0xff},
	"O":  {0xe0, 0x10, 0x10, 0xff},
	"F":  {0x10, 0x90, 0x10, 0xff},
	"Cl": {0x10, 0x90, 0x10, 0xff},
	"Br": {0xa6, 0x29, 0x29, 0xff},
	"I":  {0x94, 0x00, 0x94, 0xff},
	"S":  {0xb0, 0x90, 0x00, 0xff},
	"P":  {0xff, 0x80, 0x00, 0xff},
	"B":  {0xff, 0xa0, 0x70, 0xff},
}

func labelColor(symbol string) color.RGBA {
	if c, ok := elementColors[symbol]; ok {
		return c
	}
	return bondColor
}

// canvas wraps an RGBA image with a reusable rasterizer.
type canvas struct {
	img  *image.RGBA
	r    *vector.Rasterizer
	face font.Face
}

func newCanvas(width, height int) *canvas {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return &canvas{
		img:  img,
		r:    vector.NewRasterizer(width, height),
		face: basicfont.Face7x13,
	}
}

func (c *canvas) clamp(p point) point {
	b := c.img.Bounds()
	return point{
		X: math.Max(0, math.Min(float64(b.Dx()), p.X)),
		Y: math.Max(0, math.Min(float64(b.Dy()), p.Y)),
	}
}

// fill rasterizes the closed polygon pts in col.
func (c *canvas) fill(col color.Color, pts ...point) {
	if len(pts) < 3 {
		return
	}
	b := c.img.Bounds()
	c.r.Reset(b.Dx(), b.Dy())
	first := c.clamp(pts[0])
	c.r.MoveTo(float32(first.X), float32(first.Y))
	for _, p := range pts[1:] {
		p = c.clamp(p)
		c.r.LineTo(float32(p.X), float32(p.Y))
	}
	c.r.ClosePath()
	c.r.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// line strokes a segment of the given width.
func (c *canvas) line(p, q point, width float64, col color.Color) {
	dir := q.sub(p)
	if dir.length() == 0 {
		return
	}
	n := perpendicular(dir.unit()).scale(width / 2)
	c.fill(col, p.add(n), q.add(n), q.sub(n), p.sub(n))
}

// dashed strokes a segment as alternating dashes and gaps.
func (c *canvas) dashed(p, q point, width, dash, gap float64, col color.Color) {
	total := q.sub(p).length()
	if total == 0 {
		return
	}
	for s := 0.0; s < total; s += dash + gap {
		e := math.Min(s+dash, total)
		c.line(lerp(p, q, s/total), lerp(p, q, e/total), width, col)
	}
}

// clearRect paints the background over r.
func (c *canvas) clearRect(r image.Rectangle) {
	draw.Draw(c.img, r, image.NewUniform(background), image.Point{}, draw.Src)
}

// textSize returns the pixel extent of s in the label face.
func (c *canvas) textSize(s string) (int, int) {
	w := font.MeasureString(c.face, s).Round()
	m := c.face.Metrics()
	return w, (m.Ascent + m.Descent).Round()
}

// text draws s centred on at.
func (c *canvas) text(s string, at point, col color.Color) image.Rectangle {
	w, h := c.textSize(s)
	x := int(math.Round(at.X)) - w/2
	y := int(math.Round(at.Y)) - h/2
	box := image.Rect(x-1, y, x+w+1, y+h)
	c.clearRect(box)

	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y+c.face.Metrics().Ascent.Round()),
	}
	d.DrawString(s)
	return box
}
