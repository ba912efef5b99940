package imageio

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"planar-recognizer/internal/domain/entity"
)

// Overlay рисует контур эталона и строку состояния поверх кадра.
type Overlay struct {
	stroke color.RGBA
	width  float64
}

// NewOverlay разбирает цвет вида "#00ff00". width задаёт толщину линии в пикселях.
func NewOverlay(hex string, width float64) (*Overlay, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("overlay color %q: %w", hex, err)
	}
	if width <= 0 {
		return nil, fmt.Errorf("overlay width must be positive, got %v", width)
	}
	r, g, b := c.RGB255()
	return &Overlay{stroke: color.RGBA{R: r, G: g, B: b, A: 255}, width: width}, nil
}

// Color возвращает цвет контура.
func (o *Overlay) Color() color.RGBA {
	return o.stroke
}

// Draw возвращает копию кадра с контуром (если эталон найден) и статусом.
// Координаты результата начинаются с (0, 0).
func (o *Overlay) Draw(img image.Image, rec entity.Recognition) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	if rec.Matched() {
		o.strokeQuad(dst, rec.Outline)
	}
	o.label(dst, rec.Status())
	return dst
}

func (o *Overlay) strokeQuad(dst *image.RGBA, q entity.Quad) {
	size := dst.Bounds().Size()
	r := vector.NewRasterizer(size.X, size.Y)
	r.DrawOp = draw.Over

	half := o.width / 2
	for i := range q {
		p, n := q[i], q[(i+1)%len(q)]
		if !finite(p) || !finite(n) {
			continue
		}
		dx, dy := n.X-p.X, n.Y-p.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// Вдоль отрезка продлеваем на половину толщины, чтобы углы были закрыты.
		ux, uy := dx/length*half, dy/length*half
		nx, ny := -uy, ux
		ax, ay := p.X-ux, p.Y-uy
		bx, by := n.X+ux, n.Y+uy

		r.MoveTo(float32(ax+nx), float32(ay+ny))
		r.LineTo(float32(bx+nx), float32(by+ny))
		r.LineTo(float32(bx-nx), float32(by-ny))
		r.LineTo(float32(ax-nx), float32(ay-ny))
		r.ClosePath()
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(o.stroke), image.Point{})
}

func (o *Overlay) label(dst *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.stroke),
		Face: face,
		Dot:  fixed.P(10, 10+face.Ascent),
	}
	d.DrawString(text)
}

func finite(p entity.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
