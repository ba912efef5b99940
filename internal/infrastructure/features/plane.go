package features

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// plane плотный полутоновый буфер с началом координат в (0, 0).
type plane struct {
	w, h int
	pix  []uint8
}

func planeFromGray(g *image.Gray) plane {
	b := g.Bounds()
	p := plane{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		copy(p.pix[y*p.w:(y+1)*p.w], g.Pix[off:off+p.w])
	}
	return p
}

// planeFromRGBA берёт красный канал полутонового RGBA из bild.
func planeFromRGBA(m *image.RGBA) plane {
	b := m.Bounds()
	p := plane{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		off := m.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < p.w; x++ {
			p.pix[y*p.w+x] = m.Pix[off+4*x]
		}
	}
	return p
}

func (p plane) at(x, y int) int {
	return int(p.pix[y*p.w+x])
}

func (p plane) image() *image.Gray {
	return &image.Gray{Pix: p.pix, Stride: p.w, Rect: image.Rect(0, 0, p.w, p.h)}
}

// resized уменьшает плоскость до w x h.
func (p plane) resized(w, h int) plane {
	if w == p.w && h == p.h {
		return p
	}
	small := imaging.Resize(p.image(), w, h, imaging.Linear)
	return planeFromRGBA(effect.Grayscale(small))
}

// smoothed возвращает копию после гауссова размытия для BRIEF-тестов.
func (p plane) smoothed(radius float64) plane {
	return planeFromRGBA(blur.Gaussian(p.image(), radius))
}
