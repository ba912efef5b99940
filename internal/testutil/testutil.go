// Package testutil генераторы тестовых изображений и признаков.
//
// Пакет используется только в тестах.
package testutil

import (
	"image"
	"image/color"
	"math/rand/v2"

	"planar-recognizer/internal/domain/entity"
)

// NewRNG создаёт детерминированный генератор.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TexturedImage рисует случайные контрастные прямоугольники на сером фоне с
// небольшим шумом.
func TexturedImage(w, h int, seed uint64) *image.Gray {
	rng := NewRNG(seed)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	levels := []uint8{0, 40, 200, 255}
	for range (w * h) / 900 {
		x0, y0 := rng.IntN(w), rng.IntN(h)
		x1 := min(w, x0+8+rng.IntN(w/5+1))
		y1 := min(h, y0+8+rng.IntN(h/5+1))
		v := levels[rng.IntN(len(levels))]
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				img.SetGray(x, y, color.Gray{Y: v})
			}
		}
	}
	// Слабый шум делает патчи разных углов различимыми.
	for i, v := range img.Pix {
		img.Pix[i] = uint8(max(0, min(255, int(v)+rng.IntN(9)-4)))
	}
	return img
}

// NoiseImage заполняет изображение равномерным шумом.
func NoiseImage(w, h int, seed uint64) *image.Gray {
	rng := NewRNG(seed)
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.IntN(256))
	}
	return img
}

// UniformImage заполняет изображение одним значением.
func UniformImage(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// RandomDescriptors возвращает n случайных дескрипторов.
func RandomDescriptors(n int, seed uint64) []entity.Descriptor {
	rng := NewRNG(seed)
	out := make([]entity.Descriptor, n)
	for i := range out {
		for j := range out[i] {
			out[i][j] = uint8(rng.IntN(256))
		}
	}
	return out
}

// GridKeypoints возвращает n точек на сетке внутри w x h.
func GridKeypoints(n, w, h int) []entity.Keypoint {
	cols := 1
	for cols*cols < n {
		cols++
	}
	rows := (n + cols - 1) / cols
	out := make([]entity.Keypoint, n)
	for i := range out {
		c, r := i%cols, i/cols
		out[i] = entity.Keypoint{
			X: float64(w) * (float64(c) + 0.5) / float64(cols),
			Y: float64(h) * (float64(r) + 0.5) / float64(rows),
		}
	}
	return out
}

// SyntheticFeatures точки на сетке со случайными дескрипторами.
func SyntheticFeatures(n, w, h int, seed uint64) entity.Features {
	return entity.NewFeatures(GridKeypoints(n, w, h), RandomDescriptors(n, seed))
}
