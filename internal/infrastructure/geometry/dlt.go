// Package geometry оценка гомографии на чистом Go: нормализованный DLT, RANSAC и LMedS.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"planar-recognizer/internal/domain/entity"
)

// fitDLT решает гомографию по n >= 4 парам точек методом наименьших квадратов.
func fitDLT(src, dst []entity.Point) (entity.Homography, bool) {
	n := len(src)
	if n < 4 || len(dst) != n {
		return entity.Homography{}, false
	}
	ts, ok := normalization(src)
	if !ok {
		return entity.Homography{}, false
	}
	td, ok := normalization(dst)
	if !ok {
		return entity.Homography{}, false
	}

	a := mat.NewDense(2*n, 9, nil)
	for i := range n {
		s := ts.apply(src[i])
		d := td.apply(dst[i])
		a.SetRow(2*i, []float64{s.X, s.Y, 1, 0, 0, 0, -d.X * s.X, -d.X * s.Y, -d.X})
		a.SetRow(2*i+1, []float64{0, 0, 0, s.X, s.Y, 1, -d.Y * s.X, -d.Y * s.Y, -d.Y})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFullV) {
		return entity.Homography{}, false
	}
	var v mat.Dense
	svd.VTo(&v)
	var hn entity.Homography
	for i := range 9 {
		hn[i] = v.At(i, 8)
	}

	// H = Td^-1 * Hn * Ts
	h := mul(td.inverse(), mul(hn, ts.matrix()))
	if math.Abs(h[8]) < 1e-12 {
		return entity.Homography{}, false
	}
	h = h.Normalized()
	for _, x := range h {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return entity.Homography{}, false
		}
	}
	return h, true
}

// similarity нормализация Хартли: перенос в центроид и масштаб до среднего sqrt(2).
type similarity struct {
	cx, cy, s float64
}

func normalization(pts []entity.Point) (similarity, bool) {
	var cx, cy float64
	for _, p := range pts {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(pts))
	cx /= n
	cy /= n
	var mean float64
	for _, p := range pts {
		mean += math.Hypot(p.X-cx, p.Y-cy)
	}
	mean /= n
	if mean < 1e-9 {
		return similarity{}, false
	}
	return similarity{cx: cx, cy: cy, s: math.Sqrt2 / mean}, true
}

func (t similarity) apply(p entity.Point) entity.Point {
	return entity.Point{X: (p.X - t.cx) * t.s, Y: (p.Y - t.cy) * t.s}
}

func (t similarity) matrix() entity.Homography {
	return entity.Homography{t.s, 0, -t.s * t.cx, 0, t.s, -t.s * t.cy, 0, 0, 1}
}

func (t similarity) inverse() entity.Homography {
	return entity.Homography{1 / t.s, 0, t.cx, 0, 1 / t.s, t.cy, 0, 0, 1}
}

func mul(a, b entity.Homography) entity.Homography {
	var c entity.Homography
	for r := range 3 {
		for col := range 3 {
			var sum float64
			for k := range 3 {
				sum += a[r*3+k] * b[k*3+col]
			}
			c[r*3+col] = sum
		}
	}
	return c
}

// reprojError квадрат ошибки перепроекции src через h относительно dst.
func reprojError(h entity.Homography, src, dst entity.Point) float64 {
	w := h[6]*src.X + h[7]*src.Y + h[8]
	if math.Abs(w) < 1e-12 {
		return math.Inf(1)
	}
	x := (h[0]*src.X + h[1]*src.Y + h[2]) / w
	y := (h[3]*src.X + h[4]*src.Y + h[5]) / w
	dx, dy := x-dst.X, y-dst.Y
	return dx*dx + dy*dy
}

// collinear проверяет, что три точки лежат почти на одной прямой.
func collinear(a, b, c entity.Point) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	scale := math.Hypot(b.X-a.X, b.Y-a.Y) * math.Hypot(c.X-a.X, c.Y-a.Y)
	return math.Abs(cross) <= 1e-6*scale+1e-12
}

// degenerateSample отбрасывает четвёрки, в которых три точки коллинеарны.
func degenerateSample(pts [4]entity.Point) bool {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for k := j + 1; k < 4; k++ {
				if collinear(pts[i], pts[j], pts[k]) {
					return true
				}
			}
		}
	}
	return false
}
