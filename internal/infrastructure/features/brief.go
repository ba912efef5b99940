package features

import (
	"math"
	"math/rand/v2"

	"planar-recognizer/internal/domain/entity"
)

const (
	patchSize   = 31
	patchRadius = patchSize / 2
	briefPairs  = entity.DescriptorSize * 8
)

// briefPattern пары точек теста BRIEF (x1, y1, x2, y2) внутри патча 31x31.
// Генератор с фиксированным зерном даёт одинаковые дескрипторы между запусками.
var briefPattern = func() [briefPairs][4]int {
	rng := rand.New(rand.NewPCG(0x0b1e, 0xb41ef))
	sigma := float64(patchSize) / 5
	sample := func() int {
		v := int(math.Round(rng.NormFloat64() * sigma))
		return max(-patchRadius, min(patchRadius, v))
	}
	var p [briefPairs][4]int
	for i := range p {
		p[i] = [4]int{sample(), sample(), sample(), sample()}
	}
	return p
}()

// umax полуширина круглого патча по строкам для моментов яркости.
var umax = func() [patchRadius + 1]int {
	var u [patchRadius + 1]int
	for dy := range u {
		u[dy] = int(math.Sqrt(float64(patchRadius*patchRadius - dy*dy)))
	}
	return u
}()

// intensityAngle ориентация по центроиду яркости, в радианах.
func intensityAngle(p plane, x, y int) float64 {
	var m01, m10 int
	for dy := -patchRadius; dy <= patchRadius; dy++ {
		span := umax[abs(dy)]
		for dx := -span; dx <= span; dx++ {
			v := p.at(x+dx, y+dy)
			m10 += dx * v
			m01 += dy * v
		}
	}
	return math.Atan2(float64(m01), float64(m10))
}

// steeredBRIEF считает дескриптор с шаблоном, повёрнутым на angle.
func steeredBRIEF(p plane, x, y int, angle float64) entity.Descriptor {
	sin, cos := math.Sincos(angle)
	rot := func(px, py int) int {
		rx := int(math.Round(float64(px)*cos - float64(py)*sin))
		ry := int(math.Round(float64(px)*sin + float64(py)*cos))
		return p.at(x+rx, y+ry)
	}
	var d entity.Descriptor
	for i, pair := range briefPattern {
		if rot(pair[0], pair[1]) < rot(pair[2], pair[3]) {
			d[i/8] |= 1 << (i % 8)
		}
	}
	return d
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
