package geometry

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

const (
	sampleSize       = 4
	maxDegenerateTry = 100
)

// Estimator робастная оценка гомографии с детерминированным зерном.
type Estimator struct {
	MaxIters   int     // бюджет итераций RANSAC и LMedS
	Confidence float64 // доверительная вероятность для адаптивного числа итераций
	Seed       uint64  // зерно выборки
}

// NewEstimator создаёт оценщик с параметрами как у cv::findHomography.
func NewEstimator(maxIters int, confidence float64, seed uint64) *Estimator {
	if maxIters <= 0 {
		maxIters = 2000
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.995
	}
	return &Estimator{MaxIters: maxIters, Confidence: confidence, Seed: seed}
}

// FitRANSAC ищет модель с максимумом inliers и уточняет её по всем inliers.
func (e *Estimator) FitRANSAC(src, dst []entity.Point, reprojThreshold float64) (entity.Homography, []bool, bool) {
	n := len(src)
	if n < sampleSize || len(dst) != n {
		return entity.Homography{}, nil, false
	}
	thresh2 := reprojThreshold * reprojThreshold
	rng := e.rng()

	var best entity.Homography
	bestMask := make([]bool, n)
	mask := make([]bool, n)
	bestCount := 0
	iters := e.MaxIters

	for it := 0; it < iters; it++ {
		h, ok := e.sampleModel(rng, src, dst)
		if !ok {
			continue
		}
		count := 0
		for i := range n {
			mask[i] = reprojError(h, src[i], dst[i]) <= thresh2
			if mask[i] {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = h
			copy(bestMask, mask)
			iters = min(iters, adaptiveIters(e.Confidence, float64(count)/float64(n), e.MaxIters))
		}
	}
	if bestCount < sampleSize {
		return entity.Homography{}, nil, false
	}

	inSrc, inDst := selectPoints(src, dst, bestMask)
	if refined, ok := fitDLT(inSrc, inDst); ok {
		refinedCount := 0
		for i := range n {
			mask[i] = reprojError(refined, src[i], dst[i]) <= thresh2
			if mask[i] {
				refinedCount++
			}
		}
		if refinedCount >= bestCount {
			best = refined
			bestCount = refinedCount
			copy(bestMask, mask)
		}
	}
	return best, bestMask, true
}

// FitLMedS ищет модель с минимальной медианой квадратов ошибок, затем решает
// наименьшие квадраты по точкам внутри робастной оценки разброса.
func (e *Estimator) FitLMedS(src, dst []entity.Point) (entity.Homography, bool) {
	n := len(src)
	if n < sampleSize || len(dst) != n {
		return entity.Homography{}, false
	}
	if n == sampleSize {
		return fitDLT(src, dst)
	}
	rng := e.rng()
	errs := make([]float64, n)

	var best entity.Homography
	bestMedian := math.Inf(1)
	iters := min(e.MaxIters, adaptiveIters(e.Confidence, 0.5, e.MaxIters))
	for it := 0; it < iters; it++ {
		h, ok := e.sampleModel(rng, src, dst)
		if !ok {
			continue
		}
		med := medianError(h, src, dst, errs)
		if med < bestMedian {
			bestMedian = med
			best = h
		}
	}
	if math.IsInf(bestMedian, 1) {
		return entity.Homography{}, false
	}

	// Робастная оценка сигмы по медиане (Rousseeuw).
	sigma := 2.5 * 1.4826 * (1 + 5.0/float64(n-sampleSize)) * math.Sqrt(bestMedian)
	limit := math.Max(sigma*sigma, 1e-6)
	mask := make([]bool, n)
	count := 0
	for i := range n {
		mask[i] = reprojError(best, src[i], dst[i]) <= limit
		if mask[i] {
			count++
		}
	}
	if count < sampleSize {
		return best, true
	}
	inSrc, inDst := selectPoints(src, dst, mask)
	if refined, ok := fitDLT(inSrc, inDst); ok {
		return refined, true
	}
	return best, true
}

func (e *Estimator) rng() *rand.Rand {
	return rand.New(rand.NewPCG(e.Seed, e.Seed^0x853c49e6748fea9b))
}

// sampleModel строит модель по четырём случайным невырожденным парам.
func (e *Estimator) sampleModel(rng *rand.Rand, src, dst []entity.Point) (entity.Homography, bool) {
	n := len(src)
	for range maxDegenerateTry {
		idx := sampleIndices(rng, n)
		var s, d [sampleSize]entity.Point
		for i, j := range idx {
			s[i] = src[j]
			d[i] = dst[j]
		}
		if degenerateSample(s) || degenerateSample(d) {
			continue
		}
		return fitDLT(s[:], d[:])
	}
	return entity.Homography{}, false
}

func sampleIndices(rng *rand.Rand, n int) [sampleSize]int {
	var idx [sampleSize]int
	for i := 0; i < sampleSize; {
		v := rng.IntN(n)
		if slices.Contains(idx[:i], v) {
			continue
		}
		idx[i] = v
		i++
	}
	return idx
}

// adaptiveIters число итераций, достаточное при доле inliers ratio.
func adaptiveIters(confidence, ratio float64, maxIters int) int {
	if ratio >= 1 {
		return 1
	}
	if ratio <= 0 {
		return maxIters
	}
	num := math.Log(1 - confidence)
	den := math.Log(1 - math.Pow(ratio, sampleSize))
	if den >= 0 || math.IsInf(den, -1) {
		return maxIters
	}
	k := math.Ceil(num / den)
	if k > float64(maxIters) {
		return maxIters
	}
	return max(int(k), 1)
}

func medianError(h entity.Homography, src, dst []entity.Point, buf []float64) float64 {
	for i := range src {
		buf[i] = reprojError(h, src[i], dst[i])
	}
	sort.Float64s(buf)
	return buf[len(buf)/2]
}

func selectPoints(src, dst []entity.Point, mask []bool) ([]entity.Point, []entity.Point) {
	var s, d []entity.Point
	for i, ok := range mask {
		if ok {
			s = append(s, src[i])
			d = append(d, dst[i])
		}
	}
	return s, d
}

var _ port.HomographyEstimator = (*Estimator)(nil)
