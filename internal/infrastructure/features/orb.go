// Package features содержит реализацию детектора ORB и матчера на чистом Go.
package features

import (
	"image"
	"math"
	"sort"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// ORBConfig параметры детектора
type ORBConfig struct {
	MaxKeypoints  int     // максимум точек на изображение
	Levels        int     // уровней пирамиды
	ScaleFactor   float64 // шаг масштаба между уровнями
	FastThreshold int     // порог яркости FAST
	EdgeThreshold int     // отступ от края, где точки не ищутся
	BlurRadius    float64 // радиус сглаживания перед BRIEF
}

// DefaultORBConfig возвращает параметры, совпадающие с OpenCV ORB по умолчанию.
func DefaultORBConfig(maxKeypoints int) ORBConfig {
	return ORBConfig{
		MaxKeypoints:  maxKeypoints,
		Levels:        8,
		ScaleFactor:   1.2,
		FastThreshold: 20,
		EdgeThreshold: 31,
		BlurRadius:    2,
	}
}

// ORBExtractor детектор oriented FAST + rotated BRIEF.
type ORBExtractor struct {
	cfg ORBConfig
}

// NewORBExtractor создаёт детектор с заданными параметрами.
func NewORBExtractor(cfg ORBConfig) *ORBExtractor {
	if cfg.Levels < 1 || cfg.ScaleFactor <= 1 {
		cfg.Levels = 1
		cfg.ScaleFactor = 1.2
	}
	if cfg.EdgeThreshold < patchRadius+borderSlack {
		cfg.EdgeThreshold = patchRadius + borderSlack
	}
	return &ORBExtractor{cfg: cfg}
}

// borderSlack запас под поворот шаблона BRIEF: радиус 15 * sqrt(2) < 15 + 7.
const borderSlack = 7

type scoredPoint struct {
	kp   entity.Keypoint
	desc entity.Descriptor
}

// Extract находит точки и считает дескрипторы.
func (e *ORBExtractor) Extract(img *image.Gray) (entity.Features, error) {
	if img == nil {
		return entity.Features{}, entity.ErrInvalidImage
	}
	if img.Bounds().Empty() || e.cfg.MaxKeypoints <= 0 {
		return entity.Features{}, nil
	}

	base := planeFromGray(img)
	budgets := levelBudgets(e.cfg.MaxKeypoints, e.cfg.Levels, e.cfg.ScaleFactor)
	minSide := 2*e.cfg.EdgeThreshold + 1

	var all []scoredPoint
	scale := 1.0
	for level := 0; level < e.cfg.Levels; level++ {
		w := int(math.Round(float64(base.w) / scale))
		h := int(math.Round(float64(base.h) / scale))
		if w < minSide || h < minSide {
			break
		}
		lv := base.resized(w, h)
		all = append(all, e.extractLevel(lv, level, scale, budgets[level])...)
		scale *= e.cfg.ScaleFactor
	}

	sort.SliceStable(all, func(i, j int) bool {
		return lessKeypoint(all[i].kp, all[j].kp)
	})
	if len(all) > e.cfg.MaxKeypoints {
		all = all[:e.cfg.MaxKeypoints]
	}

	kps := make([]entity.Keypoint, len(all))
	descs := make([]entity.Descriptor, len(all))
	for i := range all {
		kps[i] = all[i].kp
		descs[i] = all[i].desc
	}
	return entity.NewFeatures(kps, descs), nil
}

func (e *ORBExtractor) extractLevel(lv plane, level int, scale float64, budget int) []scoredPoint {
	if budget <= 0 {
		return nil
	}
	corners := detectFAST(lv, e.cfg.FastThreshold, e.cfg.EdgeThreshold)
	if len(corners) == 0 {
		return nil
	}
	for i := range corners {
		corners[i].response = harrisResponse(lv, corners[i].x, corners[i].y)
	}
	sort.SliceStable(corners, func(i, j int) bool {
		a, b := corners[i], corners[j]
		if a.response != b.response {
			return a.response > b.response
		}
		if a.y != b.y {
			return a.y < b.y
		}
		return a.x < b.x
	})
	if len(corners) > budget {
		corners = corners[:budget]
	}

	smooth := lv.smoothed(e.cfg.BlurRadius)
	out := make([]scoredPoint, len(corners))
	for i, c := range corners {
		angle := intensityAngle(lv, c.x, c.y)
		out[i] = scoredPoint{
			kp: entity.Keypoint{
				X:        float64(c.x) * scale,
				Y:        float64(c.y) * scale,
				Size:     patchSize * scale,
				Angle:    angle * 180 / math.Pi,
				Response: c.response,
				Octave:   level,
			},
			desc: steeredBRIEF(smooth, c.x, c.y, angle),
		}
		if out[i].kp.Angle < 0 {
			out[i].kp.Angle += 360
		}
	}
	return out
}

// levelBudgets распределяет бюджет точек по уровням пропорционально площади.
func levelBudgets(total, levels int, scale float64) []int {
	out := make([]int, levels)
	if levels == 1 {
		out[0] = total
		return out
	}
	factor := 1 / scale
	desired := float64(total) * (1 - factor) / (1 - math.Pow(factor, float64(levels)))
	sum := 0
	for l := 0; l < levels-1; l++ {
		out[l] = int(math.Round(desired))
		sum += out[l]
		desired *= factor
	}
	out[levels-1] = max(total-sum, 0)
	return out
}

func lessKeypoint(a, b entity.Keypoint) bool {
	if a.Response != b.Response {
		return a.Response > b.Response
	}
	if a.Octave != b.Octave {
		return a.Octave < b.Octave
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

var _ port.FeatureExtractor = (*ORBExtractor)(nil)
