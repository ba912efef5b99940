package app

import (
	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// Verifier фильтрует соответствия и подтверждает эталон геометрией.
type Verifier struct {
	cfg       PipelineConfig
	estimator port.HomographyEstimator
}

// NewVerifier создаёт верификатор с заданным оценщиком гомографии.
func NewVerifier(cfg PipelineConfig, estimator port.HomographyEstimator) *Verifier {
	return &Verifier{cfg: cfg, estimator: estimator}
}

// RatioTest оставляет соответствия, у которых лучший сосед заметно ближе второго.
// Дескрипторы с менее чем двумя соседями отбрасываются.
func RatioTest(knn [][]entity.Neighbor, ratio float64) []entity.Correspondence {
	out := make([]entity.Correspondence, 0, len(knn))
	for _, nbs := range knn {
		if len(nbs) < 2 {
			continue
		}
		best, second := nbs[0], nbs[1]
		if float64(best.Distance) < ratio*float64(second.Distance) {
			out = append(out, entity.Correspondence{
				QueryIdx:       best.QueryIdx,
				TrainIdx:       best.TrainIdx,
				BestDistance:   best.Distance,
				SecondDistance: second.Distance,
			})
		}
	}
	return out
}

// Verify проверяет эталон на кадре. nil означает, что эталон не подтверждён,
// причина возвращается вторым значением.
func (v *Verifier) Verify(query []entity.Keypoint, ref entity.ReferenceEntry, knn [][]entity.Neighbor) (*entity.MatchCandidate, entity.Rejection) {
	good := RatioTest(knn, v.cfg.RatioTestThreshold)
	if len(good) < v.cfg.MinGoodMatches {
		return nil, entity.RejectTooFewMatches
	}

	src := make([]entity.Point, len(good))
	dst := make([]entity.Point, len(good))
	for i, c := range good {
		src[i] = ref.Features.Keypoints[c.TrainIdx].Pt()
		dst[i] = query[c.QueryIdx].Pt()
	}

	_, mask, ok := v.estimator.FitRANSAC(src, dst, v.cfg.RansacReprojectionThresholdPx)
	if !ok {
		return nil, entity.RejectNoHomography
	}
	inliers := 0
	for _, in := range mask {
		if in {
			inliers++
		}
	}
	if float64(inliers) < v.cfg.MinInlierFraction*float64(len(good)) {
		return nil, entity.RejectLowInlierRatio
	}

	inSrc := make([]entity.Point, 0, inliers)
	inDst := make([]entity.Point, 0, inliers)
	for i, in := range mask {
		if in {
			inSrc = append(inSrc, src[i])
			inDst = append(inDst, dst[i])
		}
	}
	refined, ok := v.estimator.FitLMedS(inSrc, inDst)
	if !ok {
		return nil, entity.RejectRefinementFailed
	}

	return &entity.MatchCandidate{
		Reference:   ref,
		InlierCount: inliers,
		Homography:  refined,
	}, entity.RejectNone
}

// SelectBest возвращает кандидата с наибольшим числом inliers.
// При равенстве побеждает более ранний эталон каталога.
func SelectBest(candidates []*entity.MatchCandidate) *entity.MatchCandidate {
	var best *entity.MatchCandidate
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if best == nil || c.InlierCount > best.InlierCount {
			best = c
		}
	}
	return best
}

// Project переводит углы эталона в координаты кадра.
func Project(c *entity.MatchCandidate) entity.Quad {
	var q entity.Quad
	for i, p := range entity.Corners(c.Reference.Width, c.Reference.Height) {
		q[i] = c.Homography.Apply(p)
	}
	return q
}
