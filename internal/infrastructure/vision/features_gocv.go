//go:build gocv

package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// ORBExtractor детектор ORB из OpenCV.
type ORBExtractor struct {
	orb gocv.ORB
}

// NewORBExtractor создаёт ORB с бюджетом maxKeypoints и оценкой Harris.
func NewORBExtractor(maxKeypoints int) (*ORBExtractor, error) {
	orb := gocv.NewORBWithParams(maxKeypoints, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	return &ORBExtractor{orb: orb}, nil
}

// Extract копирует точки и дескрипторы из Mat в значения Go.
func (e *ORBExtractor) Extract(img *image.Gray) (entity.Features, error) {
	if img == nil {
		return entity.Features{}, entity.ErrInvalidImage
	}
	src, err := gocv.ImageGrayToMatGray(img)
	if err != nil {
		return entity.Features{}, fmt.Errorf("image to mat: %w", err)
	}
	defer src.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	kps, desc := e.orb.DetectAndCompute(src, mask)
	defer desc.Close()

	if len(kps) == 0 || desc.Empty() {
		return entity.Features{}, nil
	}
	if desc.Rows() != len(kps) || desc.Cols() != entity.DescriptorSize {
		return entity.Features{}, fmt.Errorf("unexpected descriptor matrix %dx%d for %d keypoints",
			desc.Rows(), desc.Cols(), len(kps))
	}

	raw, err := desc.DataPtrUint8()
	if err != nil {
		return entity.Features{}, fmt.Errorf("descriptor data: %w", err)
	}
	keypoints := make([]entity.Keypoint, len(kps))
	descriptors := make([]entity.Descriptor, len(kps))
	for i, kp := range kps {
		keypoints[i] = entity.Keypoint{
			X:        kp.X,
			Y:        kp.Y,
			Size:     kp.Size,
			Angle:    kp.Angle,
			Response: kp.Response,
			Octave:   kp.Octave,
		}
		copy(descriptors[i][:], raw[i*entity.DescriptorSize:(i+1)*entity.DescriptorSize])
	}
	return entity.NewFeatures(keypoints, descriptors), nil
}

// Close освобождает детектор.
func (e *ORBExtractor) Close() error {
	return e.orb.Close()
}

// Matcher knn-сопоставление BFMatcher с нормой Хэмминга.
type Matcher struct {
	bf gocv.BFMatcher
}

// NewMatcher создаёт BFMatcher без cross-check.
func NewMatcher() (*Matcher, error) {
	return &Matcher{bf: gocv.NewBFMatcherWithParams(gocv.NormHamming, false)}, nil
}

func (m *Matcher) KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("knn: k must be positive, got %d", k)
	}
	out := make([][]entity.Neighbor, len(query))
	if len(query) == 0 || len(train) == 0 {
		for i := range out {
			out[i] = []entity.Neighbor{}
		}
		return out, nil
	}

	q, err := descriptorMat(query)
	if err != nil {
		return nil, err
	}
	defer q.Close()
	t, err := descriptorMat(train)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	matches := m.bf.KnnMatch(q, t, min(k, len(train)))
	for i := range out {
		out[i] = []entity.Neighbor{}
	}
	for _, row := range matches {
		for _, dm := range row {
			if dm.QueryIdx < 0 || dm.QueryIdx >= len(out) {
				continue
			}
			out[dm.QueryIdx] = append(out[dm.QueryIdx], entity.Neighbor{
				QueryIdx: dm.QueryIdx,
				TrainIdx: dm.TrainIdx,
				Distance: int(dm.Distance),
			})
		}
	}
	return out, nil
}

// Close освобождает сопоставитель.
func (m *Matcher) Close() error {
	return m.bf.Close()
}

func descriptorMat(ds []entity.Descriptor) (gocv.Mat, error) {
	flat := make([]byte, 0, len(ds)*entity.DescriptorSize)
	for i := range ds {
		flat = append(flat, ds[i][:]...)
	}
	mat, err := gocv.NewMatFromBytes(len(ds), entity.DescriptorSize, gocv.MatTypeCV8U, flat)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("descriptor mat: %w", err)
	}
	return mat, nil
}

// HomographyEstimator оценка гомографии через cv::findHomography.
type HomographyEstimator struct {
	maxIters   int
	confidence float64
	seed       int
}

// NewHomographyEstimator создаёт оценщик. seed фиксирует ГСЧ OpenCV перед RANSAC.
func NewHomographyEstimator(maxIters int, confidence float64, seed uint64) (*HomographyEstimator, error) {
	if maxIters <= 0 || confidence <= 0 || confidence >= 1 {
		return nil, errors.New("homography: invalid ransac budget")
	}
	return &HomographyEstimator{maxIters: maxIters, confidence: confidence, seed: int(seed)}, nil
}

func (h *HomographyEstimator) FitRANSAC(src, dst []entity.Point, thr float64) (entity.Homography, []bool, bool) {
	if len(src) < 4 || len(src) != len(dst) {
		return entity.Homography{}, nil, false
	}
	gocv.SetRNGSeed(h.seed)

	hm, mask, ok := h.find(src, dst, gocv.HomographyMethodRANSAC, thr)
	if !ok {
		return entity.Homography{}, nil, false
	}
	return hm, mask, true
}

func (h *HomographyEstimator) FitLMedS(src, dst []entity.Point) (entity.Homography, bool) {
	if len(src) < 4 || len(src) != len(dst) {
		return entity.Homography{}, false
	}
	gocv.SetRNGSeed(h.seed)

	hm, _, ok := h.find(src, dst, gocv.HomographyMethodLMEDS, 0)
	return hm, ok
}

func (h *HomographyEstimator) find(src, dst []entity.Point, method gocv.HomographyMethod, thr float64) (entity.Homography, []bool, bool) {
	srcMat := pointsMat(src)
	defer srcMat.Close()
	dstMat := pointsMat(dst)
	defer dstMat.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	hm := gocv.FindHomography(srcMat, &dstMat, method, thr, &mask, h.maxIters, h.confidence)
	defer hm.Close()
	if hm.Empty() || hm.Rows() != 3 || hm.Cols() != 3 {
		return entity.Homography{}, nil, false
	}

	var out entity.Homography
	for r := range 3 {
		for c := range 3 {
			out[r*3+c] = hm.GetDoubleAt(r, c)
		}
	}

	inliers := make([]bool, len(src))
	if mask.Rows() == len(src) {
		for i := range inliers {
			inliers[i] = mask.GetUCharAt(i, 0) != 0
		}
	}
	return out.Normalized(), inliers, true
}

func pointsMat(pts []entity.Point) gocv.Mat {
	m := gocv.NewMatWithSize(len(pts), 2, gocv.MatTypeCV64F)
	for i, p := range pts {
		m.SetDoubleAt(i, 0, p.X)
		m.SetDoubleAt(i, 1, p.Y)
	}
	return m
}

var (
	_ port.FeatureExtractor    = (*ORBExtractor)(nil)
	_ port.DescriptorMatcher   = (*Matcher)(nil)
	_ port.HomographyEstimator = (*HomographyEstimator)(nil)
)
