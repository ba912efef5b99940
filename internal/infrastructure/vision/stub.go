//go:build !gocv

package vision

import (
	"context"
	"image"
	"image/color"

	"planar-recognizer/internal/domain/entity"
)

// ORBExtractor заглушка без OpenCV.
type ORBExtractor struct{}

// NewORBExtractor возвращает ошибку, если сборка без тега gocv.
func NewORBExtractor(maxKeypoints int) (*ORBExtractor, error) {
	return nil, ErrNotEnabled
}

func (e *ORBExtractor) Extract(img *image.Gray) (entity.Features, error) {
	return entity.Features{}, ErrNotEnabled
}

func (e *ORBExtractor) Close() error { return nil }

// Matcher заглушка без OpenCV.
type Matcher struct{}

// NewMatcher возвращает ошибку, если сборка без тега gocv.
func NewMatcher() (*Matcher, error) {
	return nil, ErrNotEnabled
}

func (m *Matcher) KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error) {
	return nil, ErrNotEnabled
}

func (m *Matcher) Close() error { return nil }

// HomographyEstimator заглушка без OpenCV.
type HomographyEstimator struct{}

// NewHomographyEstimator возвращает ошибку, если сборка без тега gocv.
func NewHomographyEstimator(maxIters int, confidence float64, seed uint64) (*HomographyEstimator, error) {
	return nil, ErrNotEnabled
}

func (h *HomographyEstimator) FitRANSAC(src, dst []entity.Point, thr float64) (entity.Homography, []bool, bool) {
	return entity.Homography{}, nil, false
}

func (h *HomographyEstimator) FitLMedS(src, dst []entity.Point) (entity.Homography, bool) {
	return entity.Homography{}, false
}

// CaptureSource заглушка без OpenCV.
type CaptureSource struct{}

// NewCaptureSource возвращает ошибку, если сборка без тега gocv.
func NewCaptureSource(device string, res Resolution) (*CaptureSource, error) {
	return nil, ErrNotEnabled
}

func (s *CaptureSource) Next(ctx context.Context) (entity.Frame, error) {
	return entity.Frame{}, ErrNotEnabled
}

func (s *CaptureSource) Close() error { return nil }

// WindowSink заглушка без OpenCV.
type WindowSink struct{}

// NewWindowSink возвращает ошибку, если сборка без тега gocv.
func NewWindowSink(title string, stroke color.RGBA, width int, onQuit func()) (*WindowSink, error) {
	return nil, ErrNotEnabled
}

func (s *WindowSink) Render(ctx context.Context, frame entity.Frame, rec entity.Recognition) error {
	return ErrNotEnabled
}

func (s *WindowSink) Close() error { return nil }
