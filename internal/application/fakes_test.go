package app

import (
	"context"
	"errors"
	"image"
	"io"

	"planar-recognizer/internal/domain/entity"
)

// featuresByImage отдаёт заранее заданные признаки по ширине изображения.
type featuresByImage struct {
	byWidth map[int]entity.Features
	calls   int
	err     error
}

func (f *featuresByImage) Extract(img *image.Gray) (entity.Features, error) {
	f.calls++
	if f.err != nil {
		return entity.Features{}, f.err
	}
	return f.byWidth[img.Bounds().Dx()], nil
}

type countingMatcher struct {
	inner interface {
		KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error)
	}
	calls int
}

func (m *countingMatcher) KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error) {
	m.calls++
	return m.inner.KnnMatch(query, train, k)
}

// spyEstimator фиксирует вызовы и возвращает заданные результаты.
type spyEstimator struct {
	mask       func(n int) []bool
	ransacFail bool
	lmedsFail  bool
	refined    entity.Homography

	ransacCalls int
	lmedsCalls  int
	lmedsInput  int
}

func (s *spyEstimator) FitRANSAC(src, dst []entity.Point, _ float64) (entity.Homography, []bool, bool) {
	s.ransacCalls++
	if s.ransacFail {
		return entity.Homography{}, nil, false
	}
	return entity.IdentityHomography(), s.mask(len(src)), true
}

func (s *spyEstimator) FitLMedS(src, dst []entity.Point) (entity.Homography, bool) {
	s.lmedsCalls++
	s.lmedsInput = len(src)
	if s.lmedsFail {
		return entity.Homography{}, false
	}
	return s.refined, true
}

func firstInliers(k int) func(n int) []bool {
	return func(n int) []bool {
		m := make([]bool, n)
		for i := 0; i < k && i < n; i++ {
			m[i] = true
		}
		return m
	}
}

type mapLoader map[string]image.Image

func (l mapLoader) Load(_ context.Context, url string) (image.Image, error) {
	img, ok := l[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return img, nil
}

type sliceSource struct {
	frames []entity.Frame
	err    error
	pos    int
}

func (s *sliceSource) Next(context.Context) (entity.Frame, error) {
	if s.pos >= len(s.frames) {
		if s.err != nil {
			return entity.Frame{}, s.err
		}
		return entity.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

type recordingSink struct {
	frames []uint64
	recs   []entity.Recognition
	err    error
}

func (s *recordingSink) Render(_ context.Context, frame entity.Frame, rec entity.Recognition) error {
	s.frames = append(s.frames, frame.Index)
	s.recs = append(s.recs, rec)
	return s.err
}

type recordingObserver struct {
	skipped   int
	processed int
	rejected  map[string]entity.Rejection
}

func (o *recordingObserver) FrameSkipped() { o.skipped++ }

func (o *recordingObserver) FrameProcessed(entity.Recognition, float64) { o.processed++ }

func (o *recordingObserver) ReferenceRejected(reference string, reason entity.Rejection) {
	if o.rejected == nil {
		o.rejected = make(map[string]entity.Rejection)
	}
	o.rejected[reference] = reason
}
