package features

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/testutil"
)

func TestORBExtractor_NilImage(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(500))
	_, err := e.Extract(nil)
	require.ErrorIs(t, err, entity.ErrInvalidImage)
}

func TestORBExtractor_UniformImageHasNoKeypoints(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(500))
	f, err := e.Extract(testutil.UniformImage(200, 200, 90))
	require.NoError(t, err)
	require.True(t, f.Empty())
	require.Empty(t, f.Descriptors)
}

func TestORBExtractor_TinyImageHasNoKeypoints(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(500))
	f, err := e.Extract(testutil.TexturedImage(40, 40, 1))
	require.NoError(t, err)
	require.True(t, f.Empty())
}

func TestORBExtractor_TexturedImage(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(500))
	img := testutil.TexturedImage(320, 240, 7)

	f, err := e.Extract(img)
	require.NoError(t, err)
	require.Greater(t, f.Len(), 20)
	require.LessOrEqual(t, f.Len(), 500)
	require.Len(t, f.Descriptors, f.Len())

	for _, kp := range f.Keypoints {
		require.GreaterOrEqual(t, kp.X, 0.0)
		require.Less(t, kp.X, 320.0)
		require.GreaterOrEqual(t, kp.Y, 0.0)
		require.Less(t, kp.Y, 240.0)
		require.GreaterOrEqual(t, kp.Angle, 0.0)
		require.Less(t, kp.Angle, 360.0)
	}

	again, err := e.Extract(img)
	require.NoError(t, err)
	require.Equal(t, f, again)
}

func TestORBExtractor_RespectsBudget(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(10))
	f, err := e.Extract(testutil.TexturedImage(320, 240, 3))
	require.NoError(t, err)
	require.LessOrEqual(t, f.Len(), 10)

	for i := 1; i < f.Len(); i++ {
		require.GreaterOrEqual(t, f.Keypoints[i-1].Response, f.Keypoints[i].Response)
	}
}

func TestORBExtractor_SubImageOffset(t *testing.T) {
	e := NewORBExtractor(DefaultORBConfig(300))
	full := testutil.TexturedImage(400, 300, 11)
	sub := full.SubImage(image.Rect(40, 30, 360, 270)).(*image.Gray)

	copied := image.NewGray(image.Rect(0, 0, 320, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			copied.SetGray(x, y, sub.GrayAt(x+40, y+30))
		}
	}

	a, err := e.Extract(sub)
	require.NoError(t, err)
	b, err := e.Extract(copied)
	require.NoError(t, err)
	require.Equal(t, b, a)
}

func TestLevelBudgets(t *testing.T) {
	b := levelBudgets(1000, 8, 1.2)
	require.Len(t, b, 8)
	sum := 0
	for i, n := range b {
		sum += n
		if i > 0 && i < len(b)-1 {
			require.LessOrEqual(t, n, b[i-1])
		}
	}
	require.Equal(t, 1000, sum)
	require.Equal(t, []int{42}, levelBudgets(42, 1, 1.2))
}

func TestFastScore_Corner(t *testing.T) {
	// Светлый квадрат в правом нижнем углу тёмного поля.
	img := testutil.UniformImage(64, 64, 0)
	for y := 32; y < 64; y++ {
		for x := 32; x < 64; x++ {
			img.Pix[y*64+x] = 255
		}
	}
	p := planeFromGray(img)
	require.Greater(t, fastScore(p, 32, 32, 20), 0)
	require.Equal(t, 0, fastScore(p, 10, 10, 20))
	require.Equal(t, 0, fastScore(p, 48, 32, 20))
}

func TestPlane_ResizedKeepsEdge(t *testing.T) {
	// Левая половина тёмная, правая светлая.
	img := testutil.UniformImage(64, 32, 0)
	for y := 0; y < 32; y++ {
		for x := 32; x < 64; x++ {
			img.Pix[y*64+x] = 200
		}
	}
	small := planeFromGray(img).resized(32, 16)
	require.Equal(t, 32, small.w)
	require.Equal(t, 16, small.h)
	require.Len(t, small.pix, 32*16)
	require.Equal(t, 0, small.at(2, 8))
	require.Equal(t, 200, small.at(29, 8))
}

func TestPlane_SmoothedKeepsUniformLevel(t *testing.T) {
	p := planeFromGray(testutil.UniformImage(40, 30, 77))
	s := p.smoothed(2)
	require.Equal(t, p.w, s.w)
	require.Equal(t, p.h, s.h)
	require.InDelta(t, 77, s.at(20, 15), 1)

	// Исходная плоскость не меняется.
	require.Equal(t, 77, p.at(20, 15))
}

func TestPlaneFromRGBA_RespectsBoundsOrigin(t *testing.T) {
	m := image.NewRGBA(image.Rect(5, 5, 8, 7))
	m.Pix[m.PixOffset(6, 6)] = 99
	p := planeFromRGBA(m)
	require.Equal(t, 3, p.w)
	require.Equal(t, 2, p.h)
	require.Equal(t, 99, p.at(1, 1))
	require.Equal(t, 0, p.at(0, 0))
}

func TestBruteForceMatcher_KnnOrdering(t *testing.T) {
	m := NewBruteForceMatcher()
	query := testutil.RandomDescriptors(40, 1)
	train := testutil.RandomDescriptors(60, 2)

	knn, err := m.KnnMatch(query, train, 2)
	require.NoError(t, err)
	require.Len(t, knn, len(query))

	for qi, nbs := range knn {
		require.Len(t, nbs, 2)
		require.LessOrEqual(t, nbs[0].Distance, nbs[1].Distance)

		// Ни один дескриптор train не ближе найденного первым.
		for ti := range train {
			require.GreaterOrEqual(t, query[qi].Hamming(&train[ti]), nbs[0].Distance)
		}
		for _, nb := range nbs {
			require.Equal(t, qi, nb.QueryIdx)
			require.Equal(t, query[qi].Hamming(&train[nb.TrainIdx]), nb.Distance)
		}
	}
}

func TestBruteForceMatcher_FewerTrainThanK(t *testing.T) {
	m := NewBruteForceMatcher()
	query := testutil.RandomDescriptors(5, 3)

	knn, err := m.KnnMatch(query, testutil.RandomDescriptors(1, 4), 2)
	require.NoError(t, err)
	for _, nbs := range knn {
		require.Len(t, nbs, 1)
	}

	knn, err = m.KnnMatch(query, nil, 2)
	require.NoError(t, err)
	require.Len(t, knn, 5)
	for _, nbs := range knn {
		require.Empty(t, nbs)
	}
}

func TestBruteForceMatcher_TiesKeepTrainOrder(t *testing.T) {
	m := NewBruteForceMatcher()
	var d entity.Descriptor
	train := []entity.Descriptor{d, d, d}

	knn, err := m.KnnMatch([]entity.Descriptor{d}, train, 2)
	require.NoError(t, err)
	require.Equal(t, []entity.Neighbor{
		{QueryIdx: 0, TrainIdx: 0, Distance: 0},
		{QueryIdx: 0, TrainIdx: 1, Distance: 0},
	}, knn[0])
}

func TestBruteForceMatcher_InvalidK(t *testing.T) {
	_, err := NewBruteForceMatcher().KnnMatch(nil, nil, 0)
	require.Error(t, err)
}
