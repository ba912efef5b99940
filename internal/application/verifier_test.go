package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/testutil"
)

// confidentKnn строит n пар соседей, проходящих ratio test: i -> i.
func confidentKnn(n int) [][]entity.Neighbor {
	knn := make([][]entity.Neighbor, n)
	for i := range knn {
		knn[i] = []entity.Neighbor{
			{QueryIdx: i, TrainIdx: i, Distance: 10},
			{QueryIdx: i, TrainIdx: (i + 1) % n, Distance: 100},
		}
	}
	return knn
}

func referenceWith(n int) entity.ReferenceEntry {
	return entity.ReferenceEntry{
		Name:     "ref",
		Features: testutil.SyntheticFeatures(n, 200, 300, 1),
		Width:    200,
		Height:   300,
	}
}

func TestRatioTest(t *testing.T) {
	knn := [][]entity.Neighbor{
		{{QueryIdx: 0, TrainIdx: 3, Distance: 10}, {QueryIdx: 0, TrainIdx: 4, Distance: 100}},
		{{QueryIdx: 1, TrainIdx: 5, Distance: 70}, {QueryIdx: 1, TrainIdx: 6, Distance: 100}},
		{{QueryIdx: 2, TrainIdx: 7, Distance: 0}},
		{},
		{{QueryIdx: 4, TrainIdx: 1, Distance: 0}, {QueryIdx: 4, TrainIdx: 2, Distance: 0}},
	}

	got := RatioTest(knn, 0.7)
	require.Equal(t, []entity.Correspondence{
		{QueryIdx: 0, TrainIdx: 3, BestDistance: 10, SecondDistance: 100},
	}, got)
}

func TestRatioTest_Monotonic(t *testing.T) {
	rng := testutil.NewRNG(99)
	knn := make([][]entity.Neighbor, 300)
	for i := range knn {
		d1 := rng.IntN(128)
		d2 := d1 + rng.IntN(128)
		knn[i] = []entity.Neighbor{
			{QueryIdx: i, TrainIdx: 0, Distance: d1},
			{QueryIdx: i, TrainIdx: 1, Distance: d2},
		}
	}

	prev := len(RatioTest(knn, 1.0))
	for _, ratio := range []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.3, 0.1} {
		n := len(RatioTest(knn, ratio))
		require.LessOrEqual(t, n, prev, "ratio %g", ratio)
		prev = n
	}
}

func TestVerify_MinMatchGateSkipsRansac(t *testing.T) {
	est := &spyEstimator{mask: firstInliers(100)}
	v := NewVerifier(DefaultPipelineConfig(), est)
	ref := referenceWith(20)

	c, reason := v.Verify(ref.Features.Keypoints, ref, confidentKnn(14))
	require.Nil(t, c)
	require.Equal(t, entity.RejectTooFewMatches, reason)
	require.Zero(t, est.ransacCalls)
	require.Zero(t, est.lmedsCalls)
}

func TestVerify_NoHomography(t *testing.T) {
	est := &spyEstimator{ransacFail: true}
	v := NewVerifier(DefaultPipelineConfig(), est)
	ref := referenceWith(20)

	c, reason := v.Verify(ref.Features.Keypoints, ref, confidentKnn(20))
	require.Nil(t, c)
	require.Equal(t, entity.RejectNoHomography, reason)
	require.Equal(t, 1, est.ransacCalls)
}

func TestVerify_LowInlierRatio(t *testing.T) {
	// 15 из 20 = 0.75 < 0.8
	est := &spyEstimator{mask: firstInliers(15)}
	v := NewVerifier(DefaultPipelineConfig(), est)
	ref := referenceWith(20)

	c, reason := v.Verify(ref.Features.Keypoints, ref, confidentKnn(20))
	require.Nil(t, c)
	require.Equal(t, entity.RejectLowInlierRatio, reason)
	require.Zero(t, est.lmedsCalls)
}

func TestVerify_RefinementFailed(t *testing.T) {
	est := &spyEstimator{mask: firstInliers(20), lmedsFail: true}
	v := NewVerifier(DefaultPipelineConfig(), est)
	ref := referenceWith(20)

	c, reason := v.Verify(ref.Features.Keypoints, ref, confidentKnn(20))
	require.Nil(t, c)
	require.Equal(t, entity.RejectRefinementFailed, reason)
}

func TestVerify_RefinesOnInliersOnly(t *testing.T) {
	refined := entity.Homography{1, 0, 5, 0, 1, 7, 0, 0, 1}
	// 16 из 20 = 0.8, граница проходит.
	est := &spyEstimator{mask: firstInliers(16), refined: refined}
	v := NewVerifier(DefaultPipelineConfig(), est)
	ref := referenceWith(20)

	c, reason := v.Verify(ref.Features.Keypoints, ref, confidentKnn(20))
	require.NotNil(t, c)
	require.Equal(t, entity.RejectNone, reason)
	require.Equal(t, 16, c.InlierCount)
	require.Equal(t, refined, c.Homography)
	require.Equal(t, "ref", c.Reference.Name)
	require.Equal(t, 16, est.lmedsInput)
}

func TestVerify_GatesAreConfigurable(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.MinGoodMatches = 5
	cfg.MinInlierFraction = 0.5
	est := &spyEstimator{mask: firstInliers(4)}
	v := NewVerifier(cfg, est)
	ref := referenceWith(8)

	c, _ := v.Verify(ref.Features.Keypoints, ref, confidentKnn(8))
	require.NotNil(t, c)
	require.Equal(t, 4, c.InlierCount)
}

func TestSelectBest(t *testing.T) {
	require.Nil(t, SelectBest(nil))
	require.Nil(t, SelectBest([]*entity.MatchCandidate{nil, nil}))

	a := &entity.MatchCandidate{Reference: entity.ReferenceEntry{Name: "a"}, InlierCount: 40}
	b := &entity.MatchCandidate{Reference: entity.ReferenceEntry{Name: "b"}, InlierCount: 25}
	require.Same(t, a, SelectBest([]*entity.MatchCandidate{b, nil, a}))
	require.Same(t, a, SelectBest([]*entity.MatchCandidate{a, b}))
}

func TestSelectBest_TieGoesToFirstRegistered(t *testing.T) {
	first := &entity.MatchCandidate{Reference: entity.ReferenceEntry{Name: "first"}, InlierCount: 30}
	second := &entity.MatchCandidate{Reference: entity.ReferenceEntry{Name: "second"}, InlierCount: 30}
	require.Same(t, first, SelectBest([]*entity.MatchCandidate{first, second}))
	require.Same(t, second, SelectBest([]*entity.MatchCandidate{nil, second, first}))
}

func TestProject_Identity(t *testing.T) {
	c := &entity.MatchCandidate{
		Reference:  entity.ReferenceEntry{Width: 200, Height: 300},
		Homography: entity.IdentityHomography(),
	}
	require.Equal(t, entity.Quad{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 200, Y: 300}, {X: 0, Y: 300}}, Project(c))
}

func TestProject_Translation(t *testing.T) {
	c := &entity.MatchCandidate{
		Reference:  entity.ReferenceEntry{Width: 10, Height: 20},
		Homography: entity.Homography{1, 0, 5, 0, 1, 7, 0, 0, 1},
	}
	require.Equal(t, entity.Quad{{X: 5, Y: 7}, {X: 15, Y: 7}, {X: 15, Y: 27}, {X: 5, Y: 27}}, Project(c))
}
