package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescriptorHamming(t *testing.T) {
	var a, b Descriptor
	require.Equal(t, 0, a.Hamming(&b))

	b[0] = 0xFF
	b[31] = 0x01
	require.Equal(t, 9, a.Hamming(&b))
	require.Equal(t, 9, b.Hamming(&a))
}

func TestNewFeatures_LengthMismatchPanics(t *testing.T) {
	require.Panics(t, func() {
		NewFeatures(make([]Keypoint, 2), make([]Descriptor, 1))
	})

	f := NewFeatures(make([]Keypoint, 3), make([]Descriptor, 3))
	require.Equal(t, 3, f.Len())
	require.False(t, f.Empty())
	require.True(t, Features{}.Empty())
}

func TestHomographyApply_Identity(t *testing.T) {
	h := IdentityHomography()
	p := h.Apply(Point{X: 12.5, Y: -3})
	require.Equal(t, Point{X: 12.5, Y: -3}, p)
}

func TestHomographyApply_Projective(t *testing.T) {
	// Сдвиг на (10, 20) и масштаб 2, записанные с h22 = 2.
	h := Homography{4, 0, 20, 0, 4, 40, 0, 0, 2}
	p := h.Apply(Point{X: 1, Y: 1})
	require.InDelta(t, 12, p.X, 1e-12)
	require.InDelta(t, 22, p.Y, 1e-12)

	n := h.Normalized()
	require.Equal(t, 1.0, n.At(2, 2))
	require.Equal(t, 10.0, n.At(0, 2))
}

func TestCorners_WindingOrder(t *testing.T) {
	q := Corners(200, 300)
	require.Equal(t, Quad{{0, 0}, {200, 0}, {200, 300}, {0, 300}}, q)
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog([]ReferenceEntry{{Name: "cat"}, {Name: "dog"}})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())
	require.Equal(t, "cat", c.Entries()[0].Name)

	dog, ok := c.Lookup("dog")
	require.True(t, ok)
	require.Equal(t, "dog", dog.Name)

	_, ok = c.Lookup("bird")
	require.False(t, ok)
}

func TestNewCatalog_Duplicate(t *testing.T) {
	_, err := NewCatalog([]ReferenceEntry{{Name: "cat"}, {Name: "cat"}})
	require.ErrorIs(t, err, ErrDuplicateReference)
}

func TestRecognitionStatus(t *testing.T) {
	require.Equal(t, "No match", Recognition{}.Status())

	r := Recognition{Candidate: &MatchCandidate{
		Reference:   ReferenceEntry{Name: "cat"},
		InlierCount: 42,
	}}
	require.True(t, r.Matched())
	require.Equal(t, "Match: cat — 42 inliers", r.Status())
}

func TestSession(t *testing.T) {
	s := NewSession(1, 10)
	require.Equal(t, StateMainMenu, s.State)
	require.Equal(t, int64(1), s.UserID)
	require.Equal(t, int64(10), s.ChatID)

	require.Equal(t, uint64(1), s.NextFrame())
	require.Equal(t, uint64(2), s.NextFrame())

	s.SetState(StateAwaitingPhoto)
	require.Equal(t, StateAwaitingPhoto, s.State)
}
