package app

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/require"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/testutil"
)

func TestCatalogBuilder_Build(t *testing.T) {
	extractor := &featuresByImage{byWidth: map[int]entity.Features{
		200: testutil.SyntheticFeatures(50, 200, 300, 1),
		120: testutil.SyntheticFeatures(30, 120, 80, 2),
	}}
	loader := mapLoader{
		"cat.jpg": testutil.UniformImage(200, 300, 0),
		"dog.jpg": image.NewRGBA(image.Rect(0, 0, 120, 80)),
	}
	b := NewCatalogBuilder(loader, extractor, DefaultPipelineConfig(), nil)

	c, err := b.Build(context.Background(), []entity.ReferenceSource{
		{Name: "cat", URL: "cat.jpg"},
		{Name: "dog", URL: "dog.jpg", Width: 999, Height: 999},
	})
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	cat := c.Entries()[0]
	require.Equal(t, "cat", cat.Name)
	require.Equal(t, 200, cat.Width)
	require.Equal(t, 300, cat.Height)
	require.Equal(t, 50, cat.Features.Len())

	// Размеры берутся из декодированного изображения, а не из манифеста.
	dog, ok := c.Lookup("dog")
	require.True(t, ok)
	require.Equal(t, 120, dog.Width)
	require.Equal(t, 80, dog.Height)
}

func TestCatalogBuilder_SkipsUnreadable(t *testing.T) {
	extractor := &featuresByImage{byWidth: map[int]entity.Features{
		200: testutil.SyntheticFeatures(50, 200, 300, 1),
	}}
	loader := mapLoader{
		"cat.jpg":   testutil.UniformImage(200, 300, 0),
		"empty.jpg": image.NewGray(image.Rect(0, 0, 0, 0)),
	}
	b := NewCatalogBuilder(loader, extractor, DefaultPipelineConfig(), nil)

	c, err := b.Build(context.Background(), []entity.ReferenceSource{
		{Name: "missing", URL: "missing.jpg"},
		{Name: "cat", URL: "cat.jpg"},
		{Name: "empty", URL: "empty.jpg"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	require.Equal(t, "cat", c.Entries()[0].Name)
}

func TestCatalogBuilder_EmptyCatalogIsFatal(t *testing.T) {
	b := NewCatalogBuilder(mapLoader{}, &featuresByImage{}, DefaultPipelineConfig(), nil)

	_, err := b.Build(context.Background(), []entity.ReferenceSource{{Name: "cat", URL: "cat.jpg"}})
	require.ErrorIs(t, err, entity.ErrEmptyCatalog)

	_, err = b.Build(context.Background(), nil)
	require.ErrorIs(t, err, entity.ErrEmptyCatalog)
}

func TestCatalogBuilder_DuplicateName(t *testing.T) {
	loader := mapLoader{"cat.jpg": testutil.UniformImage(200, 300, 0)}
	b := NewCatalogBuilder(loader, &featuresByImage{}, DefaultPipelineConfig(), nil)

	_, err := b.Build(context.Background(), []entity.ReferenceSource{
		{Name: "cat", URL: "cat.jpg"},
		{Name: "cat", URL: "cat.jpg"},
	})
	require.ErrorIs(t, err, entity.ErrDuplicateReference)
}

func TestCatalogBuilder_KeepsTexturelessReference(t *testing.T) {
	loader := mapLoader{"flat.jpg": testutil.UniformImage(64, 64, 50)}
	b := NewCatalogBuilder(loader, &featuresByImage{}, DefaultPipelineConfig(), nil)

	c, err := b.Build(context.Background(), []entity.ReferenceSource{{Name: "flat", URL: "flat.jpg"}})
	require.NoError(t, err)
	require.True(t, c.Entries()[0].Features.Empty())
}
