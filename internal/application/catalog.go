package app

import (
	"context"
	"fmt"
	"log/slog"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// CatalogBuilder строит каталог эталонов при старте.
type CatalogBuilder struct {
	loader    port.ReferenceLoader
	extractor port.FeatureExtractor
	lowKP     int
	logger    *slog.Logger
}

// NewCatalogBuilder создаёт построитель каталога.
func NewCatalogBuilder(loader port.ReferenceLoader, extractor port.FeatureExtractor, cfg PipelineConfig, logger *slog.Logger) *CatalogBuilder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogBuilder{
		loader:    loader,
		extractor: extractor,
		lowKP:     cfg.LowKeypointWarning,
		logger:    logger,
	}
}

// Build загружает эталоны в заданном порядке. Нечитаемый эталон пропускается,
// пустой каталог и повторяющиеся имена считаются ошибкой конфигурации.
func (b *CatalogBuilder) Build(ctx context.Context, sources []entity.ReferenceSource) (*entity.Catalog, error) {
	seen := make(map[string]struct{}, len(sources))
	entries := make([]entity.ReferenceEntry, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("%w: %q", entity.ErrDuplicateReference, src.Name)
		}
		seen[src.Name] = struct{}{}

		log := b.logger.With("reference", src.Name, "url", src.URL)
		entry, err := b.buildEntry(ctx, src, log)
		if err != nil {
			log.Warn("reference skipped", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, entity.ErrEmptyCatalog
	}
	return entity.NewCatalog(entries)
}

func (b *CatalogBuilder) buildEntry(ctx context.Context, src entity.ReferenceSource, log *slog.Logger) (entity.ReferenceEntry, error) {
	img, err := b.loader.Load(ctx, src.URL)
	if err != nil {
		return entity.ReferenceEntry{}, fmt.Errorf("load: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return entity.ReferenceEntry{}, fmt.Errorf("load: %w", entity.ErrInvalidImage)
	}
	w, h := bounds.Dx(), bounds.Dy()
	if (src.Width != 0 && src.Width != w) || (src.Height != 0 && src.Height != h) {
		log.Warn("declared size differs from decoded image, using decoded size",
			"declared_width", src.Width, "declared_height", src.Height, "width", w, "height", h)
	}

	features, err := b.extractor.Extract(ToGray(img))
	if err != nil {
		return entity.ReferenceEntry{}, fmt.Errorf("extract features: %w", err)
	}
	if features.Len() < b.lowKP {
		log.Warn("reference has few keypoints, consider richer detail or more features",
			"keypoints", features.Len())
	}
	log.Info("reference loaded", "width", w, "height", h, "keypoints", features.Len())

	return entity.ReferenceEntry{
		Name:     src.Name,
		Features: features,
		Width:    w,
		Height:   h,
	}, nil
}
