package app

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"time"

	"github.com/anthonynsimon/bild/effect"
	"golang.org/x/time/rate"

	"planar-recognizer/internal/domain/entity"
	"planar-recognizer/internal/domain/port"
)

// RecognitionService обрабатывает кадры: точки, сопоставление со всеми эталонами,
// выбор лучшего кандидата и контур.
type RecognitionService struct {
	cfg       PipelineConfig
	catalog   *entity.Catalog
	extractor port.FeatureExtractor
	matcher   port.DescriptorMatcher
	verifier  *Verifier
	observer  port.PipelineObserver
	logger    *slog.Logger
	lowKP     *rate.Sometimes
}

// NewRecognitionService создаёт сервис распознавания. observer и logger могут быть nil.
func NewRecognitionService(
	cfg PipelineConfig,
	catalog *entity.Catalog,
	extractor port.FeatureExtractor,
	matcher port.DescriptorMatcher,
	estimator port.HomographyEstimator,
	observer port.PipelineObserver,
	logger *slog.Logger,
) *RecognitionService {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RecognitionService{
		cfg:       cfg,
		catalog:   catalog,
		extractor: extractor,
		matcher:   matcher,
		verifier:  NewVerifier(cfg, estimator),
		observer:  observer,
		logger:    logger,
		lowKP:     &rate.Sometimes{First: 1, Interval: 5 * time.Second},
	}
}

// Catalog возвращает каталог эталонов.
func (s *RecognitionService) Catalog() *entity.Catalog {
	return s.catalog
}

// ShouldProcess решает по номеру кадра, обрабатывать ли его.
func (s *RecognitionService) ShouldProcess(index uint64) bool {
	skip := uint64(max(s.cfg.FrameSkip, 1))
	return index%skip == 0
}

// ProcessFrame применяет пропуск кадров и распознаёт кадр.
// processed = false для пропущенных кадров.
func (s *RecognitionService) ProcessFrame(ctx context.Context, frame entity.Frame) (rec entity.Recognition, processed bool, err error) {
	if !s.ShouldProcess(frame.Index) {
		s.observer.FrameSkipped()
		return entity.Recognition{}, false, nil
	}
	rec, err = s.Recognize(ctx, frame.Image)
	if err != nil {
		return entity.Recognition{}, true, fmt.Errorf("frame %d: %w", frame.Index, err)
	}
	return rec, true, nil
}

// Recognize распознаёт эталон на изображении. Отсутствие совпадения не является ошибкой.
func (s *RecognitionService) Recognize(ctx context.Context, img image.Image) (entity.Recognition, error) {
	if img == nil || img.Bounds().Empty() {
		return entity.Recognition{}, entity.ErrInvalidImage
	}
	started := time.Now()

	query, err := s.extractor.Extract(ToGray(img))
	if err != nil {
		return entity.Recognition{}, fmt.Errorf("extract features: %w", err)
	}
	if query.Len() < s.cfg.LowKeypointWarning {
		s.lowKP.Do(func() {
			s.logger.Warn("few keypoints in frame, try better lighting or move closer",
				"keypoints", query.Len())
		})
	}

	rec := entity.Recognition{QueryKeypoints: query.Len()}
	if query.Empty() {
		s.observer.FrameProcessed(rec, time.Since(started).Seconds())
		return rec, nil
	}

	entries := s.catalog.Entries()
	candidates := make([]*entity.MatchCandidate, 0, len(entries))
	for _, ref := range entries {
		if err := ctx.Err(); err != nil {
			return entity.Recognition{}, err
		}
		knn, err := s.matcher.KnnMatch(query.Descriptors, ref.Features.Descriptors, 2)
		if err != nil {
			return entity.Recognition{}, fmt.Errorf("match %q: %w", ref.Name, err)
		}
		candidate, reason := s.verifier.Verify(query.Keypoints, ref, knn)
		if candidate == nil {
			s.observer.ReferenceRejected(ref.Name, reason)
			s.logger.Debug("reference rejected", "reference", ref.Name, "reason", string(reason))
			continue
		}
		s.logger.Debug("reference verified", "reference", ref.Name, "inliers", candidate.InlierCount)
		candidates = append(candidates, candidate)
	}

	if best := SelectBest(candidates); best != nil {
		rec.Candidate = best
		rec.Outline = Project(best)
	}
	s.observer.FrameProcessed(rec, time.Since(started).Seconds())
	return rec, nil
}

// ToGray переводит изображение в полутоновое; *image.Gray возвращается как есть.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	rgba := effect.Grayscale(img)
	g := image.NewGray(rgba.Bounds())
	draw.Draw(g, g.Bounds(), rgba, rgba.Bounds().Min, draw.Src)
	return g
}

type noopObserver struct{}

func (noopObserver) FrameSkipped()                              {}
func (noopObserver) FrameProcessed(entity.Recognition, float64) {}
func (noopObserver) ReferenceRejected(string, entity.Rejection) {}
